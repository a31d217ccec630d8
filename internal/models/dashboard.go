package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CountdownStatus classifies a record's next payment date relative to today.
type CountdownStatus string

const (
	CountdownDays          CountdownStatus = "Days"
	CountdownToday         CountdownStatus = "Today"
	CountdownOverdue       CountdownStatus = "Overdue"
	CountdownNotApplicable CountdownStatus = "N/A"
	CountdownError         CountdownStatus = "Error"
)

// DaysRemaining encodes as a bare integer when Status is CountdownDays and as
// the status label otherwise.
type DaysRemaining struct {
	Status CountdownStatus
	Days   int
}

func (d DaysRemaining) String() string {
	if d.Status == CountdownDays {
		return strconv.Itoa(d.Days)
	}
	return string(d.Status)
}

// MarshalJSON implements json.Marshaler.
func (d DaysRemaining) MarshalJSON() ([]byte, error) {
	if d.Status == CountdownDays {
		return json.Marshal(d.Days)
	}
	return json.Marshal(string(d.Status))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DaysRemaining) UnmarshalJSON(data []byte) error {
	var days int
	if err := json.Unmarshal(data, &days); err == nil {
		*d = DaysRemaining{Status: CountdownDays, Days: days}
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("days remaining: %w", err)
	}
	switch status := CountdownStatus(label); status {
	case CountdownToday, CountdownOverdue, CountdownNotApplicable, CountdownError:
		*d = DaysRemaining{Status: status}
		return nil
	default:
		return fmt.Errorf("days remaining: unknown status %q", label)
	}
}

// DashboardEntry is one record plus its read-time projections.
type DashboardEntry struct {
	Record        AdmissionRecord
	DaysRemaining DaysRemaining
	FullyPaid     bool
}

// DashboardStats summarises the whole admission collection.
type DashboardStats struct {
	TotalAdmissions int     `json:"total_admissions"`
	TotalPaid       float64 `json:"total_paid"`
	TotalDue        float64 `json:"total_due"`
	FullyPaidCount  int     `json:"fully_paid_count"`
	OverdueCount    int     `json:"overdue_count"`
}

// DerivedStats is the aggregator output: entries newest first plus totals.
type DerivedStats struct {
	Entries []DashboardEntry
	Stats   DashboardStats
}
