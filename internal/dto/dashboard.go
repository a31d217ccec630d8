package dto

import "github.com/noah-isme/academy-admissions/internal/models"

// AdminDashboardResponse is the admin view: records newest first plus totals.
type AdminDashboardResponse struct {
	Records []DashboardRecord     `json:"records"`
	Stats   models.DashboardStats `json:"stats"`
}

// DashboardRecord flattens a stored record with its read-time projections.
type DashboardRecord struct {
	models.AdmissionRecord
	DaysRemaining models.DaysRemaining `json:"days_remaining"`
	FullyPaid     bool                 `json:"fully_paid"`
	AttachmentURL string               `json:"attachment_url,omitempty"`
}

// NewAdminDashboardResponse converts aggregator output into the wire shape.
// attachmentURL may be nil, in which case no link is attached.
func NewAdminDashboardResponse(derived models.DerivedStats, attachmentURL func(models.AdmissionRecord) string) AdminDashboardResponse {
	records := make([]DashboardRecord, 0, len(derived.Entries))
	for _, entry := range derived.Entries {
		records = append(records, NewDashboardRecord(entry, attachmentURL))
	}
	return AdminDashboardResponse{Records: records, Stats: derived.Stats}
}

// NewDashboardRecord converts one aggregated entry.
func NewDashboardRecord(entry models.DashboardEntry, attachmentURL func(models.AdmissionRecord) string) DashboardRecord {
	row := DashboardRecord{
		AdmissionRecord: entry.Record,
		DaysRemaining:   entry.DaysRemaining,
		FullyPaid:       entry.FullyPaid,
	}
	if attachmentURL != nil {
		row.AttachmentURL = attachmentURL(entry.Record)
	}
	return row
}
