package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
)

type recordsLoader interface {
	LoadRecords(ctx context.Context) ([]models.AdmissionRecord, bool, error)
}

// DashboardService builds the admin overview from the stored admissions.
type DashboardService struct {
	records  recordsLoader
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the service. Countdown dates are compared in location.
func NewDashboardService(records recordsLoader, location *time.Location, logger *zap.Logger) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{records: records, location: location, logger: logger, now: time.Now}
}

// Overview loads every record and aggregates it. The bool reports whether the
// records came from cache.
func (s *DashboardService) Overview(ctx context.Context) (models.DerivedStats, bool, error) {
	records, cacheHit, err := s.records.LoadRecords(ctx)
	if err != nil {
		return models.DerivedStats{}, false, err
	}
	return Aggregate(records, s.now(), s.location), cacheHit, nil
}

// Record returns one admission with its countdown projection.
func (s *DashboardService) Record(ctx context.Context, id string) (models.DashboardEntry, error) {
	records, _, err := s.records.LoadRecords(ctx)
	if err != nil {
		return models.DashboardEntry{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return models.DashboardEntry{
				Record:        record,
				DaysRemaining: DaysUntil(record.NextPaymentDate, s.now(), s.location),
				FullyPaid:     record.IsFullyPaid(),
			}, nil
		}
	}
	return models.DashboardEntry{}, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
}

// Aggregate derives the dashboard view. Entries come newest first, that is in
// reverse insertion order. The input slice is not modified.
func Aggregate(records []models.AdmissionRecord, now time.Time, location *time.Location) models.DerivedStats {
	if location == nil {
		location = time.UTC
	}
	entries := make([]models.DashboardEntry, 0, len(records))
	var stats models.DashboardStats
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		entry := models.DashboardEntry{
			Record:        record,
			DaysRemaining: DaysUntil(record.NextPaymentDate, now, location),
			FullyPaid:     record.IsFullyPaid(),
		}
		stats.TotalPaid += record.AmountPaid
		stats.TotalDue += record.RemainingBalance
		if entry.FullyPaid {
			stats.FullyPaidCount++
		} else if entry.DaysRemaining.Status == models.CountdownOverdue {
			stats.OverdueCount++
		}
		entries = append(entries, entry)
	}
	stats.TotalAdmissions = len(entries)
	return models.DerivedStats{Entries: entries, Stats: stats}
}

// DaysUntil compares a YYYY-MM-DD date with today's calendar date in location.
func DaysUntil(date string, now time.Time, location *time.Location) models.DaysRemaining {
	if date == "" {
		return models.DaysRemaining{Status: models.CountdownNotApplicable}
	}
	due, err := time.ParseInLocation(models.DateLayout, date, location)
	if err != nil {
		return models.DaysRemaining{Status: models.CountdownError}
	}
	local := now.In(location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	target := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)

	days := int(target.Sub(today).Hours() / 24)
	switch {
	case days > 0:
		return models.DaysRemaining{Status: models.CountdownDays, Days: days}
	case days == 0:
		return models.DaysRemaining{Status: models.CountdownToday}
	default:
		return models.DaysRemaining{Status: models.CountdownOverdue}
	}
}
