package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
)

type recordsLoaderStub struct {
	records []models.AdmissionRecord
	hit     bool
	err     error
}

func (s *recordsLoaderStub) LoadRecords(ctx context.Context) ([]models.AdmissionRecord, bool, error) {
	return s.records, s.hit, s.err
}

func karachi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		return time.FixedZone("PKT", 5*60*60)
	}
	return loc
}

func TestDaysUntil(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 10, 25, 15, 30, 0, 0, loc)

	cases := map[string]models.DaysRemaining{
		"2025-10-26": {Status: models.CountdownDays, Days: 1},
		"2025-11-25": {Status: models.CountdownDays, Days: 31},
		"2025-10-25": {Status: models.CountdownToday},
		"2025-10-24": {Status: models.CountdownOverdue},
		"":           {Status: models.CountdownNotApplicable},
		"25-10-2025": {Status: models.CountdownError},
		"2025-02-30": {Status: models.CountdownError},
	}
	for date, want := range cases {
		assert.Equal(t, want, DaysUntil(date, now, loc), date)
	}
}

func TestDaysUntilUsesConfiguredZoneCalendarDate(t *testing.T) {
	loc := karachi(t)
	// 20:30 UTC on the 25th is already the 26th in Karachi.
	now := time.Date(2025, 10, 25, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, models.DaysRemaining{Status: models.CountdownToday}, DaysUntil("2025-10-26", now, loc))
	assert.Equal(t, models.DaysRemaining{Status: models.CountdownOverdue}, DaysUntil("2025-10-25", now, loc))
}

func TestAggregateOrdersNewestFirstAndSums(t *testing.T) {
	now := time.Date(2025, 10, 25, 9, 0, 0, 0, time.UTC)
	records := []models.AdmissionRecord{
		{ID: "1", AmountPaid: 20000, RemainingBalance: 30000, NextPaymentDate: "2025-10-26"},
		{ID: "2", AmountPaid: 30000, RemainingBalance: 0.005, NextPaymentDate: ""},
		{ID: "3", AmountPaid: 10000, RemainingBalance: 0.02, NextPaymentDate: "2025-10-20"},
		{ID: "4", AmountPaid: 75000, RemainingBalance: 0, NextPaymentDate: "2025-10-01"},
	}

	derived := Aggregate(records, now, time.UTC)

	require.Len(t, derived.Entries, 4)
	assert.Equal(t, []string{"4", "3", "2", "1"}, []string{
		derived.Entries[0].Record.ID, derived.Entries[1].Record.ID,
		derived.Entries[2].Record.ID, derived.Entries[3].Record.ID,
	})
	assert.Equal(t, models.DaysRemaining{Status: models.CountdownDays, Days: 1}, derived.Entries[3].DaysRemaining)
	assert.True(t, derived.Entries[2].FullyPaid)
	assert.False(t, derived.Entries[1].FullyPaid)

	assert.Equal(t, 4, derived.Stats.TotalAdmissions)
	assert.InDelta(t, 135000, derived.Stats.TotalPaid, 1e-9)
	assert.InDelta(t, 30000.025, derived.Stats.TotalDue, 1e-9)
	assert.Equal(t, 2, derived.Stats.FullyPaidCount)
	assert.Equal(t, 1, derived.Stats.OverdueCount, "paid-off records are never overdue")

	assert.Equal(t, "1", records[0].ID, "input must not be reordered")
}

func TestAggregateIsIdempotent(t *testing.T) {
	now := time.Date(2025, 10, 25, 9, 0, 0, 0, time.UTC)
	records := []models.AdmissionRecord{
		{ID: "1", AmountPaid: 1, RemainingBalance: 2, NextPaymentDate: "2025-12-01"},
		{ID: "2", AmountPaid: 3, RemainingBalance: 4, NextPaymentDate: "bad"},
	}
	assert.Equal(t, Aggregate(records, now, time.UTC), Aggregate(records, now, time.UTC))
}

func TestAggregateEmpty(t *testing.T) {
	derived := Aggregate(nil, time.Now(), nil)
	assert.NotNil(t, derived.Entries)
	assert.Empty(t, derived.Entries)
	assert.Equal(t, models.DashboardStats{}, derived.Stats)
}

func TestDashboardServiceOverview(t *testing.T) {
	loader := &recordsLoaderStub{
		records: []models.AdmissionRecord{{ID: "a", AmountPaid: 5, RemainingBalance: 5, NextPaymentDate: "2025-10-24"}},
		hit:     true,
	}
	svc := NewDashboardService(loader, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC) }

	derived, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, derived.Stats.OverdueCount)

	loader.err = errors.New("disk gone")
	_, _, err = svc.Overview(context.Background())
	require.Error(t, err)
}

func TestDashboardServiceRecord(t *testing.T) {
	loader := &recordsLoaderStub{records: []models.AdmissionRecord{
		{ID: "a", FixedFee: 100, AmountPaid: 100},
		{ID: "b", FixedFee: 100, AmountPaid: 40, RemainingBalance: 60, NextPaymentDate: "2025-10-30"},
	}}
	svc := NewDashboardService(loader, time.UTC, nil)
	svc.now = func() time.Time { return time.Date(2025, 10, 25, 9, 0, 0, 0, time.UTC) }

	entry, err := svc.Record(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", entry.Record.ID)
	assert.False(t, entry.FullyPaid)
	assert.Equal(t, models.DaysRemaining{Status: models.CountdownDays, Days: 5}, entry.DaysRemaining)

	_, err = svc.Record(context.Background(), "zzz")
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	loader.err = errors.New("disk gone")
	_, err = svc.Record(context.Background(), "a")
	require.Error(t, err)
}
