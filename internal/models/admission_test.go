package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmissionRecordIsFullyPaidBoundary(t *testing.T) {
	assert.True(t, AdmissionRecord{RemainingBalance: 0}.IsFullyPaid())
	assert.True(t, AdmissionRecord{RemainingBalance: 0.005}.IsFullyPaid())
	assert.True(t, AdmissionRecord{RemainingBalance: 0.01}.IsFullyPaid())
	assert.False(t, AdmissionRecord{RemainingBalance: 0.02}.IsFullyPaid())
}

func TestAdmissionRecordUnmarshalLegacyFields(t *testing.T) {
	raw := `{
		"timestamp": "2025-10-25 14:30:00",
		"id": "adm_671b9c",
		"student_name": "Ali",
		"parent_name": "Khan",
		"phone_number": "+92 300 1234567",
		"email": "a@b.com",
		"course_id": "web_dev",
		"course_name_en": "Web Development",
		"fixed_fee": 50000,
		"amount_paid": 20000,
		"remaining_balance": 30000,
		"next_payment_date": "2025-11-25",
		"screenshot_path": "uploads/screenshot_671b9c.jpg"
	}`
	var rec AdmissionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, "adm_671b9c", rec.ID)
	assert.Equal(t, 0, rec.SchemaVersion)
	assert.Equal(t, "Web Development", rec.CourseName)
	assert.Equal(t, "uploads/screenshot_671b9c.jpg", rec.AttachmentPath)
	assert.Equal(t, 2025, rec.CreatedAt.Year())
	assert.Equal(t, time.October, rec.CreatedAt.Month())
	assert.Equal(t, 30000.0, rec.RemainingBalance)
}

func TestAdmissionRecordCurrentFieldsWinOverLegacy(t *testing.T) {
	raw := `{"id":"1","attachment_path":"uploads/new.png","screenshot_path":"uploads/old.png","created_at":"2025-01-02T03:04:05Z","timestamp":"1999-01-01 00:00:00"}`
	var rec AdmissionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, "uploads/new.png", rec.AttachmentPath)
	assert.Equal(t, 2025, rec.CreatedAt.Year())
}

func TestDaysRemainingJSON(t *testing.T) {
	cases := map[string]DaysRemaining{
		`3`:         {Status: CountdownDays, Days: 3},
		`"Today"`:   {Status: CountdownToday},
		`"Overdue"`: {Status: CountdownOverdue},
		`"N/A"`:     {Status: CountdownNotApplicable},
		`"Error"`:   {Status: CountdownError},
	}
	for encoded, value := range cases {
		out, err := json.Marshal(value)
		require.NoError(t, err)
		assert.JSONEq(t, encoded, string(out))

		var decoded DaysRemaining
		require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
		assert.Equal(t, value, decoded)
	}

	var bad DaysRemaining
	require.Error(t, json.Unmarshal([]byte(`"Soon"`), &bad))
}

func TestAdmissionRecordUnmarshalStringAmounts(t *testing.T) {
	raw := `{"id":"1","fixed_fee":"75000","amount_paid":"75000.00","remaining_balance":""}`
	var rec AdmissionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, 75000.0, rec.FixedFee)
	assert.Equal(t, 75000.0, rec.AmountPaid)
	assert.Equal(t, 0.0, rec.RemainingBalance)

	require.Error(t, json.Unmarshal([]byte(`{"amount_paid":"lots"}`), &rec))
}
