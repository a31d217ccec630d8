package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// AdmissionSchemaVersion is stamped on every record written by this service.
	// Records without a version were written by the legacy PHP form.
	AdmissionSchemaVersion = 1

	// PaidOffThreshold is the largest balance still treated as fully paid.
	PaidOffThreshold = 0.01

	// DateLayout is the wire format of next_payment_date.
	DateLayout = "2006-01-02"

	legacyTimestampLayout = "2006-01-02 15:04:05"
)

// AdmissionRecord is one persisted admission submission. Records are immutable once stored.
type AdmissionRecord struct {
	ID               string    `db:"id" json:"id"`
	SchemaVersion    int       `db:"schema_version" json:"schema_version"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	StudentName      string    `db:"student_name" json:"student_name"`
	ParentName       string    `db:"parent_name" json:"parent_name"`
	PhoneNumber      string    `db:"phone_number" json:"phone_number"`
	Email            string    `db:"email" json:"email"`
	CourseID         string    `db:"course_id" json:"course_id"`
	CourseName       string    `db:"course_name" json:"course_name,omitempty"`
	FixedFee         float64   `db:"fixed_fee" json:"fixed_fee"`
	AmountPaid       float64   `db:"amount_paid" json:"amount_paid"`
	RemainingBalance float64   `db:"remaining_balance" json:"remaining_balance"`
	NextPaymentDate  string    `db:"next_payment_date" json:"next_payment_date"`
	AttachmentPath   string    `db:"attachment_path" json:"attachment_path"`
	AttachmentMIME   string    `db:"attachment_mime" json:"attachment_mime,omitempty"`
	AttachmentSize   int64     `db:"attachment_size" json:"attachment_size,omitempty"`
}

// IsFullyPaid reports whether the outstanding balance is within the paid-off threshold.
func (r AdmissionRecord) IsFullyPaid() bool {
	return r.RemainingBalance <= PaidOffThreshold
}

// UnmarshalJSON also accepts the field names written by the legacy form
// (timestamp, screenshot_path, course_name_en) and amounts stored as strings.
func (r *AdmissionRecord) UnmarshalJSON(data []byte) error {
	type alias AdmissionRecord
	aux := struct {
		*alias
		FixedFee         json.RawMessage `json:"fixed_fee"`
		AmountPaid       json.RawMessage `json:"amount_paid"`
		RemainingBalance json.RawMessage `json:"remaining_balance"`
		Timestamp        string          `json:"timestamp"`
		ScreenshotPath   string          `json:"screenshot_path"`
		CourseNameEN     string          `json:"course_name_en"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if r.FixedFee, err = decodeAmount("fixed_fee", aux.FixedFee); err != nil {
		return err
	}
	if r.AmountPaid, err = decodeAmount("amount_paid", aux.AmountPaid); err != nil {
		return err
	}
	if r.RemainingBalance, err = decodeAmount("remaining_balance", aux.RemainingBalance); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() && aux.Timestamp != "" {
		if ts, err := time.ParseInLocation(legacyTimestampLayout, aux.Timestamp, time.Local); err == nil {
			r.CreatedAt = ts
		}
	}
	if r.AttachmentPath == "" {
		r.AttachmentPath = aux.ScreenshotPath
	}
	if r.CourseName == "" {
		r.CourseName = aux.CourseNameEN
	}
	return nil
}

func decodeAmount(field string, raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}
