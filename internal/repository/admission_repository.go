package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-admissions/internal/models"
)

const admissionSchema = `CREATE TABLE IF NOT EXISTS admissions (
	seq               BIGSERIAL PRIMARY KEY,
	id                TEXT NOT NULL UNIQUE,
	schema_version    INTEGER NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	student_name      TEXT NOT NULL,
	parent_name       TEXT NOT NULL,
	phone_number      TEXT NOT NULL,
	email             TEXT NOT NULL,
	course_id         TEXT NOT NULL,
	course_name       TEXT NOT NULL DEFAULT '',
	fixed_fee         DOUBLE PRECISION NOT NULL,
	amount_paid       DOUBLE PRECISION NOT NULL,
	remaining_balance DOUBLE PRECISION NOT NULL,
	next_payment_date DATE,
	attachment_path   TEXT NOT NULL,
	attachment_mime   TEXT NOT NULL DEFAULT '',
	attachment_size   BIGINT NOT NULL DEFAULT 0
)`

// AdmissionRepository persists admissions in PostgreSQL. Insertion order is
// the seq column.
type AdmissionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db, now: time.Now}
}

// EnsureSchema creates the admissions table when missing.
func (r *AdmissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, admissionSchema); err != nil {
		return fmt.Errorf("ensure admissions schema: %w", err)
	}
	return nil
}

// Append inserts one record, filling ID, CreatedAt and SchemaVersion when empty.
func (r *AdmissionRepository) Append(ctx context.Context, record *models.AdmissionRecord) error {
	if record == nil {
		return fmt.Errorf("append admission: nil record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now().UTC()
	}
	if record.SchemaVersion == 0 {
		record.SchemaVersion = models.AdmissionSchemaVersion
	}

	const query = `INSERT INTO admissions
	(id, schema_version, created_at, student_name, parent_name, phone_number, email, course_id, course_name,
	 fixed_fee, amount_paid, remaining_balance, next_payment_date, attachment_path, attachment_mime, attachment_size)
	VALUES (:id, :schema_version, :created_at, :student_name, :parent_name, :phone_number, :email, :course_id, :course_name,
	 :fixed_fee, :amount_paid, :remaining_balance, CAST(NULLIF(:next_payment_date, '') AS DATE), :attachment_path, :attachment_mime, :attachment_size)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert admission: %w", err)
	}
	return nil
}

// LoadAll returns every record in insertion order.
func (r *AdmissionRepository) LoadAll(ctx context.Context) ([]models.AdmissionRecord, error) {
	const query = `SELECT id, schema_version, created_at, student_name, parent_name, phone_number, email,
       course_id, course_name, fixed_fee, amount_paid, remaining_balance,
       COALESCE(to_char(next_payment_date, 'YYYY-MM-DD'), '') AS next_payment_date,
       attachment_path, attachment_mime, attachment_size
	FROM admissions ORDER BY seq ASC`
	records := make([]models.AdmissionRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("load admissions: %w", err)
	}
	return records, nil
}

// Ping checks database connectivity.
func (r *AdmissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
