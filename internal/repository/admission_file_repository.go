package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/models"
)

// ErrStoreBusy is returned when the write lock cannot be acquired in time.
var ErrStoreBusy = errors.New("admission store busy")

// AdmissionFileRepository stores admissions as one pretty-printed JSON array.
//
// Appends are read-modify-write of the whole file. Writers are serialised per
// instance through a one-slot semaphore so concurrent submissions cannot lose
// each other's records, and each rewrite goes through a temp file and rename so
// readers never observe a half-written array. Separate processes sharing the
// same file are not coordinated.
type AdmissionFileRepository struct {
	path         string
	writeTimeout time.Duration
	lock         chan struct{}
	logger       *zap.Logger
	now          func() time.Time
}

// NewAdmissionFileRepository prepares the data directory and returns the store.
func NewAdmissionFileRepository(path string, writeTimeout time.Duration, logger *zap.Logger) (*AdmissionFileRepository, error) {
	if path == "" {
		path = "./data/admissions.json"
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &AdmissionFileRepository{
		path:         path,
		writeTimeout: writeTimeout,
		lock:         make(chan struct{}, 1),
		logger:       logger,
		now:          time.Now,
	}, nil
}

// LoadAll returns every stored record in insertion order. A missing or empty
// file is an empty collection. An unparseable file is moved aside and also
// yields an empty collection.
func (r *AdmissionFileRepository) LoadAll(ctx context.Context) ([]models.AdmissionRecord, error) {
	records, err := r.read()
	if err == nil {
		return records, nil
	}
	var corrupt *corruptStoreError
	if !errors.As(err, &corrupt) {
		return nil, err
	}
	if lockErr := r.acquire(ctx); lockErr != nil {
		r.logger.Error("admission store unreadable and busy", zap.String("path", r.path), zap.Error(err))
		return []models.AdmissionRecord{}, nil
	}
	defer r.release()
	// Re-read under the lock: a writer may have replaced the file meanwhile.
	records, err = r.read()
	if err == nil {
		return records, nil
	}
	if !errors.As(err, &corrupt) {
		return nil, err
	}
	_ = r.quarantine(corrupt)
	return []models.AdmissionRecord{}, nil
}

// Append adds record at the end of the collection and rewrites the file.
// ID, CreatedAt and SchemaVersion are filled in when empty.
func (r *AdmissionFileRepository) Append(ctx context.Context, record *models.AdmissionRecord) error {
	if record == nil {
		return fmt.Errorf("append admission: nil record")
	}
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	records, err := r.read()
	if err != nil {
		var corrupt *corruptStoreError
		if !errors.As(err, &corrupt) {
			return err
		}
		// Never overwrite data that could not be moved aside.
		if qErr := r.quarantine(corrupt); qErr != nil {
			return qErr
		}
		records = []models.AdmissionRecord{}
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

	records = append(records, *record)
	return r.write(records)
}

// Ping checks that the data directory is still present.
func (r *AdmissionFileRepository) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(r.path))
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", filepath.Dir(r.path))
	}
	return nil
}

type corruptStoreError struct {
	err error
}

func (e *corruptStoreError) Error() string {
	return fmt.Sprintf("admission store corrupted: %v", e.err)
}

func (e *corruptStoreError) Unwrap() error {
	return e.err
}

func (r *AdmissionFileRepository) acquire(ctx context.Context) error {
	timer := time.NewTimer(r.writeTimeout)
	defer timer.Stop()
	select {
	case r.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire admission store lock: %w", ctx.Err())
	case <-timer.C:
		return ErrStoreBusy
	}
}

func (r *AdmissionFileRepository) release() {
	<-r.lock
}

func (r *AdmissionFileRepository) read() ([]models.AdmissionRecord, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.AdmissionRecord{}, nil
		}
		return nil, fmt.Errorf("read admission store: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []models.AdmissionRecord{}, nil
	}
	var records []models.AdmissionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &corruptStoreError{err: err}
	}
	if records == nil {
		records = []models.AdmissionRecord{}
	}
	return records, nil
}

func (r *AdmissionFileRepository) write(records []models.AdmissionRecord) error {
	payload, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode admissions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".admissions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp admission store: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("write admission store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return fmt.Errorf("sync admission store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close admission store: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod admission store: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace admission store: %w", err)
	}
	return nil
}

func (r *AdmissionFileRepository) quarantine(cause *corruptStoreError) error {
	target := fmt.Sprintf("%s.corrupt-%s", r.path, r.now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(r.path, target); err != nil {
		r.logger.Error("failed to quarantine corrupted admission store",
			zap.String("path", r.path), zap.NamedError("cause", cause), zap.Error(err))
		return fmt.Errorf("quarantine admission store: %w", err)
	}
	r.logger.Error("admission store corrupted; moved aside and starting empty",
		zap.String("path", r.path), zap.String("quarantined_to", target), zap.NamedError("cause", cause))
	return nil
}
