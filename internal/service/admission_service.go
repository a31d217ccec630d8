package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/dto"
	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/jobs"
)

// MsgFormHasErrors heads the list of validation messages.
const MsgFormHasErrors = "The form contains errors. Please correct the following issues."

// AdmissionStore persists admission records in insertion order.
type AdmissionStore interface {
	LoadAll(ctx context.Context) ([]models.AdmissionRecord, error)
	Append(ctx context.Context, record *models.AdmissionRecord) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AdmissionService runs the submission workflow: validate, check the file,
// store the file, append the record, and undo the file on append failure.
type AdmissionService struct {
	validator *AdmissionValidator
	uploads   *UploadService
	store     AdmissionStore
	cache     *CacheService
	metrics   *MetricsService
	cleanup   jobEnqueuer
	logger    *zap.Logger

	// generation counts successful appends; a cached snapshot is only kept
	// when no append landed while it was being loaded or written.
	generation atomic.Uint64
}

// NewAdmissionService wires the workflow. cache, metrics and cleanup may be nil.
func NewAdmissionService(validator *AdmissionValidator, uploads *UploadService, store AdmissionStore, cache *CacheService, metrics *MetricsService, cleanup jobEnqueuer, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		validator: validator,
		uploads:   uploads,
		store:     store,
		cache:     cache,
		metrics:   metrics,
		cleanup:   cleanup,
		logger:    logger,
	}
}

// Submit validates and persists one admission. Nothing is stored unless every
// check passes.
func (s *AdmissionService) Submit(ctx context.Context, submission dto.AdmissionSubmission, file *UploadedFile) (*models.AdmissionRecord, error) {
	record, messages := s.validator.Validate(submission)
	checked, uploadErr := s.uploads.Check(file)

	if uploadErr != nil && !isClientUploadError(uploadErr) {
		s.metrics.RecordSubmission(OutcomeStoreFailed)
		return nil, uploadErr
	}
	if len(messages) > 0 {
		if uploadErr != nil {
			messages = append(messages, appErrors.FromError(uploadErr).Message)
		}
		s.metrics.RecordSubmission(OutcomeInvalid)
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, MsgFormHasErrors), messages)
	}
	if uploadErr != nil {
		s.metrics.RecordSubmission(OutcomeUploadRefused)
		return nil, uploadErr
	}

	stored, err := s.uploads.Store(checked)
	if err != nil {
		if isClientUploadError(err) {
			s.metrics.RecordSubmission(OutcomeUploadRefused)
		} else {
			s.metrics.RecordSubmission(OutcomeStoreFailed)
			s.logger.Error("failed to store attachment", zap.Error(err))
		}
		return nil, err
	}
	s.metrics.ObserveUpload(stored.Size)

	record.AttachmentPath = stored.RelativePath
	record.AttachmentMIME = stored.MIMEType
	record.AttachmentSize = stored.Size

	start := time.Now()
	err = s.store.Append(ctx, record)
	s.metrics.ObserveStore("append", time.Since(start))
	if err != nil {
		s.logger.Error("failed to append admission record",
			zap.String("attachment", stored.RelativePath), zap.Error(err))
		s.discardAttachment(stored.Name)
		s.metrics.RecordSubmission(OutcomeStoreFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, MsgStorageFailed)
	}

	s.generation.Add(1)
	s.cache.Invalidate(ctx, CacheKeyAdmissionRecords)
	s.metrics.RecordSubmission(OutcomeAccepted)
	s.logger.Info("admission stored",
		zap.String("admission_id", record.ID),
		zap.String("course_id", record.CourseID),
		zap.Float64("remaining_balance", record.RemainingBalance))
	return record, nil
}

// LoadRecords returns every stored record in insertion order, served from the
// cache when possible. The bool reports a cache hit.
func (s *AdmissionService) LoadRecords(ctx context.Context) ([]models.AdmissionRecord, bool, error) {
	var cached []models.AdmissionRecord
	if s.cache.Get(ctx, CacheKeyAdmissionRecords, &cached) {
		return cached, true, nil
	}

	generation := s.generation.Load()
	start := time.Now()
	records, err := s.store.LoadAll(ctx)
	s.metrics.ObserveStore("load", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admissions")
	}
	if s.generation.Load() != generation {
		return records, false, nil
	}
	s.cache.Set(ctx, CacheKeyAdmissionRecords, records, 0)
	if s.generation.Load() != generation {
		s.logger.Debug("admission appended during cache fill, dropping snapshot")
		s.cache.Invalidate(ctx, CacheKeyAdmissionRecords)
	}
	return records, false, nil
}

func (s *AdmissionService) discardAttachment(name string) {
	err := s.uploads.Remove(name)
	if err == nil {
		return
	}
	s.logger.Warn("failed to remove orphaned attachment, scheduling cleanup", zap.String("file", name), zap.Error(err))
	if s.cleanup == nil {
		s.logger.Error("orphaned attachment left on disk", zap.String("file", name))
		return
	}
	if qErr := s.cleanup.Enqueue(jobs.Job{Type: JobAttachmentDelete, Payload: name}); qErr != nil {
		s.logger.Error("failed to schedule attachment cleanup", zap.String("file", name), zap.Error(qErr))
	}
}

func isClientUploadError(err error) bool {
	return errors.Is(err, appErrors.ErrUpload) || errors.Is(err, appErrors.ErrPayloadTooLarge)
}
