package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/pkg/jobs"
)

// JobAttachmentDelete removes an attachment whose record was never stored.
// The payload is the storage name of the file.
const JobAttachmentDelete = "attachment.delete"

type attachmentRemover interface {
	Remove(name string) error
}

// NewAttachmentCleanupHandler returns the queue handler for cleanup jobs.
func NewAttachmentCleanupHandler(remover attachmentRemover, metrics *MetricsService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != JobAttachmentDelete {
			logger.Warn("dropping unknown cleanup job", zap.String("type", job.Type), zap.String("job_id", job.ID))
			return nil
		}
		if err := remover.Remove(job.Payload); err != nil {
			metrics.RecordCleanup("failed")
			return fmt.Errorf("remove attachment %s: %w", job.Payload, err)
		}
		metrics.RecordCleanup("removed")
		logger.Info("orphaned attachment removed", zap.String("file", job.Payload), zap.Int("attempt", job.Attempt))
		return nil
	}
}
