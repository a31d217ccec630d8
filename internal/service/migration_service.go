package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MigrationResult summarises a store-to-store copy.
type MigrationResult struct {
	Read    int
	Written int
}

// MigrateAdmissions copies every record from src into dst in insertion order.
// It refuses to write into a non-empty destination unless force is set, since
// records carry no natural key to deduplicate on.
func MigrateAdmissions(ctx context.Context, src, dst AdmissionStore, force bool, logger *zap.Logger) (MigrationResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result MigrationResult

	existing, err := dst.LoadAll(ctx)
	if err != nil {
		return result, fmt.Errorf("inspect destination: %w", err)
	}
	if len(existing) > 0 && !force {
		return result, fmt.Errorf("destination already holds %d admissions", len(existing))
	}

	records, err := src.LoadAll(ctx)
	if err != nil {
		return result, fmt.Errorf("load source: %w", err)
	}
	result.Read = len(records)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record := records[i]
		if err := dst.Append(ctx, &record); err != nil {
			return result, fmt.Errorf("write admission %d (%s): %w", i+1, record.ID, err)
		}
		result.Written++
	}
	logger.Info("admissions migrated", zap.Int("read", result.Read), zap.Int("written", result.Written))
	return result, nil
}
