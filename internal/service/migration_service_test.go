package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/models"
	"github.com/noah-isme/academy-admissions/internal/repository"
)

func newMigrationStore(t *testing.T, name string) *repository.AdmissionFileRepository {
	t.Helper()
	repo, err := repository.NewAdmissionFileRepository(filepath.Join(t.TempDir(), name), time.Second, nil)
	require.NoError(t, err)
	return repo
}

func TestMigrateAdmissionsPreservesOrder(t *testing.T) {
	ctx := context.Background()
	src := newMigrationStore(t, "src.json")
	dst := newMigrationStore(t, "dst.json")
	for _, name := range []string{"Ali", "Sara", "Omar"} {
		require.NoError(t, src.Append(ctx, &models.AdmissionRecord{StudentName: name, FixedFee: 30000, AmountPaid: 30000}))
	}

	result, err := MigrateAdmissions(ctx, src, dst, false, nil)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{Read: 3, Written: 3}, result)

	want, err := src.LoadAll(ctx)
	require.NoError(t, err)
	got, err := dst.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].StudentName, got[i].StudentName)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}
}

func TestMigrateAdmissionsRefusesNonEmptyDestination(t *testing.T) {
	ctx := context.Background()
	src := newMigrationStore(t, "src.json")
	dst := newMigrationStore(t, "dst.json")
	require.NoError(t, src.Append(ctx, &models.AdmissionRecord{StudentName: "Ali"}))
	require.NoError(t, dst.Append(ctx, &models.AdmissionRecord{StudentName: "Existing"}))

	_, err := MigrateAdmissions(ctx, src, dst, false, nil)
	require.Error(t, err)

	result, err := MigrateAdmissions(ctx, src, dst, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	all, err := dst.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
