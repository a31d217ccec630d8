package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
)

func newTestExportService() *ExportService {
	loader := &recordsLoaderStub{records: []models.AdmissionRecord{
		{ID: "1", StudentName: "Ali", CourseName: "Web Development", FixedFee: 50000, AmountPaid: 20000, RemainingBalance: 30000, NextPaymentDate: "2025-10-26"},
		{ID: "2", StudentName: "Sara", CourseID: "graphic_design", FixedFee: 30000, AmountPaid: 30000, RemainingBalance: 0},
	}}
	dashboard := NewDashboardService(loader, time.UTC, nil)
	fixed := time.Date(2025, 10, 25, 10, 0, 0, 0, time.UTC)
	dashboard.now = func() time.Time { return fixed }
	svc := NewExportService(dashboard, time.UTC, nil)
	svc.now = func() time.Time { return fixed }
	return svc
}

func TestParseExportFormat(t *testing.T) {
	for raw, want := range map[string]ExportFormat{"": ExportFormatCSV, "CSV": ExportFormatCSV, "pdf": ExportFormatPDF, " xlsx ": ExportFormatXLSX} {
		got, err := ParseExportFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseExportFormat("docx")
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceCSV(t *testing.T) {
	result, err := newTestExportService().Export(context.Background(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "admissions_20251025_100000.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(result.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "Sara", rows[1][2])
	assert.Equal(t, "graphic_design", rows[1][6])
	assert.Equal(t, "N/A", rows[1][11])
	assert.Equal(t, "Ali", rows[2][2])
	assert.Equal(t, "30000", rows[2][9])
	assert.Equal(t, "1", rows[2][11])
}

func TestExportServicePDFAndXLSX(t *testing.T) {
	svc := newTestExportService()

	pdf, err := svc.Export(context.Background(), ExportFormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Payload, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", pdf.ContentType)

	xlsx, err := svc.Export(context.Background(), ExportFormatXLSX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Payload, []byte("PK")))
}

func TestBuildAdmissionsDatasetSummary(t *testing.T) {
	derived := Aggregate([]models.AdmissionRecord{{AmountPaid: 10, RemainingBalance: 5}}, time.Now(), time.UTC)
	dataset := BuildAdmissionsDataset(derived, nil)
	require.Len(t, dataset.Summary, 5)
	assert.Equal(t, "1", dataset.Summary[0].Value)
	assert.Equal(t, "10", dataset.Summary[1].Value)
	assert.Equal(t, "5", dataset.Summary[2].Value)
}
