package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/export"
)

// ExportFormat names a supported export encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatPDF:
		return "application/pdf"
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ParseExportFormat maps a query value to a format; empty means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ExportFormatCSV, nil
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
		return f, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// ExportResult is a rendered export ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

var exportHeaders = []string{
	"Submitted", "ID", "Student", "Parent", "Phone", "Email", "Course",
	"Fee", "Paid", "Balance", "Next Payment", "Days Remaining", "Attachment",
}

// ExportService renders the dashboard view as CSV, PDF or XLSX.
type ExportService struct {
	dashboard *DashboardService
	csv       tableRenderer
	xlsx      tableRenderer
	pdf       titledRenderer
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the default renderers.
func NewExportService(dashboard *DashboardService, location *time.Location, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &ExportService{
		dashboard: dashboard,
		csv:       export.NewCSVExporter(),
		xlsx:      export.NewXLSXExporter("Admissions"),
		pdf:       export.NewPDFExporter(),
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// Export renders every admission, newest first, in the requested format.
func (s *ExportService) Export(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	derived, _, err := s.dashboard.Overview(ctx)
	if err != nil {
		return nil, err
	}
	dataset := BuildAdmissionsDataset(derived, s.location)

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Admissions Report")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("admissions_%s.%s", s.now().In(s.location).Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

// BuildAdmissionsDataset flattens aggregator output into export rows.
func BuildAdmissionsDataset(derived models.DerivedStats, location *time.Location) export.Dataset {
	if location == nil {
		location = time.UTC
	}
	rows := make([]export.Row, 0, len(derived.Entries))
	for _, entry := range derived.Entries {
		rec := entry.Record
		submitted := ""
		if !rec.CreatedAt.IsZero() {
			submitted = rec.CreatedAt.In(location).Format("2006-01-02 15:04")
		}
		course := rec.CourseName
		if course == "" {
			course = rec.CourseID
		}
		rows = append(rows, export.Row{
			Text: map[string]string{
				"Submitted":      submitted,
				"ID":             rec.ID,
				"Student":        rec.StudentName,
				"Parent":         rec.ParentName,
				"Phone":          rec.PhoneNumber,
				"Email":          rec.Email,
				"Course":         course,
				"Next Payment":   rec.NextPaymentDate,
				"Days Remaining": entry.DaysRemaining.String(),
				"Attachment":     rec.AttachmentPath,
			},
			Numeric: map[string]float64{
				"Fee":     rec.FixedFee,
				"Paid":    rec.AmountPaid,
				"Balance": rec.RemainingBalance,
			},
		})
	}
	stats := derived.Stats
	return export.Dataset{
		Headers: exportHeaders,
		Rows:    rows,
		Summary: []export.SummaryLine{
			{Label: "Total Admissions", Value: fmt.Sprintf("%d", stats.TotalAdmissions)},
			{Label: "Total Paid (PKR)", Value: export.FormatAmount(stats.TotalPaid)},
			{Label: "Remaining Balance (PKR)", Value: export.FormatAmount(stats.TotalDue)},
			{Label: "Fully Paid", Value: fmt.Sprintf("%d", stats.FullyPaidCount)},
			{Label: "Overdue", Value: fmt.Sprintf("%d", stats.OverdueCount)},
		},
	}
}
