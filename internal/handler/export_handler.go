package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

type admissionExporter interface {
	Export(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams admission reports.
type ExportHandler struct {
	service admissionExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service admissionExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Admissions godoc
// @Summary Export admissions
// @Tags Dashboard
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/admissions/export [get]
func (h *ExportHandler) Admissions(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}
