package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/service"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

type attachmentOpener interface {
	Open(ctx context.Context, token string) (*service.AttachmentDownload, error)
}

// AttachmentHandler serves proof-of-payment files behind signed links.
type AttachmentHandler struct {
	service attachmentOpener
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(service attachmentOpener) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Download godoc
// @Summary Download a proof-of-payment file
// @Tags Dashboard
// @Produce octet-stream
// @Param token query string true "Signed token from the dashboard attachment_url"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/attachments/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	download, err := h.service.Open(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	response.Inline(c, download.Filename, download.ContentType, download.Size, download.File)
}
