package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/dto"
	"github.com/noah-isme/academy-admissions/internal/models"
	"github.com/noah-isme/academy-admissions/internal/service"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

// formOverhead is the allowance for text fields and multipart framing on top of the file limit.
const formOverhead = 1 << 20

type admissionSubmitter interface {
	Submit(ctx context.Context, submission dto.AdmissionSubmission, file *service.UploadedFile) (*models.AdmissionRecord, error)
}

type uploadLimits interface {
	MaxFileSize() int64
	SizeLimitMessage() string
}

// AdmissionHandler accepts public admission forms.
type AdmissionHandler struct {
	service admissionSubmitter
	limits  uploadLimits
}

// NewAdmissionHandler constructs the handler.
func NewAdmissionHandler(service admissionSubmitter, limits uploadLimits) *AdmissionHandler {
	return &AdmissionHandler{service: service, limits: limits}
}

// Submit godoc
// @Summary Submit an admission form
// @Tags Admissions
// @Accept multipart/form-data
// @Produce json
// @Param student_name formData string true "Student name"
// @Param parent_name formData string true "Parent name"
// @Param phone_number formData string true "Phone number, e.g. +92 300 1234567"
// @Param email formData string true "Email"
// @Param course_id formData string true "Course ID"
// @Param total_fee formData number true "Course fee"
// @Param amount_paid formData number true "Amount paid"
// @Param remaining_balance formData number true "Remaining balance"
// @Param next_payment_date formData string false "Next payment date (YYYY-MM-DD), required while a balance remains"
// @Param payment_screenshot formData file true "Proof of payment (jpg, png or pdf)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "admission service not configured"))
		return
	}
	if h.limits != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxFileSize()+formOverhead)
	}

	var submission dto.AdmissionSubmission
	if err := c.ShouldBind(&submission); err != nil {
		if h.tooLarge(c, err) {
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission form"))
		return
	}

	var file *service.UploadedFile
	header, err := c.FormFile("payment_screenshot")
	if err != nil {
		if h.tooLarge(c, err) {
			return
		}
	} else {
		src, openErr := header.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
			return
		}
		defer src.Close()
		file = &service.UploadedFile{Filename: header.Filename, Size: header.Size, Content: src}
	}

	record, err := h.service.Submit(c.Request.Context(), submission, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.AdmissionCreatedResponse{Message: service.MsgSubmissionAccepted, Record: *record})
}

func (h *AdmissionHandler) tooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	message := appErrors.ErrPayloadTooLarge.Message
	if h.limits != nil {
		message = h.limits.SizeLimitMessage()
	}
	response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, message))
	return true
}
