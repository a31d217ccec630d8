package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/dto"
	"github.com/noah-isme/academy-admissions/internal/middleware"
	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (models.DerivedStats, bool, error)
	Record(ctx context.Context, id string) (models.DashboardEntry, error)
}

type attachmentLinker interface {
	URLFor(record models.AdmissionRecord) string
}

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	service dashboardService
	links   attachmentLinker
}

// NewDashboardHandler constructs the handler. links may be nil.
func NewDashboardHandler(service dashboardService, links attachmentLinker) *DashboardHandler {
	return &DashboardHandler{service: service, links: links}
}

// Admin godoc
// @Summary Admin dashboard
// @Description Every admission newest first with days remaining, plus paid and outstanding totals.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	derived, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dto.NewAdminDashboardResponse(derived, h.linkFn()), requestMeta(c, start))
}

// Record godoc
// @Summary Admission detail
// @Description One admission with its countdown and attachment link.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/admissions/{id} [get]
func (h *DashboardHandler) Record(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	entry, err := h.service.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDashboardRecord(entry, h.linkFn()))
}

func (h *DashboardHandler) linkFn() func(models.AdmissionRecord) string {
	if h.links == nil {
		return nil
	}
	return h.links.URLFor
}
