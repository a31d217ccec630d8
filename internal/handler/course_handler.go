package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-admissions/internal/models"
	appErrors "github.com/noah-isme/academy-admissions/pkg/errors"
	"github.com/noah-isme/academy-admissions/pkg/response"
)

type courseCatalog interface {
	GetAll() []models.Course
	GetByID(id string) (models.Course, bool)
}

// CourseHandler exposes the course catalog used by the admission form.
type CourseHandler struct {
	catalog courseCatalog
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(catalog courseCatalog) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.GetAll())
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, ok := h.catalog.GetByID(strings.TrimSpace(c.Param("id")))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
		return
	}
	response.JSON(c, http.StatusOK, course)
}
