package repository

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/noah-isme/academy-admissions/internal/models"
)

// CourseCatalog is an immutable, injected course lookup. It is built once at
// start-up and shared read-only by the validator and the handlers.
type CourseCatalog struct {
	courses []models.Course
	byID    map[string]models.Course
}

// DefaultCourses returns the built-in catalog (fees in PKR).
func DefaultCourses() []models.Course {
	return []models.Course{
		{ID: "web_dev", NameEN: "Web Development", NameLocal: "ویب ڈیولپمنٹ", FixedFee: 50000},
		{ID: "mobile_app", NameEN: "Mobile App Development", NameLocal: "موبائل ایپ ڈیولپمنٹ", FixedFee: 75000},
		{ID: "graphic_design", NameEN: "Graphic Design", NameLocal: "گرافک ڈیزائن", FixedFee: 30000},
	}
}

// NewCourseCatalog validates and indexes the provided courses.
func NewCourseCatalog(courses []models.Course) (*CourseCatalog, error) {
	if len(courses) == 0 {
		return nil, fmt.Errorf("course catalog is empty")
	}
	byID := make(map[string]models.Course, len(courses))
	ordered := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		course.ID = strings.TrimSpace(course.ID)
		if course.ID == "" {
			return nil, fmt.Errorf("course without id")
		}
		if course.FixedFee < 0 {
			return nil, fmt.Errorf("course %s: negative fixed fee", course.ID)
		}
		if _, dup := byID[course.ID]; dup {
			return nil, fmt.Errorf("duplicate course id %s", course.ID)
		}
		byID[course.ID] = course
		ordered = append(ordered, course)
	}
	return &CourseCatalog{courses: ordered, byID: byID}, nil
}

// LoadCourseCatalog reads a catalog from a YAML, JSON or TOML file with a top-level
// "courses" list. An empty path yields the built-in catalog.
func LoadCourseCatalog(path string) (*CourseCatalog, error) {
	if strings.TrimSpace(path) == "" {
		return NewCourseCatalog(DefaultCourses())
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read course catalog %s: %w", path, err)
	}
	var courses []models.Course
	if err := v.UnmarshalKey("courses", &courses); err != nil {
		return nil, fmt.Errorf("decode course catalog %s: %w", path, err)
	}
	return NewCourseCatalog(courses)
}

// GetAll returns the courses in catalog order.
func (c *CourseCatalog) GetAll() []models.Course {
	out := make([]models.Course, len(c.courses))
	copy(out, c.courses)
	return out
}

// GetByID looks up one course.
func (c *CourseCatalog) GetByID(id string) (models.Course, bool) {
	course, ok := c.byID[strings.TrimSpace(id)]
	return course, ok
}
