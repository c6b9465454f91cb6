package handler

import (
	"context"
	"net/http"

	"github.com/coursemind/coursemind/internal/models"
)

// CatalogReader lists the course catalog for the stats endpoint.
type CatalogReader interface {
	CourseTitles(ctx context.Context) ([]string, error)
}

// CoursesHandler handles GET /api/v1/courses
type CoursesHandler struct {
	catalog CatalogReader
}

func NewCoursesHandler(catalog CatalogReader) *CoursesHandler {
	return &CoursesHandler{catalog: catalog}
}

// Courses handles GET /api/v1/courses
func (h *CoursesHandler) Courses(w http.ResponseWriter, r *http.Request) {
	titles, err := h.catalog.CourseTitles(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to load course catalog: "+err.Error())
		return
	}
	if titles == nil {
		titles = []string{}
	}
	models.WriteJSON(w, http.StatusOK, models.CourseStatsResponse{
		TotalCourses: len(titles),
		CourseTitles: titles,
	})
}
