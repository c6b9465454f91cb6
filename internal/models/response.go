package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// QueryResponse is returned by POST /api/v1/query
type QueryResponse struct {
	Answer    string                 `json:"answer"`
	Sources   []Source               `json:"sources"`
	SessionID string                 `json:"session_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CourseStatsResponse is returned by GET /api/v1/courses
type CourseStatsResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}
