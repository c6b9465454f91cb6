package models

// ChunkMetadata describes where a retrieved passage came from.
type ChunkMetadata struct {
	CourseTitle  string  `json:"course_title"`
	LessonNumber *int    `json:"lesson_number,omitempty"`
	Distance     float64 `json:"distance"`
}

// SearchResults is the outcome of one semantic search. A backend or
// resolution failure is carried in Error; Documents and Metadata are
// parallel slices in ranked order.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMetadata
	Error     string
}

// IsEmpty reports whether the search matched nothing. An errored
// result is not "empty" — callers must check Error first.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}
