package models

// Lesson is one entry in a course outline.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the catalog record for a single course.
type Course struct {
	Title      string   `json:"title"`
	CourseLink string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Source is a provenance record shown to the end user: which course
// (and lesson) backed part of an answer, with an optional deep link.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}
