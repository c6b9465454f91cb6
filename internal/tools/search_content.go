package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursemind/coursemind/internal/models"
)

// CourseStore is the slice of the vector store the course tools need.
type CourseStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) models.SearchResults
	ResolveCourseName(ctx context.Context, name string) (string, error)
	GetAllCoursesMetadata(ctx context.Context) ([]models.Course, error)
	GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) string
}

// CourseSearchTool searches course content with fuzzy course name
// matching and optional lesson filtering.
type CourseSearchTool struct {
	store CourseStore
}

func NewCourseSearchTool(store CourseStore) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]interface{}{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, input map[string]interface{}) (Result, error) {
	query, _ := input["query"].(string)
	courseName, _ := input["course_name"].(string)

	var lessonNumber *int
	if n, ok := input["lesson_number"].(float64); ok {
		ln := int(n)
		lessonNumber = &ln
	}

	results := t.store.Search(ctx, query, courseName, lessonNumber)

	// Backend and resolution failures are surfaced verbatim so the
	// model can acknowledge them.
	if results.Error != "" {
		return Result{Content: results.Error}, nil
	}

	if results.IsEmpty() {
		filterInfo := ""
		if courseName != "" {
			filterInfo += fmt.Sprintf(" in course '%s'", courseName)
		}
		if lessonNumber != nil {
			filterInfo += fmt.Sprintf(" in lesson %d", *lessonNumber)
		}
		return Result{Content: fmt.Sprintf("No relevant content found%s.", filterInfo)}, nil
	}

	return t.formatResults(ctx, results), nil
}

func (t *CourseSearchTool) formatResults(ctx context.Context, results models.SearchResults) Result {
	var formatted []string
	var sources []models.Source

	for i, doc := range results.Documents {
		meta := results.Metadata[i]

		header := "[" + meta.CourseTitle
		sourceText := meta.CourseTitle
		if meta.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
			sourceText += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
		}
		header += "]"

		var link string
		if meta.LessonNumber != nil {
			link = t.store.GetLessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
		}

		sources = append(sources, models.Source{Text: sourceText, URL: link})
		formatted = append(formatted, header+"\n"+doc)
	}

	return Result{
		Content: strings.Join(formatted, "\n\n"),
		Sources: sources,
	}
}
