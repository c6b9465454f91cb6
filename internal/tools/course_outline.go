package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coursemind/coursemind/internal/models"
)

// CourseOutlineTool returns a course's title, link, instructor and
// full lesson list.
type CourseOutlineTool struct {
	store CourseStore
}

func NewCourseOutlineTool(store CourseStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() Definition {
	return Definition{
		Name:        "get_course_outline",
		Description: "Get course outline including title, course link, and complete lesson list with numbers and titles",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title or partial course name to get outline for (e.g., 'MCP', 'Introduction')",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, input map[string]interface{}) (Result, error) {
	courseName, _ := input["course_name"].(string)

	title, err := t.store.ResolveCourseName(ctx, courseName)
	if err != nil {
		return Result{Content: fmt.Sprintf("Search error: %v", err)}, nil
	}
	if title == "" {
		return Result{Content: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
	}

	courses, err := t.store.GetAllCoursesMetadata(ctx)
	if err != nil {
		return Result{Content: fmt.Sprintf("Search error: %v", err)}, nil
	}

	var course *models.Course
	for i := range courses {
		if courses[i].Title == title {
			course = &courses[i]
			break
		}
	}
	// Resolution succeeded but the catalog has no record: the catalog
	// and the index disagree.
	if course == nil {
		return Result{Content: fmt.Sprintf("Course metadata not found for '%s'", title)}, nil
	}

	return t.formatOutline(course), nil
}

func (t *CourseOutlineTool) formatOutline(course *models.Course) Result {
	var parts []string

	parts = append(parts, fmt.Sprintf("**%s**", course.Title))
	if course.CourseLink != "" {
		parts = append(parts, fmt.Sprintf("Course Link: %s", course.CourseLink))
	}
	if course.Instructor != "" {
		parts = append(parts, fmt.Sprintf("Instructor: %s", course.Instructor))
	}

	if len(course.Lessons) > 0 {
		lessons := make([]models.Lesson, len(course.Lessons))
		copy(lessons, course.Lessons)
		sort.Slice(lessons, func(i, j int) bool {
			return lessons[i].Number < lessons[j].Number
		})

		parts = append(parts, fmt.Sprintf("\n**Lessons (%d total):**", len(lessons)))
		for _, l := range lessons {
			lt := l.Title
			if lt == "" {
				lt = "Untitled Lesson"
			}
			parts = append(parts, fmt.Sprintf("%d. %s", l.Number, lt))
		}
	} else {
		parts = append(parts, "\n**Lessons:** No lessons available")
	}

	return Result{
		Content: strings.Join(parts, "\n"),
		Sources: []models.Source{{Text: course.Title, URL: course.CourseLink}},
	}
}
