package tools_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/coursemind/coursemind/internal/models"
	"github.com/coursemind/coursemind/internal/tools"
)

// fakeStore scripts the store behaviour for tool tests and records
// how often each entry point was hit.
type fakeStore struct {
	searchResults models.SearchResults
	searchCalls   int
	lastQuery     string
	lastCourse    string
	lastLesson    *int

	resolved    string
	resolveErr  error
	catalog     []models.Course
	catalogErr  error
	lessonLinks map[string]string // "title/number" -> url
}

func (f *fakeStore) Search(_ context.Context, query, courseName string, lessonNumber *int) models.SearchResults {
	f.searchCalls++
	f.lastQuery = query
	f.lastCourse = courseName
	f.lastLesson = lessonNumber
	return f.searchResults
}

func (f *fakeStore) ResolveCourseName(_ context.Context, name string) (string, error) {
	return f.resolved, f.resolveErr
}

func (f *fakeStore) GetAllCoursesMetadata(_ context.Context) ([]models.Course, error) {
	return f.catalog, f.catalogErr
}

func (f *fakeStore) GetLessonLink(_ context.Context, title string, number int) string {
	return f.lessonLinks[fmt.Sprintf("%s/%d", title, number)]
}

func intPtr(n int) *int { return &n }

func TestSearchToolFormatsPassages(t *testing.T) {
	store := &fakeStore{
		searchResults: models.SearchResults{
			Documents: []string{"Photosynthesis converts light.", "Chlorophyll absorbs photons."},
			Metadata: []models.ChunkMetadata{
				{CourseTitle: "Intro Biology", LessonNumber: intPtr(3)},
				{CourseTitle: "Intro Biology", LessonNumber: intPtr(4)},
			},
		},
		lessonLinks: map[string]string{"Intro Biology/3": "https://example.com/bio/3"},
	}
	tool := tools.NewCourseSearchTool(store)

	res, err := tool.Execute(context.Background(), map[string]interface{}{"query": "photosynthesis"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !strings.Contains(res.Content, "[Intro Biology - Lesson 3]\nPhotosynthesis converts light.") {
		t.Errorf("missing first formatted passage:\n%s", res.Content)
	}
	if !strings.Contains(res.Content, "[Intro Biology - Lesson 4]\nChlorophyll absorbs photons.") {
		t.Errorf("missing second formatted passage:\n%s", res.Content)
	}

	if len(res.Sources) != 2 {
		t.Fatalf("got %d sources, want one per passage (2)", len(res.Sources))
	}
	if res.Sources[0].Text != "Intro Biology - Lesson 3" {
		t.Errorf("source text = %q", res.Sources[0].Text)
	}
	if res.Sources[0].URL != "https://example.com/bio/3" {
		t.Errorf("source url = %q", res.Sources[0].URL)
	}
	if res.Sources[1].URL != "" {
		t.Errorf("lesson without a catalog link should have empty URL, got %q", res.Sources[1].URL)
	}
}

func TestSearchToolEmptyResultsEchoFilters(t *testing.T) {
	cases := []struct {
		name  string
		input map[string]interface{}
		want  string
	}{
		{
			name:  "no filters",
			input: map[string]interface{}{"query": "q"},
			want:  "No relevant content found.",
		},
		{
			name:  "course filter",
			input: map[string]interface{}{"query": "q", "course_name": "Biology"},
			want:  "No relevant content found in course 'Biology'.",
		},
		{
			name:  "course and lesson filter",
			input: map[string]interface{}{"query": "q", "course_name": "Biology", "lesson_number": float64(9)},
			want:  "No relevant content found in course 'Biology' in lesson 9.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tool := tools.NewCourseSearchTool(&fakeStore{})
			res, err := tool.Execute(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Content != tc.want {
				t.Errorf("Content = %q, want %q", res.Content, tc.want)
			}
			if len(res.Sources) != 0 {
				t.Errorf("empty result must carry no sources, got %d", len(res.Sources))
			}
		})
	}
}

func TestSearchToolSurfacesStoreErrors(t *testing.T) {
	store := &fakeStore{
		searchResults: models.SearchResults{Error: "No course found matching 'Quantum Baking'"},
	}
	tool := tools.NewCourseSearchTool(store)

	res, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":       "ovens",
		"course_name": "Quantum Baking",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Content != "No course found matching 'Quantum Baking'" {
		t.Errorf("Content = %q, want the store error verbatim", res.Content)
	}
}

func TestSearchToolPassesFiltersThrough(t *testing.T) {
	store := &fakeStore{}
	tool := tools.NewCourseSearchTool(store)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":         "agents",
		"course_name":   "MCP",
		"lesson_number": float64(4),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if store.lastQuery != "agents" || store.lastCourse != "MCP" {
		t.Errorf("store got query=%q course=%q", store.lastQuery, store.lastCourse)
	}
	if store.lastLesson == nil || *store.lastLesson != 4 {
		t.Errorf("store got lesson %v, want 4", store.lastLesson)
	}
}
