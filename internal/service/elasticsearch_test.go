package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/coursemind/coursemind/internal/service"
)

// esStub fakes just enough of the Elasticsearch search API. Responses
// are keyed by index name; every call is counted so tests can assert
// which indices were (not) touched.
type esStub struct {
	t         *testing.T
	responses map[string]string // index -> response body
	status    map[string]int    // index -> status code (default 200)
	calls     map[string]*atomic.Int64
	server    *httptest.Server
}

func newESStub(t *testing.T) *esStub {
	s := &esStub{
		t:         t,
		responses: make(map[string]string),
		status:    make(map[string]int),
		calls:     map[string]*atomic.Int64{},
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		index := parts[0]
		if c, ok := s.calls[index]; ok {
			c.Add(1)
		}
		if code, ok := s.status[index]; ok && code != 200 {
			w.WriteHeader(code)
			fmt.Fprint(w, `{"error":{"type":"search_phase_execution_exception","reason":"boom"}}`)
			return
		}
		body, ok := s.responses[index]
		if !ok {
			body = `{"hits":{"total":{"value":0},"hits":[]}}`
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *esStub) respond(index, body string) {
	s.responses[index] = body
	s.calls[index] = &atomic.Int64{}
}

func (s *esStub) fail(index string, code int) {
	s.status[index] = code
	if _, ok := s.calls[index]; !ok {
		s.calls[index] = &atomic.Int64{}
	}
}

func (s *esStub) callCount(index string) int64 {
	if c, ok := s.calls[index]; ok {
		return c.Load()
	}
	return 0
}

func (s *esStub) store(t *testing.T, maxResults int) *service.CourseStore {
	t.Helper()
	u, err := url.Parse(s.server.URL)
	if err != nil {
		t.Fatalf("parse stub url: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	st, err := service.NewCourseStore(service.StoreConfig{
		Scheme:       "http",
		Host:         u.Hostname(),
		Port:         port,
		VerifyCerts:  true,
		ChunkIndex:   "course-chunks",
		CatalogIndex: "course-catalog",
		MaxResults:   maxResults,
	})
	if err != nil {
		t.Fatalf("NewCourseStore: %v", err)
	}
	return st
}

func catalogHit(title string) string {
	return fmt.Sprintf(`{"hits":{"total":{"value":1},"hits":[{"_score":0.93,"_source":{"title":%q}}]}}`, title)
}

func TestNewCourseStoreRejectsZeroMaxResults(t *testing.T) {
	_, err := service.NewCourseStore(service.StoreConfig{
		Scheme: "http", Host: "localhost", Port: 9200,
		ChunkIndex: "c", CatalogIndex: "m",
		MaxResults: 0,
	})
	if err == nil {
		t.Fatal("MaxResults=0 must be rejected at construction")
	}
}

func TestResolveCourseNameExactTitle(t *testing.T) {
	stub := newESStub(t)
	stub.respond("course-catalog", catalogHit("Introduction to Machine Learning"))
	store := stub.store(t, 5)

	got, err := store.ResolveCourseName(context.Background(), "Introduction to Machine Learning")
	if err != nil {
		t.Fatalf("ResolveCourseName: %v", err)
	}
	if got != "Introduction to Machine Learning" {
		t.Errorf("resolved title = %q, want it unchanged", got)
	}
}

func TestResolveCourseNameNoMatch(t *testing.T) {
	stub := newESStub(t)
	stub.respond("course-catalog", `{"hits":{"total":{"value":0},"hits":[]}}`)
	store := stub.store(t, 5)

	got, err := store.ResolveCourseName(context.Background(), "Underwater Basket Weaving")
	if err != nil {
		t.Fatalf("ResolveCourseName: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty resolution, got %q", got)
	}
}

func TestSearchUnresolvableCourseShortCircuits(t *testing.T) {
	stub := newESStub(t)
	stub.respond("course-catalog", `{"hits":{"total":{"value":0},"hits":[]}}`)
	stub.respond("course-chunks", `{"hits":{"total":{"value":0},"hits":[]}}`)
	store := stub.store(t, 5)

	res := store.Search(context.Background(), "anything", "Nonexistent Course", nil)
	if !strings.Contains(res.Error, "No course found matching 'Nonexistent Course'") {
		t.Errorf("Error = %q, want a no-course-found message", res.Error)
	}
	if got := stub.callCount("course-chunks"); got != 0 {
		t.Errorf("chunk index was searched %d times, want 0 after failed resolution", got)
	}
}

func TestSearchReturnsRankedPassages(t *testing.T) {
	stub := newESStub(t)
	stub.respond("course-chunks", `{"hits":{"total":{"value":2},"hits":[
		{"_score":0.9,"_source":{"content":"Photosynthesis converts light.","course_title":"Intro Biology","lesson_number":3}},
		{"_score":0.7,"_source":{"content":"Chlorophyll absorbs photons.","course_title":"Intro Biology","lesson_number":4}}
	]}}`)
	store := stub.store(t, 5)

	res := store.Search(context.Background(), "photosynthesis", "", nil)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Documents) != 2 || len(res.Metadata) != 2 {
		t.Fatalf("got %d docs / %d metadata, want 2/2", len(res.Documents), len(res.Metadata))
	}
	if res.Documents[0] != "Photosynthesis converts light." {
		t.Errorf("rank order not preserved: first doc = %q", res.Documents[0])
	}
	if res.Metadata[0].CourseTitle != "Intro Biology" {
		t.Errorf("CourseTitle = %q", res.Metadata[0].CourseTitle)
	}
	if res.Metadata[0].LessonNumber == nil || *res.Metadata[0].LessonNumber != 3 {
		t.Errorf("LessonNumber = %v, want 3", res.Metadata[0].LessonNumber)
	}
}

func TestSearchBackendErrorIsSurfaced(t *testing.T) {
	stub := newESStub(t)
	stub.fail("course-chunks", http.StatusInternalServerError)
	store := stub.store(t, 5)

	res := store.Search(context.Background(), "anything", "", nil)
	if res.Error == "" {
		t.Fatal("backend failure must surface in SearchResults.Error")
	}
	if !strings.HasPrefix(res.Error, "Search error:") {
		t.Errorf("Error = %q, want a Search error prefix", res.Error)
	}
	if !res.IsEmpty() {
		t.Error("errored result should carry no documents")
	}
}

func TestGetAllCoursesMetadataAndLessonLink(t *testing.T) {
	stub := newESStub(t)
	catalog := map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": 1},
			"hits": []map[string]interface{}{{
				"_score": 1.0,
				"_source": map[string]interface{}{
					"title":       "Intro Biology",
					"course_link": "https://example.com/bio",
					"instructor":  "Dr. Vance",
					"lessons": []map[string]interface{}{
						{"lesson_number": 1, "lesson_title": "Cells", "lesson_link": "https://example.com/bio/1"},
						{"lesson_number": 2, "lesson_title": "Photosynthesis"},
					},
				},
			}},
		},
	}
	body, _ := json.Marshal(catalog)
	stub.respond("course-catalog", string(body))
	store := stub.store(t, 5)

	courses, err := store.GetAllCoursesMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetAllCoursesMetadata: %v", err)
	}
	if len(courses) != 1 || courses[0].Title != "Intro Biology" || len(courses[0].Lessons) != 2 {
		t.Fatalf("unexpected catalog: %+v", courses)
	}

	if link := store.GetLessonLink(context.Background(), "Intro Biology", 1); link != "https://example.com/bio/1" {
		t.Errorf("GetLessonLink = %q", link)
	}
	if link := store.GetLessonLink(context.Background(), "Intro Biology", 2); link != "" {
		t.Errorf("lesson without link should yield empty string, got %q", link)
	}

	// Cached: a second call must not hit Elasticsearch again.
	before := stub.callCount("course-catalog")
	if _, err := store.GetAllCoursesMetadata(context.Background()); err != nil {
		t.Fatalf("second GetAllCoursesMetadata: %v", err)
	}
	if after := stub.callCount("course-catalog"); after != before {
		t.Errorf("catalog fetched again despite cache: %d -> %d calls", before, after)
	}
}
