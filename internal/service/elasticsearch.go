package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coursemind/coursemind/internal/models"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"golang.org/x/sync/singleflight"
)

const catalogCacheTTL = 5 * time.Minute

// maxCatalogSize bounds the match_all over the catalog index. Course
// catalogs are small; anything beyond this is an ingestion defect.
const maxCatalogSize = 1000

// CourseStore is the read-side view over the semantic index: a chunk
// index holding embedded course passages and a catalog index holding
// one document per course (title, link, instructor, lessons). Writes
// happen during ingestion, out of band; this type never mutates the
// indices.
type CourseStore struct {
	client       *elasticsearch.Client
	chunkIndex   string
	catalogIndex string
	maxResults   int

	catalogMu      sync.RWMutex
	catalogCached  []models.Course
	catalogExpires time.Time
	sf             singleflight.Group // deduplicate concurrent catalog fetches
}

// StoreConfig carries the Elasticsearch connection settings plus the
// two index names and the per-search result limit.
type StoreConfig struct {
	Scheme      string
	Host        string
	Port        int
	User        string
	Password    string
	VerifyCerts bool
	MaxRetries  int

	ChunkIndex   string
	CatalogIndex string
	MaxResults   int
}

// NewCourseStore creates the store. A non-positive MaxResults is
// rejected here: a zero limit silently empties every search, which is
// indistinguishable from "no matches" at query time.
func NewCourseStore(sc StoreConfig) (*CourseStore, error) {
	if sc.MaxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", sc.MaxResults)
	}
	addr := fmt.Sprintf("%s://%s:%d", sc.Scheme, sc.Host, sc.Port)

	cfg := elasticsearch.Config{
		Addresses:  []string{addr},
		MaxRetries: sc.MaxRetries,
	}
	if sc.User != "" {
		cfg.Username = sc.User
		cfg.Password = sc.Password
	}
	if !sc.VerifyCerts {
		cfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &CourseStore{
		client:       client,
		chunkIndex:   sc.ChunkIndex,
		catalogIndex: sc.CatalogIndex,
		maxResults:   sc.MaxResults,
	}, nil
}

// MaxResults returns the configured per-search result limit.
func (s *CourseStore) MaxResults() int {
	return s.maxResults
}

// Ping checks that the cluster is reachable.
func (s *CourseStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

// ResolveCourseName maps a fuzzy course name to the single canonical
// catalog title via a top-1 semantic match. Returns "" when nothing in
// the catalog matches; a non-nil error means the backend itself failed.
func (s *CourseStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	body := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"semantic": map[string]interface{}{
				"field": "title",
				"query": name,
			},
		},
	}

	raw, err := s.search(ctx, s.catalogIndex, body)
	if err != nil {
		return "", err
	}

	hits := extractHits(raw)
	if len(hits) == 0 {
		return "", nil
	}
	src, _ := hits[0]["_source"].(map[string]interface{})
	title, _ := src["title"].(string)
	return title, nil
}

// Search runs the filtered semantic search over the chunk index. A
// course name, if given, is resolved to its canonical title first; an
// unresolvable name short-circuits without touching the chunk index.
// Failures are folded into SearchResults.Error so tools can surface
// them as text.
func (s *CourseStore) Search(ctx context.Context, query, courseName string, lessonNumber *int) models.SearchResults {
	var filters []map[string]interface{}

	if courseName != "" {
		title, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return models.SearchResults{Error: fmt.Sprintf("Search error: %v", err)}
		}
		if title == "" {
			return models.SearchResults{Error: fmt.Sprintf("No course found matching '%s'", courseName)}
		}
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"course_title.keyword": title},
		})
	}
	if lessonNumber != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"lesson_number": *lessonNumber},
		})
	}

	semantic := map[string]interface{}{
		"semantic": map[string]interface{}{
			"field": "content",
			"query": query,
		},
	}
	body := map[string]interface{}{
		"size": s.maxResults,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []map[string]interface{}{semantic},
				"filter": filters,
			},
		},
	}

	raw, err := s.search(ctx, s.chunkIndex, body)
	if err != nil {
		return models.SearchResults{Error: fmt.Sprintf("Search error: %v", err)}
	}

	var results models.SearchResults
	for _, hit := range extractHits(raw) {
		src, _ := hit["_source"].(map[string]interface{})
		if src == nil {
			continue
		}
		content, _ := src["content"].(string)

		meta := models.ChunkMetadata{}
		if title, ok := src["course_title"].(string); ok {
			meta.CourseTitle = title
		}
		if n, ok := src["lesson_number"].(float64); ok {
			ln := int(n)
			meta.LessonNumber = &ln
		}
		if score, ok := hit["_score"].(float64); ok {
			meta.Distance = 1 - score
		}

		results.Documents = append(results.Documents, content)
		results.Metadata = append(results.Metadata, meta)
	}
	return results
}

// GetAllCoursesMetadata returns every catalog record. Results are
// cached briefly and concurrent cache misses are collapsed into a
// single Elasticsearch call.
func (s *CourseStore) GetAllCoursesMetadata(ctx context.Context) ([]models.Course, error) {
	s.catalogMu.RLock()
	if s.catalogCached != nil && time.Now().Before(s.catalogExpires) {
		cached := s.catalogCached
		s.catalogMu.RUnlock()
		return cached, nil
	}
	s.catalogMu.RUnlock()

	v, err, _ := s.sf.Do("catalog", func() (interface{}, error) {
		// Double-check inside singleflight in case another goroutine
		// refreshed the cache while we waited.
		s.catalogMu.RLock()
		if s.catalogCached != nil && time.Now().Before(s.catalogExpires) {
			cached := s.catalogCached
			s.catalogMu.RUnlock()
			return cached, nil
		}
		s.catalogMu.RUnlock()

		courses, err := s.fetchCatalog(ctx)
		if err != nil {
			return nil, err
		}
		s.catalogMu.Lock()
		s.catalogCached = courses
		s.catalogExpires = time.Now().Add(catalogCacheTTL)
		s.catalogMu.Unlock()
		return courses, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Course), nil
}

func (s *CourseStore) fetchCatalog(ctx context.Context) ([]models.Course, error) {
	body := map[string]interface{}{
		"size":  maxCatalogSize,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	}
	raw, err := s.search(ctx, s.catalogIndex, body)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	courses := make([]models.Course, 0)
	for _, hit := range extractHits(raw) {
		src, ok := hit["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		srcBytes, err := json.Marshal(src)
		if err != nil {
			continue
		}
		var course models.Course
		if err := json.Unmarshal(srcBytes, &course); err != nil {
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// GetLessonLink returns the deep link for one lesson of a course, or
// "" when the catalog has none.
func (s *CourseStore) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) string {
	courses, err := s.GetAllCoursesMetadata(ctx)
	if err != nil {
		return ""
	}
	for _, c := range courses {
		if c.Title != courseTitle {
			continue
		}
		for _, l := range c.Lessons {
			if l.Number == lessonNumber {
				return l.Link
			}
		}
	}
	return ""
}

// CourseTitles returns every canonical title in the catalog.
func (s *CourseStore) CourseTitles(ctx context.Context) ([]string, error) {
	courses, err := s.GetAllCoursesMetadata(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(courses))
	for _, c := range courses {
		titles = append(titles, c.Title)
	}
	return titles, nil
}

func (s *CourseStore) search(ctx context.Context, index string, body map[string]interface{}) (map[string]interface{}, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	opts := []func(*esapi.SearchRequest){
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(index),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	}

	res, err := s.client.Search(opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	return decodeBody(res.Body, res.Status())
}

func decodeBody(r io.Reader, status string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5") {
		if errObj, ok := result["error"]; ok {
			return nil, fmt.Errorf("elasticsearch error [%s]: %v", status, errObj)
		}
		return nil, fmt.Errorf("elasticsearch error: %s", status)
	}
	return result, nil
}

func extractHits(raw map[string]interface{}) []map[string]interface{} {
	hitsObj, ok := raw["hits"].(map[string]interface{})
	if !ok {
		return nil
	}
	hits, ok := hitsObj["hits"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(hits))
	for _, h := range hits {
		if hm, ok := h.(map[string]interface{}); ok {
			out = append(out, hm)
		}
	}
	return out
}
