package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/course_market/internal/config"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/repo/repotest"
)

type fakeCluster struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (f *fakeCluster) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"aaaaaaaaaaaaaaaaaaaaaaaa","title":"Go Basics","slug":"go-basics"}}]}}`)
	case strings.Contains(r.URL.Path, "/_doc/"):
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	default:
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	}
}

func newElastic(t *testing.T) (*Elastic, *fakeCluster) {
	t.Helper()
	fc := &fakeCluster{}
	srv := httptest.NewServer(http.HandlerFunc(fc.handler))
	t.Cleanup(srv.Close)

	es, err := NewElastic(config.ESConfig{URL: srv.URL, Index: "courses"})
	require.NoError(t, err)
	return es, fc
}

func TestElastic_Search(t *testing.T) {
	t.Parallel()

	es, fc := newElastic(t)
	total, courses, err := es.Search(context.Background(), "golang", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, "go-basics", courses[0].Slug)

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Contains(t, fc.requests, "POST /courses/_search")

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(fc.bodies[len(fc.bodies)-1]), &sent))
	assert.EqualValues(t, 10, sent["size"])
}

func TestElastic_IndexCourse(t *testing.T) {
	t.Parallel()

	es, fc := newElastic(t)
	c := &models.Course{Model: models.Model{ID: "aaaaaaaaaaaaaaaaaaaaaaaa"}, Title: "Go Basics"}
	require.NoError(t, es.IndexCourse(context.Background(), c))
	require.NoError(t, es.Ping(context.Background()))

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Contains(t, fc.requests, "PUT /courses/_doc/aaaaaaaaaaaaaaaaaaaaaaaa")
}

func TestDatabase_Search(t *testing.T) {
	t.Parallel()

	r := &repo.GormRepo{DB: repotest.Open(t)}
	ctx := context.Background()
	require.NoError(t, r.CreateCourse(ctx, &models.Course{Title: "Go Basics", CategoryID: "c", TeacherID: "t", Description: "Goroutines and channels", Cover: "k", Slug: "go-basics"}))
	require.NoError(t, r.CreateCourse(ctx, &models.Course{Title: "Rust Basics", CategoryID: "c", TeacherID: "t", Description: "Ownership", Cover: "k", Slug: "rust-basics"}))

	total, courses, err := Database{Repo: r}.Search(ctx, "  GOROUTINES ", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "go-basics", courses[0].Slug)
}
