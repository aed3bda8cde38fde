package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/course_market/internal/config"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
)

type Elastic struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElastic(cfg config.ESConfig) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Elastic{Client: client, Index: cfg.Index}, nil
}

// Ping checks the cluster answers.
func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.Client.Info(e.Client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Course `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	courses := make([]models.Course, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		courses[i] = hit.Source
	}
	return r.Hits.Total.Value, courses, nil
}

func (e *Elastic) IndexCourse(ctx context.Context, c *models.Course) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	res, err := e.Client.Index(
		e.Index,
		bytes.NewReader(data),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(c.ID),
	)
	if err != nil {
		return fmt.Errorf("index course: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index course: %s", res.Status())
	}
	return nil
}

func (e *Elastic) DeleteCourse(ctx context.Context, id string) error {
	res, err := e.Client.Delete(e.Index, id, e.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete course: %s", res.Status())
	}
	return nil
}

// Database searches with SQL when no cluster is configured.
type Database struct {
	Repo *repo.GormRepo
}

func (d Database) Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error) {
	return d.Repo.SearchCourses(ctx, strings.TrimSpace(query), from, size)
}

func (Database) IndexCourse(context.Context, *models.Course) error { return nil }

func (Database) DeleteCourse(context.Context, string) error { return nil }
