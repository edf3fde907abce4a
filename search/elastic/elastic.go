// Package elastic implements the search.Engine contract on Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"

	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

// Engine talks to a single Elasticsearch cluster and index.
type Engine struct {
	es    *elasticsearch.Client
	index string
}

// New connects to the configured cluster.
func New(cfg config.SearchEngine) (*Engine, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://" + cfg.Addr()},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{es: es, index: cfg.Index}, nil
}

// IsHealthy reports a green or yellow cluster.
func (e *Engine) IsHealthy(ctx context.Context) bool {
	res, err := e.es.Cluster.Health(e.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	if res.IsError() {
		return false
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "green" || health.Status == "yellow"
}

// SetupIndex creates the index, deleting any existing one first when force
// is set.
func (e *Engine) SetupIndex(ctx context.Context, force bool) error {
	if force {
		res, err := e.es.Indices.Delete([]string{e.index},
			e.es.Indices.Delete.WithContext(ctx),
			e.es.Indices.Delete.WithIgnoreUnavailable(true))
		if err != nil {
			return &search.UnavailableError{Engine: "elasticsearch", Err: err}
		}
		if err := closeChecked(res); err != nil {
			return fmt.Errorf("delete index %s: %w", e.index, err)
		}
	}

	res, err := e.es.Indices.Create(e.index, e.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return &search.UnavailableError{Engine: "elasticsearch", Err: err}
	}
	if err := closeChecked(res); err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	return nil
}

// IndexContent indexes one content record under its id.
func (e *Engine) IndexContent(ctx context.Context, c corpus.Content) error {
	doc := map[string]interface{}{
		"title":       c.Title,
		"description": c.Description,
		"category":    c.Category,
	}
	if c.Author != "" {
		doc["author"] = c.Author
	}
	if c.Abstract != "" {
		doc["abstract"] = c.Abstract
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := e.es.Index(e.index, bytes.NewReader(body),
		e.es.Index.WithDocumentID(strconv.Itoa(c.ContentID)),
		e.es.Index.WithContext(ctx))
	if err != nil {
		return &search.UnavailableError{Engine: "elasticsearch", Err: err}
	}
	if err := closeChecked(res); err != nil {
		return fmt.Errorf("index content %d: %w", c.ContentID, err)
	}
	return nil
}

// Search runs a multi_match query over title, description and abstract.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]corpus.SearchResult, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title", "description", "abstract"},
			},
		},
		"size": maxResults,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(buf)))
	if err != nil {
		return nil, &search.UnavailableError{Engine: "elasticsearch", Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search %q: %s", query, res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Title string `json:"title"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]corpus.SearchResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, _ := strconv.Atoi(hit.ID)
		results = append(results, corpus.SearchResult{
			ContentID:      id,
			Title:          hit.Source.Title,
			URL:            search.ResultURL(id),
			RelevanceScore: hit.Score,
		})
	}
	return results, nil
}

// closeChecked drains and closes an API response, turning error statuses
// into errors.
func closeChecked(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: %s: %s", res.Status(), string(raw))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
