// Package solr implements the search.Engine contract on Apache Solr.
package solr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vanng822/go-solr/solr"

	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

// Engine wraps a Solr core.
type Engine struct {
	si   *solr.SolrInterface
	core string
}

// New connects to the configured Solr instance.
func New(cfg config.SearchEngine) (*Engine, error) {
	si, err := solr.NewSolrInterface("http://"+cfg.Addr()+"/solr", cfg.Index)
	if err != nil {
		return nil, err
	}
	return &Engine{si: si, core: cfg.Index}, nil
}

// IsHealthy asks core admin for status.
func (e *Engine) IsHealthy(ctx context.Context) bool {
	ca, err := e.si.CoreAdmin()
	if err != nil {
		return false
	}
	params := url.Values{}
	params.Set("core", e.core)
	_, err = ca.Action("STATUS", &params)
	return err == nil
}

// SetupIndex creates the core; with force all existing documents are
// deleted first.
func (e *Engine) SetupIndex(ctx context.Context, force bool) error {
	if force {
		if _, err := e.si.DeleteAll(); err != nil {
			return &search.UnavailableError{Engine: "solr", Err: err}
		}
	}

	ca, err := e.si.CoreAdmin()
	if err != nil {
		return &search.UnavailableError{Engine: "solr", Err: err}
	}
	params := url.Values{}
	params.Set("name", e.core)
	params.Set("instanceDir", e.core)
	if _, err := ca.Action("CREATE", &params); err != nil {
		// an existing core is fine; Solr reports creation over an
		// existing dir as an error
		if strings.Contains(err.Error(), "exists") {
			return nil
		}
		return &search.UnavailableError{Engine: "solr", Err: err}
	}
	return nil
}

// IndexContent adds one content record to the core.
func (e *Engine) IndexContent(ctx context.Context, c corpus.Content) error {
	doc := solr.Document{
		"id":          strconv.Itoa(c.ContentID),
		"title":       c.Title,
		"description": c.Description,
		"category":    c.Category,
	}
	if c.Abstract != "" {
		doc["abstract"] = c.Abstract
	}

	params := url.Values{"commit": []string{"true"}}
	if _, err := e.si.Add([]solr.Document{doc}, 1, &params); err != nil {
		return fmt.Errorf("index content %d: %w", c.ContentID, err)
	}
	return nil
}

// Search queries the core and converts hits into search results.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]corpus.SearchResult, error) {
	q := solr.NewQuery()
	q.Q(query)
	q.Rows(maxResults)

	s := e.si.Search(q)
	r, err := s.Result(nil)
	if err != nil {
		return nil, &search.UnavailableError{Engine: "solr", Err: err}
	}

	results := make([]corpus.SearchResult, 0, len(r.Results.Docs))
	for _, d := range r.Results.Docs {
		idStr, _ := d.Get("id").(string)
		id, _ := strconv.Atoi(idStr)

		title := ""
		switch v := d.Get("title").(type) {
		case string:
			title = v
		case []interface{}:
			if len(v) > 0 {
				title, _ = v[0].(string)
			}
		}

		score := 0.0
		if sv, ok := d.Get("score").(float64); ok {
			score = sv
		}

		results = append(results, corpus.SearchResult{
			ContentID:      id,
			Title:          title,
			URL:            search.ResultURL(id),
			RelevanceScore: score,
		})
	}
	return results, nil
}
