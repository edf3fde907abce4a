// Package redisearch implements the search.Engine contract on RediSearch.
package redisearch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyburd/redigo/redis"

	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

const maxConns = 50

// Engine drives a RediSearch index over a shared connection pool.
type Engine struct {
	pool  *redis.Pool
	index string
}

// New builds an engine for the configured host. Connections are created
// lazily.
func New(cfg config.SearchEngine) *Engine {
	addr := cfg.Addr()
	password := cfg.Password
	pool := redis.NewPool(func() (redis.Conn, error) {
		if password != "" {
			return redis.Dial("tcp", addr, redis.DialPassword(password))
		}
		return redis.Dial("tcp", addr)
	}, maxConns)
	pool.TestOnBorrow = func(c redis.Conn, t time.Time) error {
		if time.Since(t).Seconds() > 3 {
			_, err := c.Do("PING")
			return err
		}
		return nil
	}

	return &Engine{pool: pool, index: cfg.Index}
}

// IsHealthy pings the server.
func (e *Engine) IsHealthy(ctx context.Context) bool {
	conn := e.pool.Get()
	defer conn.Close()
	_, err := conn.Do("PING")
	return err == nil
}

// SetupIndex creates the index schema. With force, an existing index and
// its documents are dropped first.
func (e *Engine) SetupIndex(ctx context.Context, force bool) error {
	conn := e.pool.Get()
	defer conn.Close()

	if force {
		// FT.DROP on a missing index is not an error we care about
		if _, err := conn.Do("FT.DROP", e.index); err != nil && !strings.Contains(err.Error(), "Unknown Index") {
			return &search.UnavailableError{Engine: "redisearch", Err: err}
		}
	}

	args := redis.Args{e.index, "SCHEMA",
		"title", "TEXT", "WEIGHT", "5",
		"description", "TEXT",
		"abstract", "TEXT",
		"category", "TEXT",
	}
	if _, err := conn.Do("FT.CREATE", args...); err != nil {
		if strings.Contains(err.Error(), "Index already exists") {
			return nil
		}
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	return nil
}

// IndexContent adds one content record as a RediSearch document.
func (e *Engine) IndexContent(ctx context.Context, c corpus.Content) error {
	conn := e.pool.Get()
	defer conn.Close()

	args := redis.Args{e.index, strconv.Itoa(c.ContentID), 1.0, "REPLACE", "FIELDS",
		"title", c.Title,
		"description", c.Description,
		"category", c.Category,
	}
	if c.Abstract != "" {
		args = append(args, "abstract", c.Abstract)
	}

	if _, err := conn.Do("FT.ADD", args...); err != nil {
		return fmt.Errorf("index content %d: %w", c.ContentID, err)
	}
	return nil
}

// Search runs FT.SEARCH and converts the reply into search results.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]corpus.SearchResult, error) {
	conn := e.pool.Get()
	defer conn.Close()

	args := redis.Args{e.index, query, "LIMIT", 0, maxResults, "WITHSCORES"}
	res, err := redis.Values(conn.Do("FT.SEARCH", args...))
	if err != nil {
		return nil, &search.UnavailableError{Engine: "redisearch", Err: err}
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("empty FT.SEARCH reply")
	}

	// reply: total, then id/score/fields triplets
	results := make([]corpus.SearchResult, 0, maxResults)
	for i := 1; i+2 < len(res); i += 3 {
		doc, err := loadResult(res[i], res[i+1], res[i+2])
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}
	return results, nil
}

func loadResult(id, sc, fields interface{}) (corpus.SearchResult, error) {
	contentID, err := strconv.Atoi(string(id.([]byte)))
	if err != nil {
		return corpus.SearchResult{}, fmt.Errorf("parse result id: %w", err)
	}
	score, err := strconv.ParseFloat(string(sc.([]byte)), 64)
	if err != nil {
		return corpus.SearchResult{}, fmt.Errorf("parse result score: %w", err)
	}

	result := corpus.SearchResult{
		ContentID:      contentID,
		URL:            search.ResultURL(contentID),
		RelevanceScore: score,
	}

	lst, ok := fields.([]interface{})
	if !ok {
		return result, nil
	}
	for i := 0; i+1 < len(lst); i += 2 {
		if string(lst[i].([]byte)) == "title" {
			result.Title = string(lst[i+1].([]byte))
		}
	}
	return result, nil
}
