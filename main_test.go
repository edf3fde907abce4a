package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/logs"
)

func TestSelectEngine(t *testing.T) {
	for _, name := range []string{"elasticsearch", "solr", "redisearch"} {
		cfg := config.Default().SearchEngine
		cfg.Engine = name
		engine, err := selectEngine(cfg)
		require.NoError(t, err, name)
		assert.NotNil(t, engine, name)
	}

	cfg := config.Default().SearchEngine
	cfg.Engine = "sphinx"
	_, err := selectEngine(cfg)
	assert.Error(t, err)
}

func TestSelectPolicy(t *testing.T) {
	p, err := selectPolicy("none", 0)
	require.NoError(t, err)
	assert.IsType(t, logs.Passthrough{}, p)

	p, err = selectPolicy("fixed", 0)
	require.NoError(t, err)
	assert.IsType(t, logs.Fixed{}, p)

	p, err = selectPolicy("random", 7)
	require.NoError(t, err)
	assert.IsType(t, &logs.Random{}, p)

	_, err = selectPolicy("always", 0)
	assert.Error(t, err)
}

func TestCategoriesOf(t *testing.T) {
	contents := []corpus.Content{
		{Category: "Fiction"},
		{Category: "History"},
		{Category: "Fiction"},
	}
	assert.Equal(t, []string{"Fiction", "History"}, categoriesOf(contents))
}

// recordingEngine notes every query it is asked to run.
type recordingEngine struct {
	mu      sync.Mutex
	queries []string
}

func (e *recordingEngine) IsHealthy(context.Context) bool                     { return true }
func (e *recordingEngine) SetupIndex(context.Context, bool) error             { return nil }
func (e *recordingEngine) IndexContent(context.Context, corpus.Content) error { return nil }

func (e *recordingEngine) Search(_ context.Context, query string, _ int) ([]corpus.SearchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = append(e.queries, query)
	return nil, nil
}

func TestRunBenchReplaysQueriesInOrder(t *testing.T) {
	engine := &recordingEngine{}
	queries := []corpus.SearchQuery{
		{QueryID: 1, QueryContent: "first"},
		{QueryID: 2, QueryContent: "second"},
	}

	err := runBench(context.Background(), engine, queries, benchParams{
		engineName:  "fake",
		concurrency: 1,
		duration:    20 * time.Millisecond,
		maxResults:  10,
		outfile:     filepath.Join(t.TempDir(), "bench.csv"),
	}, zerolog.Nop())
	require.NoError(t, err)

	// a single worker walks the artifact from its first entry
	require.NotEmpty(t, engine.queries)
	assert.Equal(t, "first", engine.queries[0])
	if len(engine.queries) > 1 {
		assert.Equal(t, "second", engine.queries[1])
	}
}

func TestBenchStateQuantiles(t *testing.T) {
	state := newBenchState()

	// nothing recorded yet
	assert.Zero(t, latencyQuantiles(state)["q50"])
	assert.Equal(t, "0B", replyVolume(state))

	state.record(10*time.Millisecond, []corpus.SearchResult{
		{Title: "abcde", URL: "12345"},
	})
	state.record(20*time.Millisecond, nil)

	q := latencyQuantiles(state)
	assert.InDelta(t, 10.0, q["q0"], 0.5)
	assert.InDelta(t, 20.0, q["q100"], 0.5)
	assert.Equal(t, "10B", replyVolume(state))
	assert.Equal(t, uint64(2), state.totalOps)
}
