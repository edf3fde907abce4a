// Package logs turns executed search queries into search log records.
package logs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

// Assembler executes queries against a search backend and packages the
// results into search logs. An unhealthy backend is an error, never an
// empty-results log.
type Assembler struct {
	engine     search.Engine
	policy     ClickPolicy
	maxResults int
	log        zerolog.Logger
}

// NewAssembler builds an assembler. policy may be nil, which means
// pass-through (clicks/CTR left unset).
func NewAssembler(engine search.Engine, maxResults int, policy ClickPolicy, log zerolog.Logger) *Assembler {
	if policy == nil {
		policy = Passthrough{}
	}
	return &Assembler{
		engine:     engine,
		policy:     policy,
		maxResults: maxResults,
		log:        log.With().Str("component", "log-assembler").Logger(),
	}
}

// Assemble executes one query and wraps its results into a search log.
func (a *Assembler) Assemble(ctx context.Context, query corpus.SearchQuery) (corpus.SearchLog, error) {
	if !a.engine.IsHealthy(ctx) {
		return corpus.SearchLog{}, &search.UnavailableError{Engine: "search"}
	}

	results, err := a.engine.Search(ctx, query.QueryContent, a.maxResults)
	if err != nil {
		return corpus.SearchLog{}, err
	}

	log := corpus.SearchLog{
		QueryID:     query.QueryID,
		UserID:      query.UserID,
		SearchQuery: query.QueryContent,
		Results:     results,
	}
	if clicks, ctr, ok := a.policy.Simulate(len(results)); ok {
		log.Clicks = &clicks
		log.CTR = &ctr
	}

	a.log.Debug().Int("query_id", query.QueryID).Int("results", len(results)).Msg("assembled search log")
	return log, nil
}

// AssembleAll executes a batch of queries in order. The batch aborts on
// the first failure so a returned slice is always complete.
func (a *Assembler) AssembleAll(ctx context.Context, queries []corpus.SearchQuery) ([]corpus.SearchLog, error) {
	out := make([]corpus.SearchLog, 0, len(queries))
	for _, q := range queries {
		log, err := a.Assemble(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, nil
}
