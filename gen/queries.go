package gen

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/logfaker/logfaker/ai"
	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
)

// QueryGenerator produces search queries anchored to a user's interests.
// Query ids are drawn from the shared allocator, so they stay strictly
// increasing across all users of a run.
type QueryGenerator struct {
	prompter
	alloc *Allocator
}

// NewQueryGenerator wires a query generator to the text-generation
// capability and the shared allocator.
func NewQueryGenerator(cfg config.Generator, client ai.Client, alloc *Allocator, log zerolog.Logger) *QueryGenerator {
	return &QueryGenerator{
		prompter: newPrompter(cfg, client, log.With().Str("component", "query-generator").Logger()),
		alloc:    alloc,
	}
}

type queryPayload struct {
	QueryContent string `json:"query_content" validate:"required"`
}

// GenerateQueries produces count queries for one user, cycling through
// the user's preferences so each interest is represented when count
// reaches their number.
func (g *QueryGenerator) GenerateQueries(ctx context.Context, user corpus.UserProfile, count int) ([]corpus.SearchQuery, error) {
	if len(user.Preferences) == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("user %d has no preferences to anchor queries on", user.UserID)}
	}

	queries := make([]corpus.SearchQuery, 0, count)
	for i := 0; i < count; i++ {
		category := user.Preferences[i%len(user.Preferences)]
		query, err := g.generateOne(ctx, user, category)
		if err != nil {
			return nil, err
		}
		queries = append(queries, query)
	}
	return queries, nil
}

// GenerateQuery produces a single query for the user's first preference.
func (g *QueryGenerator) GenerateQuery(ctx context.Context, user corpus.UserProfile) (corpus.SearchQuery, error) {
	if len(user.Preferences) == 0 {
		return corpus.SearchQuery{}, &ConfigurationError{Reason: fmt.Sprintf("user %d has no preferences to anchor queries on", user.UserID)}
	}
	return g.generateOne(ctx, user, user.Preferences[0])
}

func (g *QueryGenerator) generateOne(ctx context.Context, user corpus.UserProfile, category string) (corpus.SearchQuery, error) {
	system := fmt.Sprintf("You are simulating search behavior on a %s.", g.cfg.ServiceType)
	prompt := fmt.Sprintf(
		"A %s described as %q is searching for something related to %q. "+
			"Respond in %s as a single JSON object: {\"query_content\": \"the short search query they would type\"}.",
		user.Profession, user.BriefExplanation, category, g.cfg.Language)

	var payload queryPayload
	if err := g.generate(ctx, "query", system, prompt, &payload); err != nil {
		return corpus.SearchQuery{}, err
	}

	return corpus.SearchQuery{
		QueryID:      g.alloc.Next(KindQuery),
		UserID:       user.UserID,
		QueryContent: payload.QueryContent,
		Category:     category,
	}, nil
}
