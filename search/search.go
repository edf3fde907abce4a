// Package search defines the pluggable search-backend contract the
// pipeline indexes into and queries against.
package search

import (
	"context"
	"fmt"

	"github.com/logfaker/logfaker/corpus"
)

// Engine is a search backend. Unavailability is reported through errors
// (or a false health check), never as an empty result list.
type Engine interface {
	// IsHealthy reports whether the backend is reachable and serving.
	IsHealthy(ctx context.Context) bool
	// SetupIndex creates the index. With force, any existing index and
	// its data are deleted first.
	SetupIndex(ctx context.Context, force bool) error
	// IndexContent indexes a single content record under its content id.
	IndexContent(ctx context.Context, c corpus.Content) error
	// Search runs a full-text query and returns up to maxResults hits in
	// relevance order.
	Search(ctx context.Context, query string, maxResults int) ([]corpus.SearchResult, error)
}

// UnavailableError reports a backend that is unreachable or unhealthy,
// as opposed to one that answered with zero results.
type UnavailableError struct {
	Engine string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search engine %s unavailable: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("search engine %s unavailable", e.Engine)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ResultURL builds the canonical catalog URL embedded in search results.
func ResultURL(contentID int) string {
	return fmt.Sprintf("https://library.example.com/book/%d", contentID)
}
