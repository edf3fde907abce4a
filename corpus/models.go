// Package corpus defines the records produced by the generation pipeline:
// contents, user profiles, search queries and assembled search logs.
package corpus

// Content is a single catalog entry. Title, description and category are
// always present; the remaining fields are filled only when the model
// volunteers them and stay zero-valued otherwise.
type Content struct {
	ContentID   int
	Title       string
	Description string
	Category    string
	Author      string
	Publisher   string
	Year        int
	Genre       string
	Abstract    string
}

// UserProfile is a synthetic user. Preferences is an ordered list of
// interest labels; when a category vocabulary was supplied at generation
// time it is always a non-empty subset of that vocabulary.
type UserProfile struct {
	UserID           int
	BriefExplanation string
	Profession       string
	Preferences      []string
}

// SearchQuery is one query issued by one user. Category records the
// interest that motivated the query.
type SearchQuery struct {
	QueryID      int
	UserID       int
	QueryContent string
	Category     string
}

// SearchResult is a single hit returned by a search backend.
type SearchResult struct {
	ContentID      int     `json:"content_id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// SearchLog pairs an executed query with its results. Clicks and CTR are
// nil unless a click simulation policy filled them in.
type SearchLog struct {
	QueryID     int
	UserID      int
	SearchQuery string
	Results     []SearchResult
	Clicks      *int
	CTR         *float64
}
