package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/logfaker/logfaker/corpus"
)

// ReuseError reports a cached artifact that exists but cannot be loaded:
// malformed CSV, a missing required column, or a value that fails to
// parse. Reuse never falls back to regeneration, so these surface loudly.
type ReuseError struct {
	Path string
	Err  error
}

func (e *ReuseError) Error() string {
	return fmt.Sprintf("reuse %s: %v", e.Path, e.Err)
}

func (e *ReuseError) Unwrap() error { return e.Err }

// header maps column names to positions and enforces required columns.
type header struct {
	path string
	cols map[string]int
}

func readArtifact(path string) ([][]string, *header, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, &ReuseError{Path: path, Err: err}
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, &ReuseError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, nil, &ReuseError{Path: path, Err: fmt.Errorf("missing header row")}
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[name] = i
	}
	return rows[1:], &header{path: path, cols: cols}, nil
}

func (h *header) require(names ...string) error {
	for _, name := range names {
		if _, ok := h.cols[name]; !ok {
			return &ReuseError{Path: h.path, Err: fmt.Errorf("missing required column %q", name)}
		}
	}
	return nil
}

func (h *header) field(row []string, name string) string {
	i, ok := h.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (h *header) intField(row []string, name string) (int, error) {
	raw := h.field(row, name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ReuseError{Path: h.path, Err: fmt.Errorf("column %q: %w", name, err)}
	}
	return v, nil
}

// LoadContents loads a content artifact. A missing file returns (nil,
// nil); a present but unreadable one returns a ReuseError.
func LoadContents(path string) ([]corpus.Content, error) {
	rows, h, err := readArtifact(path)
	if err != nil || h == nil {
		return nil, err
	}
	if err := h.require("Content ID", "Title", "Description", "Category"); err != nil {
		return nil, err
	}

	contents := make([]corpus.Content, 0, len(rows))
	for _, row := range rows {
		id, err := h.intField(row, "Content ID")
		if err != nil {
			return nil, err
		}
		year, err := h.intField(row, "Year")
		if err != nil {
			return nil, err
		}
		contents = append(contents, corpus.Content{
			ContentID:   id,
			Title:       h.field(row, "Title"),
			Description: h.field(row, "Description"),
			Category:    h.field(row, "Category"),
			Author:      h.field(row, "Author"),
			Publisher:   h.field(row, "Publisher"),
			Year:        year,
			Genre:       h.field(row, "Genre"),
			Abstract:    h.field(row, "Abstract"),
		})
	}
	return contents, nil
}

// LoadUsers loads a user artifact; preference lists are split on commas.
func LoadUsers(path string) ([]corpus.UserProfile, error) {
	rows, h, err := readArtifact(path)
	if err != nil || h == nil {
		return nil, err
	}
	if err := h.require("User ID", "Brief Explanation", "Profession", "Preferences"); err != nil {
		return nil, err
	}

	users := make([]corpus.UserProfile, 0, len(rows))
	for _, row := range rows {
		id, err := h.intField(row, "User ID")
		if err != nil {
			return nil, err
		}
		users = append(users, corpus.UserProfile{
			UserID:           id,
			BriefExplanation: h.field(row, "Brief Explanation"),
			Profession:       h.field(row, "Profession"),
			Preferences:      splitPreferences(h.field(row, "Preferences")),
		})
	}
	return users, nil
}

// LoadQueries loads a query artifact. Used by the benchmark mode to
// replay generated queries.
func LoadQueries(path string) ([]corpus.SearchQuery, error) {
	rows, h, err := readArtifact(path)
	if err != nil || h == nil {
		return nil, err
	}
	if err := h.require("Query ID", "Query Content", "Category"); err != nil {
		return nil, err
	}

	queries := make([]corpus.SearchQuery, 0, len(rows))
	for _, row := range rows {
		id, err := h.intField(row, "Query ID")
		if err != nil {
			return nil, err
		}
		userID, err := h.intField(row, "User ID")
		if err != nil {
			return nil, err
		}
		queries = append(queries, corpus.SearchQuery{
			QueryID:      id,
			UserID:       userID,
			QueryContent: h.field(row, "Query Content"),
			Category:     h.field(row, "Category"),
		})
	}
	return queries, nil
}

func splitPreferences(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
