// Package csvio persists generated corpora as CSV artifacts and loads
// them back for idempotent reuse. Column names and order are part of the
// artifact contract: a reused file is indistinguishable from a freshly
// generated one.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/logfaker/logfaker/corpus"
)

// ResolvePath applies outputDir to bare filenames only; absolute paths
// and paths that already carry a directory pass through unchanged.
func ResolvePath(outputDir, path string) string {
	if outputDir == "" || filepath.IsAbs(path) || filepath.Dir(path) != "." {
		return path
	}
	return filepath.Join(outputDir, path)
}

// Exporter writes CSV artifacts. OutputDir is applied to bare filenames;
// QueryUserID adds the optional User ID column to query exports.
type Exporter struct {
	OutputDir   string
	QueryUserID bool
}

func (e Exporter) create(path string) (*os.File, string, error) {
	resolved := ResolvePath(e.OutputDir, path)
	if dir := filepath.Dir(resolved); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, resolved, err
		}
	}
	f, err := os.Create(resolved)
	return f, resolved, err
}

// optional content columns, appended in this order when populated
var contentExtras = []string{"Author", "Publisher", "Year", "Genre", "Abstract"}

// Contents writes the content artifact. Optional columns are appended
// only when at least one record populates them.
func (e Exporter) Contents(contents []corpus.Content, path string) error {
	f, resolved, err := e.create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	used := map[string]bool{}
	for _, c := range contents {
		used["Author"] = used["Author"] || c.Author != ""
		used["Publisher"] = used["Publisher"] || c.Publisher != ""
		used["Year"] = used["Year"] || c.Year != 0
		used["Genre"] = used["Genre"] || c.Genre != ""
		used["Abstract"] = used["Abstract"] || c.Abstract != ""
	}

	header := []string{"Content ID", "Title", "Description", "Category"}
	for _, col := range contentExtras {
		if used[col] {
			header = append(header, col)
		}
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range contents {
		row := []string{strconv.Itoa(c.ContentID), c.Title, c.Description, c.Category}
		extras := map[string]string{
			"Author":    c.Author,
			"Publisher": c.Publisher,
			"Genre":     c.Genre,
			"Abstract":  c.Abstract,
		}
		if c.Year != 0 {
			extras["Year"] = strconv.Itoa(c.Year)
		}
		for _, col := range contentExtras {
			if used[col] {
				row = append(row, extras[col])
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}

// Users writes the user artifact. Preferences are serialized as a
// comma-delimited string.
func (e Exporter) Users(users []corpus.UserProfile, path string) error {
	f, resolved, err := e.create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"User ID", "Brief Explanation", "Profession", "Preferences"}); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{strconv.Itoa(u.UserID), u.BriefExplanation, u.Profession, strings.Join(u.Preferences, ",")}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}

// Queries writes the query artifact; the User ID column is appended when
// the exporter is configured for it.
func (e Exporter) Queries(queries []corpus.SearchQuery, path string) error {
	f, resolved, err := e.create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := []string{"Query ID", "Query Content", "Category"}
	if e.QueryUserID {
		header = append(header, "User ID")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, q := range queries {
		row := []string{strconv.Itoa(q.QueryID), q.QueryContent, q.Category}
		if e.QueryUserID {
			row = append(row, strconv.Itoa(q.UserID))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}

// SearchLogs writes the search log artifact. Results are embedded as a
// JSON array in a quoted field; Clicks and CTR columns appear only when
// some log carries them.
func (e Exporter) SearchLogs(logs []corpus.SearchLog, path string) error {
	f, resolved, err := e.create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	withClicks := false
	for _, l := range logs {
		if l.Clicks != nil || l.CTR != nil {
			withClicks = true
			break
		}
	}

	header := []string{"Query ID", "User ID", "Search Query", "Search Results (JSON)"}
	if withClicks {
		header = append(header, "Clicks", "CTR")
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, l := range logs {
		results := l.Results
		if results == nil {
			results = []corpus.SearchResult{}
		}
		encoded, err := json.Marshal(results)
		if err != nil {
			return err
		}
		row := []string{strconv.Itoa(l.QueryID), strconv.Itoa(l.UserID), l.SearchQuery, string(encoded)}
		if withClicks {
			clicks, ctr := "", ""
			if l.Clicks != nil {
				clicks = strconv.Itoa(*l.Clicks)
			}
			if l.CTR != nil {
				ctr = strconv.FormatFloat(*l.CTR, 'f', -1, 64)
			}
			row = append(row, clicks, ctr)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}
