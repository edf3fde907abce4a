package csvio

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfaker/logfaker/corpus"
)

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "contents.csv"), ResolvePath("out", "contents.csv"))
	// no output dir configured
	assert.Equal(t, "contents.csv", ResolvePath("", "contents.csv"))
	// absolute paths pass through
	assert.Equal(t, "/tmp/contents.csv", ResolvePath("out", "/tmp/contents.csv"))
	// paths that already carry a directory pass through
	assert.Equal(t, "data/contents.csv", ResolvePath("out", "data/contents.csv"))
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestContentsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	contents := []corpus.Content{
		{ContentID: 1, Title: "The Silent Archive", Description: "desc", Category: "Fiction",
			Author: "J. Doe", Year: 1999},
		{ContentID: 2, Title: "Field Notes", Description: "desc 2", Category: "Science"},
	}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.Contents(contents, "contents.csv"))

	rows := readRows(t, filepath.Join(dir, "contents.csv"))
	// Author and Year appear because some record populates them; the
	// never-populated extras do not
	assert.Equal(t, []string{"Content ID", "Title", "Description", "Category", "Author", "Year"}, rows[0])

	loaded, err := LoadContents(filepath.Join(dir, "contents.csv"))
	require.NoError(t, err)
	assert.Equal(t, contents, loaded)
}

func TestContentsBaseColumnsOnly(t *testing.T) {
	dir := t.TempDir()
	contents := []corpus.Content{{ContentID: 1, Title: "T", Description: "D", Category: "C"}}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.Contents(contents, "contents.csv"))

	rows := readRows(t, filepath.Join(dir, "contents.csv"))
	assert.Equal(t, []string{"Content ID", "Title", "Description", "Category"}, rows[0])
}

func TestUsersRoundTrip(t *testing.T) {
	dir := t.TempDir()
	users := []corpus.UserProfile{
		{UserID: 1000, BriefExplanation: "Reads on the train.", Profession: "Teacher",
			Preferences: []string{"Fiction", "History"}},
	}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.Users(users, "users.csv"))

	rows := readRows(t, filepath.Join(dir, "users.csv"))
	assert.Equal(t, []string{"User ID", "Brief Explanation", "Profession", "Preferences"}, rows[0])
	assert.Equal(t, "Fiction,History", rows[1][3])

	loaded, err := LoadUsers(filepath.Join(dir, "users.csv"))
	require.NoError(t, err)
	assert.Equal(t, users, loaded)
}

func TestQueriesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	queries := []corpus.SearchQuery{
		{QueryID: 1, UserID: 1000, QueryContent: "time travel novels", Category: "Fiction"},
		{QueryID: 2, UserID: 1001, QueryContent: "roman empire", Category: "History"},
	}

	e := Exporter{OutputDir: dir, QueryUserID: true}
	require.NoError(t, e.Queries(queries, "queries.csv"))

	rows := readRows(t, filepath.Join(dir, "queries.csv"))
	assert.Equal(t, []string{"Query ID", "Query Content", "Category", "User ID"}, rows[0])

	loaded, err := LoadQueries(filepath.Join(dir, "queries.csv"))
	require.NoError(t, err)
	assert.Equal(t, queries, loaded)
}

func TestQueriesWithoutUserColumn(t *testing.T) {
	dir := t.TempDir()
	queries := []corpus.SearchQuery{
		{QueryID: 1, UserID: 1000, QueryContent: "time travel novels", Category: "Fiction"},
	}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.Queries(queries, "queries.csv"))

	rows := readRows(t, filepath.Join(dir, "queries.csv"))
	assert.Equal(t, []string{"Query ID", "Query Content", "Category"}, rows[0])

	// loading still works; the user id is simply absent
	loaded, err := LoadQueries(filepath.Join(dir, "queries.csv"))
	require.NoError(t, err)
	assert.Zero(t, loaded[0].UserID)
}

func TestSearchLogsExport(t *testing.T) {
	dir := t.TempDir()
	clicks, ctr := 2, 0.5
	logs := []corpus.SearchLog{
		{QueryID: 1, UserID: 1000, SearchQuery: "time travel novels",
			Results: []corpus.SearchResult{
				{ContentID: 3, Title: "The Silent Archive", URL: "https://library.example.com/book/3", RelevanceScore: 1.5},
			},
			Clicks: &clicks, CTR: &ctr},
		{QueryID: 2, UserID: 1000, SearchQuery: "roman empire", Results: nil},
	}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.SearchLogs(logs, "logs.csv"))

	rows := readRows(t, filepath.Join(dir, "logs.csv"))
	assert.Equal(t, []string{"Query ID", "User ID", "Search Query", "Search Results (JSON)", "Clicks", "CTR"}, rows[0])

	var results []corpus.SearchResult
	require.NoError(t, json.Unmarshal([]byte(rows[1][3]), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].ContentID)
	assert.Equal(t, "2", rows[1][4])
	assert.Equal(t, "0.5", rows[1][5])

	// nil results serialize as an empty array, click fields stay blank
	assert.Equal(t, "[]", rows[2][3])
	assert.Equal(t, "", rows[2][4])
}

func TestSearchLogsNoClickColumns(t *testing.T) {
	dir := t.TempDir()
	logs := []corpus.SearchLog{{QueryID: 1, UserID: 1000, SearchQuery: "q"}}

	e := Exporter{OutputDir: dir}
	require.NoError(t, e.SearchLogs(logs, "logs.csv"))

	rows := readRows(t, filepath.Join(dir, "logs.csv"))
	assert.Equal(t, []string{"Query ID", "User ID", "Search Query", "Search Results (JSON)"}, rows[0])
}

func TestLoadMissingArtifact(t *testing.T) {
	contents, err := LoadContents(filepath.Join(t.TempDir(), "contents.csv"))
	require.NoError(t, err)
	assert.Nil(t, contents)
}

func TestLoadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contents.csv")
	require.NoError(t, os.WriteFile(path, []byte("Content ID,Title\n1,T\n"), 0o644))

	_, err := LoadContents(path)

	var reuseErr *ReuseError
	require.ErrorAs(t, err, &reuseErr)
	assert.Equal(t, path, reuseErr.Path)
}

func TestLoadMalformedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contents.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("Content ID,Title,Description,Category\nnot-a-number,T,D,C\n"), 0o644))

	_, err := LoadContents(path)

	var reuseErr *ReuseError
	require.ErrorAs(t, err, &reuseErr)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadUsers(path)

	var reuseErr *ReuseError
	require.ErrorAs(t, err, &reuseErr)
}
