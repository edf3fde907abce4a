package solr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfaker/logfaker/config"
	"github.com/logfaker/logfaker/corpus"
	"github.com/logfaker/logfaker/search"
)

func engineAt(t *testing.T, rawURL string) *Engine {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	e, err := New(config.SearchEngine{Engine: "solr", Host: u.Hostname(), Port: port, Index: "testung"})
	require.NoError(t, err)
	return e
}

func TestSetupIndexCreatesCore(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseHeader": {"status": 0, "QTime": 1}}`))
	}))
	defer srv.Close()

	e := engineAt(t, srv.URL)
	require.NoError(t, e.SetupIndex(context.Background(), false))
	assert.True(t, strings.Contains(gotPath, "admin/cores"), gotPath)
}

func TestSetupIndexUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	e := engineAt(t, addr)
	err := e.SetupIndex(context.Background(), false)

	var unavailable *search.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "solr", unavailable.Engine)
}

func TestEngine(t *testing.T) {
	// todo: run solr automatically
	t.SkipNow()

	e, err := New(config.SearchEngine{Engine: "solr", Host: "localhost", Port: 8983, Index: "testung"})
	require.NoError(t, err)
	ctx := context.Background()

	require.True(t, e.IsHealthy(ctx))
	require.NoError(t, e.SetupIndex(ctx, true))

	require.NoError(t, e.IndexContent(ctx, corpus.Content{
		ContentID: 1, Title: "hello world", Description: "greeting", Category: "Fiction",
	}))

	results, err := e.Search(ctx, "hello", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1, results[0].ContentID)
	assert.Equal(t, "hello world", results[0].Title)
}
