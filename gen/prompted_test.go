package gen

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfaker/logfaker/config"
)

// scriptedClient replays canned responses in order, repeating the last
// one once the script is exhausted.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (c *scriptedClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	i := c.calls - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

func testConfig() config.Generator {
	cfg := config.Default().Generator
	cfg.APIKey = "test"
	return cfg
}

type titlePayload struct {
	Title string `json:"title" validate:"required"`
}

func TestPrompterRetriesMalformedOutput(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"this is not json",
		`{"title": "ok"}`,
	}}
	p := newPrompter(testConfig(), client, zerolog.Nop())

	var out titlePayload
	err := p.generate(context.Background(), "content", "sys", "prompt", &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Title)
	assert.Equal(t, 2, client.calls)
}

func TestPrompterStripsCodeFences(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"```json\n{\"title\": \"fenced\"}\n```",
	}}
	p := newPrompter(testConfig(), client, zerolog.Nop())

	var out titlePayload
	require.NoError(t, p.generate(context.Background(), "content", "sys", "prompt", &out))
	assert.Equal(t, "fenced", out.Title)
}

func TestPrompterReportsInvalidField(t *testing.T) {
	// valid JSON missing the required field, on every attempt
	client := &scriptedClient{responses: []string{`{"other": 1}`}}
	p := newPrompter(testConfig(), client, zerolog.Nop())

	var out titlePayload
	err := p.generate(context.Background(), "content", "sys", "prompt", &out)
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "content", genErr.Record)
	assert.Equal(t, "Title", genErr.Field)
	assert.Equal(t, defaultRetries+1, client.calls)
}

func TestPrompterDropsFieldsFromRejectedAttempts(t *testing.T) {
	type bookPayload struct {
		Title  string `json:"title" validate:"required"`
		Author string `json:"author"`
	}

	// the first payload fails validation after filling an optional
	// field; the accepted payload never mentions it
	client := &scriptedClient{responses: []string{
		`{"author": "Ghost Writer"}`,
		`{"title": "T"}`,
	}}
	p := newPrompter(testConfig(), client, zerolog.Nop())

	var out bookPayload
	require.NoError(t, p.generate(context.Background(), "content", "sys", "prompt", &out))
	assert.Equal(t, "T", out.Title)
	assert.Empty(t, out.Author)
}

func TestPrompterDoesNotRetryClientErrors(t *testing.T) {
	client := &scriptedClient{err: errors.New("upstream down")}
	p := newPrompter(testConfig(), client, zerolog.Nop())

	var out titlePayload
	err := p.generate(context.Background(), "content", "sys", "prompt", &out)
	require.Error(t, err)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 1, client.calls)
}
