// Package gen contains the LLM-backed generators: category taxonomy,
// contents, user profiles and search queries, plus identity allocation
// and CSV-backed reuse.
package gen

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/logfaker/logfaker/ai"
	"github.com/logfaker/logfaker/config"
)

// defaultRetries bounds how often malformed model output is retried
// before the error surfaces to the caller.
const defaultRetries = 2

// prompter is the shared base of all generators: it runs a prompt,
// parses the response as JSON and validates the result against the
// payload's struct tags, retrying malformed output a bounded number of
// times.
type prompter struct {
	client   ai.Client
	cfg      config.Generator
	validate *validator.Validate
	retries  int
	log      zerolog.Logger
}

func newPrompter(cfg config.Generator, client ai.Client, log zerolog.Logger) prompter {
	return prompter{
		client:   client,
		cfg:      cfg,
		validate: validator.New(),
		retries:  defaultRetries,
		log:      log,
	}
}

// generate runs one prompt and decodes the JSON object in the response
// into out. record names the entity kind for error reporting.
func (p *prompter) generate(ctx context.Context, record, system, prompt string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		raw, err := p.client.Generate(ctx, system, prompt)
		if err != nil {
			// upstream failures are not retried here; the client
			// already retried transient transport errors
			return &GenerationError{Record: record, Err: err}
		}

		// decode into a zeroed value so fields from a rejected payload
		// never leak into a later attempt
		v := reflect.ValueOf(out).Elem()
		v.Set(reflect.Zero(v.Type()))

		if err := p.decode(record, raw, out); err != nil {
			lastErr = err
			p.log.Warn().Int("attempt", attempt+1).Err(err).Msgf("malformed %s payload", record)
			continue
		}
		return nil
	}
	return lastErr
}

func (p *prompter) decode(record, raw string, out interface{}) error {
	payload := extractJSON(raw)
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &GenerationError{Record: record, Err: err}
	}

	if err := p.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &GenerationError{Record: record, Field: verrs[0].Field(), Err: err}
		}
		return &GenerationError{Record: record, Err: err}
	}
	return nil
}

// extractJSON strips markdown code fences some models wrap around JSON
// payloads.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
