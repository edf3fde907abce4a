// Package ai provides the text-generation capability used by the
// generators: a prompt goes in, free-form model text comes out.
package ai

import "context"

// Client turns a system/user prompt pair into model output text. The
// generators expect the text to contain a single JSON object; enforcing
// that is the caller's job, not the client's.
type Client interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
