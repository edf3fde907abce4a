package gen

import "fmt"

// GenerationError reports model output that could not be turned into a
// valid record: unparseable JSON, a missing required field, or a failed
// upstream call.
type GenerationError struct {
	Record string // record kind being generated, e.g. "content"
	Field  string // offending field when known
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("generate %s: invalid field %q: %v", e.Record, e.Field, e.Err)
	}
	return fmt.Sprintf("generate %s: %v", e.Record, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigurationError reports contradictory or unusable input, like an
// empty category vocabulary or a user without preferences.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}
