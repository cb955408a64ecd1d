package contract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedOutput marks model output that does not satisfy the expected
// JSON shape.
var ErrMalformedOutput = errors.New("malformed model output")

// MalformedOutputError carries the span that failed to decode.
type MalformedOutputError struct {
	Snippet string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%v: %v (output: %q)", ErrMalformedOutput, e.Err, e.Snippet)
}

func (e *MalformedOutputError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}

// Decode extracts the JSON value from text and unmarshals it into v.
func Decode(text string, v any) error {
	span := ExtractJSON(text)
	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &MalformedOutputError{Snippet: snippet(span), Err: err}
	}
	return nil
}
