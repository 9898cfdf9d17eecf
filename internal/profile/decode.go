package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned by Decode when the body is valid JSON but not an object.
var ErrNotObject = errors.New("profile must be a JSON object")

// Decode reads a JSON object into a RawInput. Numbers are kept as
// json.Number so Normalize sees the value exactly as sent.
func Decode(r io.Reader) (RawInput, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return RawInput(obj), nil
}
