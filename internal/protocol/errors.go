package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// DecodeError reports a record that is not a well-formed encoding of the
// expected shape: unknown variant tag, missing field, null in a required
// position, type mismatch or a truncated/oversized record.
type DecodeError struct {
	Shape  string // expected shape, e.g. "Command", "bool", "Item"
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Shape, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Shape, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(shape, reason string, err error) *DecodeError {
	return &DecodeError{Shape: shape, Reason: reason, Err: err}
}

var jsonNull = []byte("null")

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// requireFields checks that raw is a JSON object carrying every required key.
// Keys listed in nullable may hold null; all others must not.
func requireFields(raw []byte, shape string, required []string, nullable ...string) error {
	if isNull(raw) {
		return newDecodeError(shape, "expected object, got null", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return newDecodeError(shape, "expected object", err)
	}
	for _, name := range required {
		value, ok := fields[name]
		if !ok {
			return newDecodeError(shape, fmt.Sprintf("missing field %q", name), nil)
		}
		if isNull(value) && !slices.Contains(nullable, name) {
			return newDecodeError(shape, fmt.Sprintf("field %q must not be null", name), nil)
		}
	}
	return nil
}
