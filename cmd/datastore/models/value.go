package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ValueText converts the raw value of a request body into the text that is stored.
// Strings are stored verbatim, any other JSON value as its compact JSON text.
// A missing or null value is an input fault.
func ValueText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("%w: value is required", ErrInvalidInput)
	}

	if trimmed[0] == '"' {
		var text string
		err := json.Unmarshal(trimmed, &text)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		return text, nil
	}

	var buf bytes.Buffer
	err := json.Compact(&buf, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	return buf.String(), nil
}
