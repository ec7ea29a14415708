package llm

import (
	"fmt"
	"strings"
)

// ParseError is returned when a model response does not contain a decodable JSON object.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SlotMismatchError is returned when template arguments differ from the declared slots.
type SlotMismatchError struct {
	Template   string
	Missing    []string
	Unexpected []string
}

func (e *SlotMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("prompt template %q: slot mismatch: %s", e.Template, strings.Join(parts, "; "))
}
