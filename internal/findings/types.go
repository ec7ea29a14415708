package findings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LineNumber is a 1-based source line. Zero means the model could not tell.
type LineNumber int

// UnknownLine is the sentinel for an unknown location.
const UnknownLine LineNumber = 0

const unknownLineText = "unknown"

// Known reports whether the line number points at a real line.
func (n LineNumber) Known() bool {
	return n > 0
}

func (n LineNumber) String() string {
	if !n.Known() {
		return unknownLineText
	}
	return strconv.Itoa(int(n))
}

// MarshalJSON emits the line as an integer, or "unknown".
func (n LineNumber) MarshalJSON() ([]byte, error) {
	if !n.Known() {
		return []byte(`"` + unknownLineText + `"`), nil
	}
	return []byte(strconv.Itoa(int(n))), nil
}

// UnmarshalJSON accepts numbers, numeric strings such as "12" or "12-14", null and free text.
// Anything that does not yield a positive line becomes UnknownLine.
func (n *LineNumber) UnmarshalJSON(data []byte) error {
	*n = UnknownLine

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("invalid line_number %s: %w", trimmed, err)
		}
		digits := leadingDigits(strings.TrimSpace(s))
		if digits == "" {
			return nil
		}
		if v, err := strconv.Atoi(digits); err == nil && v > 0 {
			*n = LineNumber(v)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		// objects, arrays and booleans carry no usable location
		return nil
	}
	if f >= 1 {
		*n = LineNumber(int(f))
	}
	return nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// TextList is a list of free-text entries. Non-string entries returned by the model
// are kept as compact JSON text, and a lone string becomes a one-entry list.
type TextList []string

// UnmarshalJSON implements json.Unmarshaler. Any other value becomes a one-entry list of its JSON text.
func (l *TextList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = TextList{}
		if single := rawText(data); strings.TrimSpace(single) != "" {
			*l = TextList{single}
		}
		return nil
	}

	out := make(TextList, 0, len(items))
	for _, item := range items {
		out = append(out, rawText(item))
	}
	*l = out
	return nil
}

// MarshalJSON emits an empty list rather than null.
func (l TextList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Text is a free-text field. A list is joined line by line, and numbers,
// booleans or objects are kept as compact JSON. Null is empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list TextList
		if err := list.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*t = Text(strings.Join(list, "\n"))
		return nil
	}
	*t = Text(rawText(trimmed))
	return nil
}

// rawText returns a JSON string value as is and any other value as compact JSON.
func rawText(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// Number is a numeric field as the model returned it. Numbers and strings holding
// a number are valid; anything else such as "85/100", "all" or a list is kept invalid
// so the field falls back to its default.
type Number struct {
	value json.Number
	valid bool
}

// Valid reports whether a usable number was decoded.
func (n Number) Valid() bool {
	return n.valid
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	switch v := v.(type) {
	case json.Number:
		n.value, n.valid = v, true
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n.value, n.valid = json.Number(s), true
		}
	}
	return nil
}

// Int returns the value truncated to an int.
func (n Number) Int() (int, bool) {
	if !n.valid {
		return 0, false
	}
	if v, err := n.value.Int64(); err == nil {
		return int(v), true
	}
	if f, err := n.value.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f), true
	}
	return 0, false
}

// Float returns the value as a float64.
func (n Number) Float() (float64, bool) {
	if !n.valid {
		return 0, false
	}
	f, err := n.value.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
