package issuecorrelation

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// SnippetHash returns the SHA256 hex string of a code snippet with surrounding
// whitespace removed from every line and blank lines dropped, so re-indented code
// keeps its hash. Returns an empty string for an empty snippet.
func SnippetHash(snippet string) string {
	var lines []string
	for _, line := range strings.Split(snippet, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%x", sum[:])
}
