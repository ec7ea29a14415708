package llm

import (
	"regexp"
	"strings"
)

const fence = "```"

var (
	jsonFence   = regexp.MustCompile("(?i)" + fence + "json")
	languageTag = regexp.MustCompile(`^[A-Za-z0-9_+#.\-]+$`)
)

// ExtractJSON pulls the JSON payload out of a model response.
// A fence tagged json wins, then the first fence of any kind, then the whole trimmed text.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)

	if loc := jsonFence.FindStringIndex(trimmed); loc != nil {
		return strings.TrimSpace(untilFence(trimmed[loc[1]:]))
	}

	if idx := strings.Index(trimmed, fence); idx >= 0 {
		body := untilFence(trimmed[idx+len(fence):])
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			if first := strings.TrimSpace(body[:nl]); first != "" && languageTag.MatchString(first) {
				body = body[nl+1:]
			}
		}
		return strings.TrimSpace(body)
	}

	return trimmed
}

// untilFence returns s up to the next closing fence, or all of s when the fence is unterminated.
func untilFence(s string) string {
	if end := strings.Index(s, fence); end >= 0 {
		return s[:end]
	}
	return s
}
