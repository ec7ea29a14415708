// Package secrets finds and masks credentials in code before it is sent to a model.
package secrets

import (
	"regexp"
	"strings"
)

// Marker replaces the value of a redacted assignment.
const Marker = "***REDACTED***"

// Kinds of secrets reported by Detect.
const (
	KindGoogleAPIKey = "Google API Key"
	KindOpenAIAPIKey = "OpenAI API Key"
	KindGitHubToken  = "GitHub Token"
	KindAWSAccessKey = "AWS Access Key"
	KindAPIKey       = "API Key"
	KindSecretKey    = "Secret Key"
	KindPassword     = "Password"
	KindAuthToken    = "Auth Token"
)

type detector struct {
	kind string
	re   *regexp.Regexp
}

var detectors = []detector{
	{KindGoogleAPIKey, regexp.MustCompile(`(?i)AIza[0-9A-Za-z_-]{35}`)},
	{KindOpenAIAPIKey, regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{32,}`)},
	{KindGitHubToken, regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`)},
	{KindAWSAccessKey, regexp.MustCompile(`(?i)aws_access_key_id\s*=\s*["'][A-Z0-9]{20}["']`)},
	{KindAPIKey, regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*=\s*["'][^"']{20,}["']`)},
	{KindSecretKey, regexp.MustCompile(`(?i)(secret[_-]?key|secret)\s*=\s*["'][^"']{20,}["']`)},
	{KindPassword, regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*["'][^"']{8,}["']`)},
	{KindAuthToken, regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*=\s*["'][^"']{20,}["']`)},
}

type redaction struct {
	re          *regexp.Regexp
	replacement string
}

var redactions = []redaction{
	{regexp.MustCompile(`(?i)AIza[0-9A-Za-z_-]{35}`), "***GOOGLE_API_KEY_REDACTED***"},
	{regexp.MustCompile(`(?i)sk-[a-zA-Z0-9]{32,}`), "***OPENAI_KEY_REDACTED***"},
	{regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`), "***GITHUB_TOKEN_REDACTED***"},
	{
		regexp.MustCompile(`(?i)(aws_access_key_id|api[_-]?key|apikey|api[_-]?secret|secret[_-]?key|secret|token|password|passwd|pwd)\s*=\s*["']([^"']{8,})["']`),
		`${1}="` + Marker + `"`,
	},
}

// Detect returns the kinds of secrets found in code, in a fixed order and without duplicates.
// Values that are already redaction markers are ignored.
func Detect(code string) []string {
	var kinds []string
	for _, d := range detectors {
		for _, match := range d.re.FindAllString(code, -1) {
			if !isRedacted(match) {
				kinds = append(kinds, d.kind)
				break
			}
		}
	}
	return kinds
}

// Redact masks every secret Detect can find.
func Redact(code string) string {
	for _, r := range redactions {
		code = r.re.ReplaceAllString(code, r.replacement)
	}
	return code
}

func isRedacted(match string) bool {
	return strings.Contains(match, "REDACTED***")
}
