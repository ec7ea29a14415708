package sarif

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scan-io-git/codemedic/internal/findings"
)

const (
	levelError   = "error"
	levelWarning = "warning"
	levelNote    = "note"
	levelNone    = "none"

	fingerprintKey = "primaryLocationLineHash"
	genericRuleID  = "code-issue"
)

// levelForSeverity maps a finding severity onto a SARIF level. Severities outside the known set become none.
func levelForSeverity(severity string) string {
	switch severity {
	case findings.SeverityCritical, findings.SeverityHigh:
		return levelError
	case findings.SeverityMedium:
		return levelWarning
	case findings.SeverityLow:
		return levelNote
	default:
		return levelNone
	}
}

// displaySeverity keeps known severities as reported and title-cases anything else.
func displaySeverity(severity, level string) string {
	if level != levelNone {
		return severity
	}
	normalized := strings.ToLower(strings.TrimSpace(severity))
	if normalized == "" {
		return "Unknown"
	}
	return cases.Title(language.Und).String(normalized)
}

// ruleIDFor builds a stable kebab-case rule ID from a free-form issue type.
func ruleIDFor(issueType string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(issueType) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	id := strings.TrimSuffix(b.String(), "-")
	if id == "" {
		return genericRuleID
	}
	return id
}

func ruleName(issueType string) string {
	if strings.TrimSpace(issueType) == "" {
		return "Code issue"
	}
	return issueType
}

func issueMessage(issue findings.Finding) string {
	if issue.Description != "" {
		return issue.Description
	}
	return ruleName(issue.IssueType)
}

// fingerprint identifies a finding by type, line and snippet so repeated runs over the same code match up.
func fingerprint(issue findings.Finding) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s",
		strings.ToLower(issue.IssueType), issue.LineNumber.String(), strings.TrimSpace(issue.CodeSnippet))))
	return hex.EncodeToString(sum[:])
}
