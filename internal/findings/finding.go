package findings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Severity levels a detector is asked to use.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// Validation statuses reported by the verifier.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusUnknown = "UNKNOWN"
)

// Severities lists the recognised severity levels from most to least severe.
var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// CodeSample is the source text submitted for analysis together with its declared language.
// It is passed to every stage untouched.
type CodeSample struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Finding is one detected defect.
type Finding struct {
	LineNumber  LineNumber `json:"line_number"`
	IssueType   string     `json:"issue_type"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
	CodeSnippet string     `json:"code_snippet"`
	Suggestion  string     `json:"suggestion"`
}

// UnmarshalJSON decodes a finding field by field so one oddly typed value does not
// discard the rest. A bare string entry is taken as the description.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var raw struct {
		LineNumber  LineNumber `json:"line_number"`
		IssueType   Text       `json:"issue_type"`
		Severity    Text       `json:"severity"`
		Description Text       `json:"description"`
		CodeSnippet Text       `json:"code_snippet"`
		Suggestion  Text       `json:"suggestion"`
	}
	if !isObject(data) {
		*f = Finding{Description: rawText(data)}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Finding{
		LineNumber:  raw.LineNumber,
		IssueType:   string(raw.IssueType),
		Severity:    string(raw.Severity),
		Description: string(raw.Description),
		CodeSnippet: string(raw.CodeSnippet),
		Suggestion:  string(raw.Suggestion),
	}
	return nil
}

// FindingSet is the detector output: findings in detection order plus aggregate counts.
type FindingSet struct {
	Issues            []Finding `json:"issues"`
	TotalFound        int       `json:"total_found"`
	CriticalCount     int       `json:"critical_count"`
	HighCount         int       `json:"high_count"`
	MediumCount       int       `json:"medium_count"`
	LowCount          int       `json:"low_count"`
	UnrecognizedCount int       `json:"unrecognized_count"`
	Summary           string    `json:"summary"`
}

// Empty reports whether the set holds no findings. A nil set is empty.
func (s *FindingSet) Empty() bool {
	return s == nil || len(s.Issues) == 0
}

// CountBySeverity returns the stored aggregate for a severity level.
// Anything other than the four named levels maps to the unrecognized bucket.
func (s *FindingSet) CountBySeverity(severity string) int {
	if s == nil {
		return 0
	}
	switch severity {
	case SeverityCritical:
		return s.CriticalCount
	case SeverityHigh:
		return s.HighCount
	case SeverityMedium:
		return s.MediumCount
	case SeverityLow:
		return s.LowCount
	default:
		return s.UnrecognizedCount
	}
}

// CanonicalJSON renders the set the way it is embedded into downstream prompts.
func (s *FindingSet) CanonicalJSON() (string, error) {
	if s == nil {
		s = &FindingSet{Issues: []Finding{}}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize findings: %w", err)
	}
	return string(data), nil
}

// Fix describes one change made by the remediator.
type Fix struct {
	Issue          string `json:"issue"`
	FixDescription string `json:"fix_description"`
	Before         string `json:"before,omitempty"`
	After          string `json:"after,omitempty"`
}

// UnmarshalJSON decodes a fix field by field. A bare string entry is taken as the fix description.
func (f *Fix) UnmarshalJSON(data []byte) error {
	var raw struct {
		Issue          Text `json:"issue"`
		FixDescription Text `json:"fix_description"`
		Before         Text `json:"before"`
		After          Text `json:"after"`
	}
	if !isObject(data) {
		*f = Fix{FixDescription: rawText(data)}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Fix{
		Issue:          string(raw.Issue),
		FixDescription: string(raw.FixDescription),
		Before:         string(raw.Before),
		After:          string(raw.After),
	}
	return nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// FixResult is the remediator output.
type FixResult struct {
	FixedCode           string `json:"fixed_code"`
	FixesApplied        []Fix  `json:"fixes_applied"`
	ImprovementsSummary string `json:"improvements_summary"`
}

// ValidationReport is the verifier output. Scores are nominally in [0,100] but are kept as returned.
type ValidationReport struct {
	ValidationStatus string   `json:"validation_status"`
	OverallScore     float64  `json:"overall_score"`
	SyntaxScore      float64  `json:"syntax_score"`
	LogicScore       float64  `json:"logic_score"`
	SecurityScore    float64  `json:"security_score"`
	PerformanceScore float64  `json:"performance_score"`
	ReadabilityScore float64  `json:"readability_score"`
	IssuesFixed      int      `json:"issues_fixed"`
	RemainingIssues  TextList `json:"remaining_issues"`
	NewIssues        TextList `json:"new_issues"`
	Recommendations  TextList `json:"recommendations"`
	Summary          string   `json:"summary"`
}

// Passed reports whether the verifier accepted the fix.
func (r *ValidationReport) Passed() bool {
	return r != nil && r.ValidationStatus == StatusPass
}
