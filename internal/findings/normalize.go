package findings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingFixedCode is returned when a remediation response carries no usable code.
var ErrMissingFixedCode = errors.New("no fixed code was generated")

// Default texts used when the model omits a summary.
const (
	CleanSummary          = "Code looks good!"
	NothingToFixSummary   = "No issues detected, code is already good!"
	DefaultReportSummary  = "Validation completed"
	findingsSummaryFormat = "Found %d issues"
	fixesSummaryFormat    = "Applied %d fixes"
)

// RawFindingSet is the detector response as decoded, before defaults are applied.
// Nil fields were absent from the response.
type RawFindingSet struct {
	Issues        *[]Finding   `json:"issues"`
	TotalFound    *Number `json:"total_found"`
	CriticalCount *Number `json:"critical_count"`
	HighCount     *Number `json:"high_count"`
	MediumCount   *Number `json:"medium_count"`
	LowCount      *Number `json:"low_count"`
	Summary       *Text        `json:"summary"`
}

// Complete fills every absent field from the issues list. Present fields are trusted
// unless they hold no usable number, in which case they are treated as absent.
func (r *RawFindingSet) Complete() *FindingSet {
	issues := []Finding{}
	if r.Issues != nil && *r.Issues != nil {
		issues = *r.Issues
	}

	tally := TallySeverities(issues)
	set := &FindingSet{
		Issues:            issues,
		TotalFound:        numberOr(r.TotalFound, len(issues)),
		CriticalCount:     numberOr(r.CriticalCount, tally[SeverityCritical]),
		HighCount:         numberOr(r.HighCount, tally[SeverityHigh]),
		MediumCount:       numberOr(r.MediumCount, tally[SeverityMedium]),
		LowCount:          numberOr(r.LowCount, tally[SeverityLow]),
		UnrecognizedCount: tally[""],
	}

	switch {
	case r.Summary != nil:
		set.Summary = string(*r.Summary)
	case set.TotalFound > 0:
		set.Summary = fmt.Sprintf(findingsSummaryFormat, set.TotalFound)
	default:
		set.Summary = CleanSummary
	}
	return set
}

// TallySeverities counts findings per exact severity string.
// Findings with any other severity are counted under the empty key.
func TallySeverities(issues []Finding) map[string]int {
	tally := make(map[string]int, len(Severities)+1)
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
			tally[issue.Severity]++
		default:
			tally[""]++
		}
	}
	return tally
}

// RawFixResult is the remediator response as decoded.
type RawFixResult struct {
	FixedCode           *Text  `json:"fixed_code"`
	FixesApplied        *[]Fix `json:"fixes_applied"`
	ImprovementsSummary *Text  `json:"improvements_summary"`
}

// Complete applies defaults. A missing or blank fixed_code is an error.
func (r *RawFixResult) Complete() (*FixResult, error) {
	if r.FixedCode == nil || strings.TrimSpace(string(*r.FixedCode)) == "" {
		return nil, ErrMissingFixedCode
	}

	fixes := []Fix{}
	if r.FixesApplied != nil && *r.FixesApplied != nil {
		fixes = *r.FixesApplied
	}

	result := &FixResult{
		FixedCode:    string(*r.FixedCode),
		FixesApplied: fixes,
	}
	if r.ImprovementsSummary != nil {
		result.ImprovementsSummary = string(*r.ImprovementsSummary)
	} else {
		result.ImprovementsSummary = fmt.Sprintf(fixesSummaryFormat, len(fixes))
	}
	return result, nil
}

// UnchangedFix is the result for a sample with nothing to fix.
func UnchangedFix(code string) *FixResult {
	return &FixResult{
		FixedCode:           code,
		FixesApplied:        []Fix{},
		ImprovementsSummary: NothingToFixSummary,
	}
}

// RawValidationReport is the verifier response as decoded.
type RawValidationReport struct {
	ValidationStatus *Text        `json:"validation_status"`
	OverallScore     *Number `json:"overall_score"`
	SyntaxScore      *Number `json:"syntax_score"`
	LogicScore       *Number `json:"logic_score"`
	SecurityScore    *Number `json:"security_score"`
	PerformanceScore *Number `json:"performance_score"`
	ReadabilityScore *Number `json:"readability_score"`
	IssuesFixed      *Number `json:"issues_fixed"`
	RemainingIssues  *TextList    `json:"remaining_issues"`
	NewIssues        *TextList    `json:"new_issues"`
	Recommendations  *TextList    `json:"recommendations"`
	Summary          *Text        `json:"summary"`
}

// Complete backfills each absent field independently.
func (r *RawValidationReport) Complete() *ValidationReport {
	report := &ValidationReport{
		ValidationStatus: StatusUnknown,
		OverallScore:     floatOr(r.OverallScore, 0),
		SyntaxScore:      floatOr(r.SyntaxScore, 0),
		LogicScore:       floatOr(r.LogicScore, 0),
		SecurityScore:    floatOr(r.SecurityScore, 0),
		PerformanceScore: floatOr(r.PerformanceScore, 0),
		ReadabilityScore: floatOr(r.ReadabilityScore, 0),
		IssuesFixed:      numberOr(r.IssuesFixed, 0),
		RemainingIssues:  textListOr(r.RemainingIssues),
		NewIssues:        textListOr(r.NewIssues),
		Recommendations:  textListOr(r.Recommendations),
		Summary:          DefaultReportSummary,
	}
	if r.ValidationStatus != nil {
		report.ValidationStatus = string(*r.ValidationStatus)
	}
	if r.Summary != nil {
		report.Summary = string(*r.Summary)
	}
	return report
}

func numberOr(n *Number, fallback int) int {
	if n == nil {
		return fallback
	}
	if v, ok := n.Int(); ok {
		return v
	}
	return fallback
}

func floatOr(n *Number, fallback float64) float64 {
	if n == nil {
		return fallback
	}
	if f, ok := n.Float(); ok {
		return f
	}
	return fallback
}

func textListOr(l *TextList) TextList {
	if l == nil || *l == nil {
		return TextList{}
	}
	return *l
}
