package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/codemedic/internal/agents"
	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/pkg/issuecorrelation"
)

func doneResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:  "run-1",
		State:  pipeline.StateDone,
		Sample: findings.CodeSample{Code: "def f(x)\n    return x", Language: "Python"},
		Findings: &findings.FindingSet{
			Issues: []findings.Finding{
				{LineNumber: 1, IssueType: "Syntax Error", Severity: findings.SeverityCritical, Description: "missing colon", Suggestion: "add ':'"},
				{LineNumber: findings.UnknownLine, IssueType: "Style", Severity: "cosmetic"},
			},
			TotalFound:        2,
			CriticalCount:     1,
			UnrecognizedCount: 1,
			Summary:           "Found 2 issues",
		},
		Fix: &findings.FixResult{
			FixedCode:           "def f(x):\n    return x",
			FixesApplied:        []findings.Fix{{Issue: "Syntax Error", FixDescription: "added colon"}},
			ImprovementsSummary: "Applied 1 fixes",
		},
		Report: &findings.ValidationReport{
			ValidationStatus: findings.StatusPass,
			OverallScore:     92.5,
			IssuesFixed:      1,
			Recommendations:  findings.TextList{"add type hints"},
			Summary:          "Looks correct",
		},
		FinishedAt: time.Date(2026, time.October, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestRenderDoneResult(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	text, err := renderer.Text(doneResult())
	require.NoError(t, err)

	assert.Contains(t, text, "CODE ANALYSIS REPORT\n===================\n\nLanguage: Python\n")
	assert.Contains(t, text, "Generated: 2nd October 2026 3:04:05 pm UTC\n")
	assert.Contains(t, text, "Total Issues Found: 2\n- Critical: 1\n- High: 0\n- Medium: 0\n- Low: 0\n- Other: 1\nFound 2 issues\n")
	assert.Contains(t, text, "1. [Critical] Syntax Error (line 1)\n   missing colon\n   Suggestion: add ':'\n")
	assert.Contains(t, text, "2. [cosmetic] Style (line unknown)\n")
	assert.Contains(t, text, "FIXES:\n------\n- Syntax Error: added colon\nApplied 1 fixes\n")
	assert.Contains(t, text, "Status: PASS\nOverall Score: 92.5/100\nIssues Fixed: 1\nRecommendations:\n- add type hints\n\nLooks correct\n")
	assert.NotContains(t, text, "ERROR:")
}

func TestRenderComparison(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	result := doneResult()
	result.Comparison = &issuecorrelation.Comparison{PreviousRunID: "run-0", Recurring: 1, New: 1, Resolved: 3}
	text, err := renderer.Text(result)
	require.NoError(t, err)

	assert.Contains(t, text, "Found 2 issues\nCompared with the previous run: 1 recurring, 1 new, 3 resolved\n\nISSUES:")

	result.Comparison.SeverityChanged = 1
	text, err = renderer.Text(result)
	require.NoError(t, err)
	assert.Contains(t, text, "Compared with the previous run: 1 recurring, 1 new, 3 resolved, 1 with a changed severity\n")
}

func TestRenderCleanResult(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	text, err := renderer.Text(&pipeline.Result{
		State:    pipeline.StateClean,
		Findings: &findings.FindingSet{Issues: []findings.Finding{}, Summary: findings.CleanSummary},
	})
	require.NoError(t, err)

	assert.Contains(t, text, "Language: Other\n")
	assert.Contains(t, text, "Result: clean\n")
	assert.Contains(t, text, "- Low: 0\nCode looks good!\n")
	assert.NotContains(t, text, "- Other:")
	assert.NotContains(t, text, "ISSUES:")
	assert.NotContains(t, text, "VALIDATION:")
}

func TestRenderFailedResult(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	text, err := renderer.Text(&pipeline.Result{
		State: pipeline.StateFailed,
		Failure: &agents.StageError{
			Stage:      agents.StageDetector,
			Kind:       agents.KindRateLimitExhausted,
			Message:    "Rate limit exceeded after 2 attempts",
			Suggestion: "Please wait 1 minute and try again",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, text, "Total Issues Found: 0\n")
	assert.Contains(t, text, "ERROR:\n------\nRate limit exceeded after 2 attempts\nSuggestion: Please wait 1 minute and try again\n")
	assert.NotContains(t, text, "Details:")
}

func TestRenderNilResult(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)
	_, err = renderer.Text(nil)
	assert.Error(t, err)
}

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, time.January, 1, 0, 5, 9, 0, time.UTC), "1st January 2026 12:05:09 am UTC"},
		{time.Date(2026, time.March, 23, 13, 0, 0, 0, time.UTC), "23rd March 2026 1:00:00 pm UTC"},
		{time.Date(2026, time.May, 11, 12, 30, 0, 0, time.UTC), "11th May 2026 12:30:00 pm UTC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDateTime(tt.in))
	}
}

func TestFixedCodeFileName(t *testing.T) {
	assert.Equal(t, "fixed_code.py", FixedCodeFileName("Python"))
	assert.Equal(t, "fixed_code.js", FixedCodeFileName("javascript"))
	assert.Equal(t, "fixed_code.txt", FixedCodeFileName("Other"))
}
