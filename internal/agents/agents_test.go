package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/llm"
)

type reply struct {
	text string
	err  error
}

// scriptedGenerator returns its replies in order and records every prompt.
type scriptedGenerator struct {
	replies []reply
	prompts []string
	params  []llm.GenerationConfig
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt string, params llm.GenerationConfig) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.params = append(s.params, params)
	if len(s.replies) == 0 {
		return "", errors.New("unexpected model call")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

func newGateway(gen llm.Generator) *llm.Gateway {
	return llm.NewGateway(gen, hclog.NewNullLogger())
}

func requireStageError(t *testing.T, err error) *StageError {
	t.Helper()
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	return stageErr
}

func TestDetectorRejectsBlankInput(t *testing.T) {
	for _, code := range []string{"", "   ", "\n\t  \n"} {
		t.Run(fmt.Sprintf("%q", code), func(t *testing.T) {
			gen := &scriptedGenerator{}
			_, err := NewDetector(newGateway(gen), nil).Detect(context.Background(), findings.CodeSample{Code: code, Language: "Python"})

			stageErr := requireStageError(t, err)
			assert.Equal(t, KindInput, stageErr.Kind)
			assert.Equal(t, StageDetector, stageErr.Stage)
			assert.Equal(t, "Please enter some code to analyze", stageErr.Message)
			assert.Empty(t, gen.prompts)
		})
	}
}

func TestDetectorCompletesSchema(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "```json\n" + `{
		"issues": [
			{"line_number": 1, "issue_type": "Syntax Error", "severity": "Critical", "description": "missing colon"},
			{"line_number": 2, "issue_type": "Naming", "severity": "Low"},
			{"line_number": 2, "issue_type": "Docs", "severity": "Info"}
		],
		"high_count": 5
	}` + "\n```"}}}

	set, err := NewDetector(newGateway(gen), nil).Detect(context.Background(), findings.CodeSample{Code: "def f(x)\n    return x", Language: "Python"})
	require.NoError(t, err)

	assert.Equal(t, 3, set.TotalFound)
	assert.Equal(t, 1, set.CriticalCount)
	assert.Equal(t, 5, set.HighCount)
	assert.Equal(t, 0, set.MediumCount)
	assert.Equal(t, 1, set.LowCount)
	assert.Equal(t, 1, set.UnrecognizedCount)
	assert.Equal(t, "Found 3 issues", set.Summary)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "def f(x)\n    return x")
	assert.Equal(t, float32(0.3), gen.params[0].Temperature)
	assert.Len(t, gen.params[0].SafetyOverrides, 4)
}

func TestDetectorParseErrorCarriesRaw(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "The code looks fine to me."}}}
	_, err := NewDetector(newGateway(gen), nil).Detect(context.Background(), findings.CodeSample{Code: "x = 1"})

	stageErr := requireStageError(t, err)
	assert.Equal(t, KindParse, stageErr.Kind)
	assert.Equal(t, "The code looks fine to me.", stageErr.Raw)
	assert.Equal(t, "Try again with different code or simplify your input", stageErr.Suggestion)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{name: "rate limit sentinel", err: fmt.Errorf("%w: slow down", llm.ErrRateLimited), wantKind: KindRateLimit},
		{name: "content sentinel", err: fmt.Errorf("%w: SAFETY", llm.ErrContentBlocked), wantKind: KindContentPolicy},
		{name: "quota text", err: errors.New("Quota exceeded for quota metric"), wantKind: KindRateLimit},
		{name: "429 text", err: errors.New("googleapi: Error 429: Too Many Requests"), wantKind: KindRateLimit},
		{name: "resource exhausted text", err: errors.New("RESOURCE_EXHAUSTED"), wantKind: KindRateLimit},
		{name: "rate word", err: errors.New("request rate exceeded"), wantKind: KindRateLimit},
		{name: "generate is not rate", err: errors.New("failed to generate content"), wantKind: KindGeneric},
		{name: "dangerous content text", err: errors.New("blocked: HARM_CATEGORY_DANGEROUS_CONTENT"), wantKind: KindContentPolicy},
		{name: "safety text", err: errors.New("response was blocked due to SAFETY"), wantKind: KindContentPolicy},
		{name: "parse error", err: &llm.ParseError{Raw: "nope", Err: errors.New("bad")}, wantKind: KindParse},
		{name: "slot mismatch", err: &llm.SlotMismatchError{Template: "detect", Missing: []string{"code"}}, wantKind: KindGeneric},
		{name: "cancelled", err: fmt.Errorf("request: %w", context.Canceled), wantKind: KindGeneric},
		{name: "anything else", err: errors.New("connection reset by peer"), wantKind: KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stageErr := Classify(StageVerifier, tt.err)
			assert.Equal(t, tt.wantKind, stageErr.Kind)
			assert.Equal(t, StageVerifier, stageErr.Stage)
			assert.NotEmpty(t, stageErr.Message)
			assert.NotEmpty(t, stageErr.Suggestion)
			assert.ErrorIs(t, stageErr, tt.err)
			assert.Equal(t, tt.wantKind == KindRateLimit, stageErr.Transient())
		})
	}

	assert.Nil(t, Classify(StageDetector, nil))
}

func TestClassifyKeepsStageErrors(t *testing.T) {
	original := NewInputError(StageDetector, "empty")
	assert.Same(t, original, Classify(StageVerifier, fmt.Errorf("wrapped: %w", original)))
}

func TestStageErrorMessages(t *testing.T) {
	err := Classify(StageRemediator, errors.New("boom"))
	assert.Equal(t, "Remediator error", err.Message)
	assert.Equal(t, "remediator: Remediator error: boom", err.Error())

	exhausted := Classify(StageDetector, llm.ErrRateLimited).Exhausted(2)
	assert.Equal(t, KindRateLimitExhausted, exhausted.Kind)
	assert.False(t, exhausted.Transient())
	assert.Equal(t, "Please wait 1 minute and try again", exhausted.Suggestion)
	assert.ErrorIs(t, exhausted, llm.ErrRateLimited)
}

func TestRemediatorShortCircuitsWithoutFindings(t *testing.T) {
	tests := []struct {
		name string
		code string
		set  *findings.FindingSet
	}{
		{name: "nil set", code: "print('hi')", set: nil},
		{name: "empty issues", code: "print('hi')", set: &findings.FindingSet{Issues: []findings.Finding{}, Summary: findings.CleanSummary}},
		{name: "empty issues and blank code", code: "", set: &findings.FindingSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{}
			fix, err := NewRemediator(newGateway(gen), nil).Remediate(context.Background(), findings.CodeSample{Code: tt.code}, tt.set)
			require.NoError(t, err)

			assert.Equal(t, tt.code, fix.FixedCode)
			assert.Empty(t, fix.FixesApplied)
			assert.Equal(t, findings.NothingToFixSummary, fix.ImprovementsSummary)
			assert.Empty(t, gen.prompts)
		})
	}
}

func oneFinding() *findings.FindingSet {
	return &findings.FindingSet{
		Issues: []findings.Finding{{
			LineNumber:  1,
			IssueType:   "Syntax Error",
			Severity:    findings.SeverityCritical,
			Description: "Missing colon at end of function definition",
			CodeSnippet: "def f(x)",
			Suggestion:  "def f(x):",
		}},
		TotalFound:    1,
		CriticalCount: 1,
		Summary:       "Found 1 issues",
	}
}

func TestRemediatorRequiresFixedCode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "absent", body: `{"fixes_applied": [{"issue": "a", "fix_description": "b"}], "improvements_summary": "all good"}`},
		{name: "empty", body: `{"fixed_code": "", "fixes_applied": []}`},
		{name: "blank", body: `{"fixed_code": "   \n"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []reply{{text: tt.body}}}
			_, err := NewRemediator(newGateway(gen), nil).Remediate(context.Background(), findings.CodeSample{Code: "def f(x)\n    return x"}, oneFinding())

			stageErr := requireStageError(t, err)
			assert.Equal(t, KindSchema, stageErr.Kind)
			assert.Equal(t, StageRemediator, stageErr.Stage)
			assert.ErrorIs(t, err, findings.ErrMissingFixedCode)
		})
	}
}

func TestRemediatorSendsCanonicalFindings(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: `{"fixed_code": "def f(x):\n    return x"}`}}}
	set := oneFinding()

	fix, err := NewRemediator(newGateway(gen), nil).Remediate(context.Background(), findings.CodeSample{Code: "def f(x)\n    return x"}, set)
	require.NoError(t, err)

	assert.Equal(t, "def f(x):\n    return x", fix.FixedCode)
	assert.Equal(t, "Applied 0 fixes", fix.ImprovementsSummary)

	canonical, err := set.CanonicalJSON()
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], canonical)
	assert.Equal(t, float32(0.4), gen.params[0].Temperature)
	assert.Equal(t, float32(0.9), gen.params[0].TopP)
}

func TestRemediatorClassifiesGeneratorErrors(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{err: fmt.Errorf("%w: 429", llm.ErrRateLimited)}}}
	_, err := NewRemediator(newGateway(gen), nil).Remediate(context.Background(), findings.CodeSample{Code: "x"}, oneFinding())

	stageErr := requireStageError(t, err)
	assert.Equal(t, KindRateLimit, stageErr.Kind)
	assert.True(t, stageErr.Transient())
}

func TestVerifierAlwaysCallsModel(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: `{}`}}}
	report, err := NewVerifier(newGateway(gen), nil).Verify(context.Background(), findings.CodeSample{Code: "x = 1"}, "x = 1", nil)
	require.NoError(t, err)

	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, findings.StatusUnknown, report.ValidationStatus)
	assert.Equal(t, findings.DefaultReportSummary, report.Summary)
	assert.NotNil(t, report.RemainingIssues)
	assert.NotNil(t, report.NewIssues)
	assert.NotNil(t, report.Recommendations)
}

func TestVerifierKeepsPresentFields(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: "```\n" + `{"validation_status": "FAIL", "overall_score": 40, "remaining_issues": ["still broken"]}` + "\n```"}}}
	report, err := NewVerifier(newGateway(gen), nil).Verify(context.Background(), findings.CodeSample{Code: "a"}, "b", oneFinding())
	require.NoError(t, err)

	assert.Equal(t, findings.StatusFail, report.ValidationStatus)
	assert.Equal(t, 40.0, report.OverallScore)
	assert.Equal(t, 0.0, report.SyntaxScore)
	assert.Equal(t, findings.TextList{"still broken"}, report.RemainingIssues)
	assert.Equal(t, findings.TextList{}, report.NewIssues)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Original code (with problems):\na\n")
	assert.Contains(t, gen.prompts[0], "Fixed code:\nb\n")
	assert.Contains(t, gen.prompts[0], `"issue_type": "Syntax Error"`)
}

func TestMissingColonScenario(t *testing.T) {
	const code = "def f(x)\n    return x"
	gen := &scriptedGenerator{replies: []reply{
		{text: `{"issues": [{"line_number": 1, "issue_type": "Syntax Error", "severity": "Critical", "description": "Missing colon", "code_snippet": "def f(x)", "suggestion": "def f(x):"}]}`},
		{text: "```json\n{\"fixed_code\": \"def f(x):\\n    return x\", \"fixes_applied\": [{\"issue\": \"Syntax Error on line 1\", \"fix_description\": \"Added colon\"}]}\n```"},
		{text: `{"validation_status": "PASS", "overall_score": 95, "syntax_score": 100, "issues_fixed": 1, "remaining_issues": [], "new_issues": []}`},
	}}
	gw := newGateway(gen)
	sample := findings.CodeSample{Code: code, Language: "Python"}
	ctx := context.Background()

	set, err := NewDetector(gw, nil).Detect(ctx, sample)
	require.NoError(t, err)
	require.Len(t, set.Issues, 1)
	assert.Equal(t, "Syntax Error", set.Issues[0].IssueType)
	assert.Equal(t, findings.SeverityCritical, set.Issues[0].Severity)
	assert.Equal(t, findings.LineNumber(1), set.Issues[0].LineNumber)

	fix, err := NewRemediator(gw, nil).Remediate(ctx, sample, set)
	require.NoError(t, err)
	assert.Equal(t, "def f(x):\n    return x", fix.FixedCode)
	assert.Equal(t, "Applied 1 fixes", fix.ImprovementsSummary)

	report, err := NewVerifier(gw, nil).Verify(ctx, sample, fix.FixedCode, set)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.GreaterOrEqual(t, report.OverallScore, 70.0)
	assert.Empty(t, report.NewIssues)
	assert.NotContains(t, report.RemainingIssues, "Syntax Error")
}

func TestStagesKeepResponsesWithOddFieldTypes(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{text: `{"issues": [{"line_number": 1, "issue_type": "Syntax Error", "severity": "Critical", "suggestion": ["add a colon", "run a linter"]}]}`},
		{text: `{"validation_status": "PASS", "overall_score": "85/100", "issues_fixed": "all"}`},
	}}
	gateway := newGateway(gen)
	sample := findings.CodeSample{Code: "def f(x)\n    return x", Language: "Python"}

	set, err := NewDetector(gateway, nil).Detect(context.Background(), sample)
	require.NoError(t, err)
	require.Len(t, set.Issues, 1)
	assert.Equal(t, "add a colon\nrun a linter", set.Issues[0].Suggestion)

	report, err := NewVerifier(gateway, nil).Verify(context.Background(), sample, "def f(x):\n    return x", set)
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Equal(t, 0.0, report.OverallScore)
	assert.Equal(t, 0, report.IssuesFixed)
}
