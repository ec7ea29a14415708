package agents

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/scan-io-git/codemedic/internal/llm"
)

// Stage names a pipeline step.
type Stage string

const (
	StageDetector   Stage = "detector"
	StageRemediator Stage = "remediator"
	StageVerifier   Stage = "verifier"
)

// Title returns the capitalised stage name.
func (s Stage) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Kind classifies a stage failure.
type Kind string

const (
	KindGeneric            Kind = "generic"
	KindInput              Kind = "input"
	KindParse              Kind = "parse"
	KindSchema             Kind = "schema"
	KindContentPolicy      Kind = "content_policy"
	KindRateLimit          Kind = "rate_limit"
	KindRateLimitExhausted Kind = "rate_limit_exhausted"
)

var (
	contentPolicyKeywords = []string{"safety", "dangerous_content"}
	rateLimitKeywords     = []string{"quota", "limit", "429", "resource_exhausted"}

	// "rate" only as a whole word, so "generate" does not count
	rateWord = regexp.MustCompile(`(?i)\brate\b`)
)

// StageError is the only error type returned by a stage.
type StageError struct {
	Stage      Stage  `json:"stage"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`           // user-facing message
	Details    string `json:"details,omitempty"` // underlying error text
	Raw        string `json:"raw,omitempty"`     // raw model output, when there was one
	Suggestion string `json:"suggestion,omitempty"`
	Err        error  `json:"-"`
}

func (e *StageError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Message, e.Details)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the stage may succeed.
func (e *StageError) Transient() bool {
	return e != nil && e.Kind == KindRateLimit
}

// Exhausted converts a transient failure into its terminal form after the retry budget is spent.
func (e *StageError) Exhausted(attempts int) *StageError {
	out := *e
	out.Kind = KindRateLimitExhausted
	out.Message = fmt.Sprintf("Rate limit exceeded after %d attempts", attempts)
	out.Suggestion = "Please wait 1 minute and try again"
	return &out
}

// NewInputError reports unusable input. No model call is made for it.
func NewInputError(stage Stage, message string) *StageError {
	return &StageError{
		Stage:      stage,
		Kind:       KindInput,
		Message:    message,
		Suggestion: "Paste or upload the code you want to analyze",
	}
}

func newSchemaError(stage Stage, err error, raw string) *StageError {
	return &StageError{
		Stage:      stage,
		Kind:       KindSchema,
		Message:    "AI couldn't generate fixed code",
		Details:    err.Error(),
		Raw:        raw,
		Suggestion: "Try again, or reduce the amount of code submitted at once",
		Err:        err,
	}
}

// Classify maps an error from the call path onto a StageError.
// Typed sentinels win over the keyword heuristics applied to the error text.
func Classify(stage Stage, err error) *StageError {
	if err == nil {
		return nil
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}

	out := &StageError{Stage: stage, Details: err.Error(), Err: err}

	var parseErr *llm.ParseError
	var mismatch *llm.SlotMismatchError
	switch {
	case errors.As(err, &parseErr):
		out.Kind = KindParse
		out.Message = "AI response parsing failed"
		out.Raw = parseErr.Raw
		out.Suggestion = "Try again with different code or simplify your input"
	case errors.As(err, &mismatch):
		out.Kind = KindGeneric
		out.Message = fmt.Sprintf("%s error", stage.Title())
		out.Suggestion = "Please report this problem"
	case errors.Is(err, llm.ErrContentBlocked):
		setContentPolicy(out)
	case errors.Is(err, llm.ErrRateLimited):
		setRateLimit(out)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindGeneric
		out.Message = "Analysis was cancelled"
		out.Suggestion = "Run the analysis again"
	case containsAny(err.Error(), contentPolicyKeywords):
		setContentPolicy(out)
	case containsAny(err.Error(), rateLimitKeywords) || rateWord.MatchString(err.Error()):
		setRateLimit(out)
	default:
		out.Kind = KindGeneric
		out.Message = fmt.Sprintf("%s error", stage.Title())
		out.Suggestion = "Please try again or contact support"
	}
	return out
}

func setContentPolicy(e *StageError) {
	e.Kind = KindContentPolicy
	e.Message = "Safety block: the content was flagged by the model's safety filters"
	e.Suggestion = "Make sure the safety overrides are applied to the model call"
}

func setRateLimit(e *StageError) {
	e.Kind = KindRateLimit
	e.Message = "API rate limit reached"
	e.Suggestion = "Please wait a few seconds and try again"
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
