package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/agents"
	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/llm"
	"github.com/scan-io-git/codemedic/pkg/issuecorrelation"
)

// Detector is the detection stage.
type Detector interface {
	Detect(ctx context.Context, sample findings.CodeSample) (*findings.FindingSet, error)
}

// Remediator is the remediation stage.
type Remediator interface {
	Remediate(ctx context.Context, sample findings.CodeSample, set *findings.FindingSet) (*findings.FixResult, error)
}

// Verifier is the verification stage.
type Verifier interface {
	Verify(ctx context.Context, sample findings.CodeSample, fixedCode string, set *findings.FindingSet) (*findings.ValidationReport, error)
}

// Result is the outcome of one run. Exactly one of the following holds:
// State is Clean and Findings is set; State is Done and Findings, Fix and Report are set;
// State is Failed and Failure is set.
type Result struct {
	RunID      string                       `json:"run_id"`
	State      State                        `json:"state"`
	Sample     findings.CodeSample          `json:"sample"`
	Findings   *findings.FindingSet         `json:"findings,omitempty"`
	Fix        *findings.FixResult          `json:"fix,omitempty"`
	Report     *findings.ValidationReport   `json:"report,omitempty"`
	Failure    *agents.StageError           `json:"failure,omitempty"`
	Comparison *issuecorrelation.Comparison `json:"comparison,omitempty"`
	Attempts   map[agents.Stage]int         `json:"attempts"`
	StartedAt  time.Time                    `json:"started_at"`
	FinishedAt time.Time                    `json:"finished_at"`
}

// Succeeded reports whether the run ended Clean or Done.
func (r *Result) Succeeded() bool {
	return r != nil && r.State.Succeeded()
}

// Controller drives a code sample through detection, remediation and verification.
type Controller struct {
	detector   Detector
	remediator Remediator
	verifier   Verifier
	retry      RetryPolicy
	logger     hclog.Logger
	now        func() time.Time
}

// NewController creates a controller over the given stages.
func NewController(detector Detector, remediator Remediator, verifier Verifier, retry RetryPolicy, logger hclog.Logger) *Controller {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Controller{
		detector:   detector,
		remediator: remediator,
		verifier:   verifier,
		retry:      retry.normalized(),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewFromGateway wires the three model-backed stages around one gateway.
func NewFromGateway(gateway *llm.Gateway, retry RetryPolicy, logger hclog.Logger) *Controller {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return NewController(
		agents.NewDetector(gateway, logger.Named("detector")),
		agents.NewRemediator(gateway, logger.Named("remediator")),
		agents.NewVerifier(gateway, logger.Named("verifier")),
		retry,
		logger,
	)
}

// Run executes one pipeline run for sample and records its progress on session.
// The previous state of the session is discarded; only its findings are kept long enough
// to compare them with the new ones. Run never returns nil.
func (c *Controller) Run(ctx context.Context, session *Session, sample findings.CodeSample) *Result {
	if session == nil {
		session = NewSession()
	}

	result := &Result{
		RunID:     uuid.NewString(),
		State:     StateIdle,
		Sample:    sample,
		Attempts:  map[agents.Stage]int{},
		StartedAt: c.now(),
	}
	previous := session.Result()
	session.reset(result.StartedAt)
	logger := c.logger.With("run_id", result.RunID, "session_id", session.ID())
	logger.Info("pipeline run started", "language", sample.Language, "code_bytes", len(sample.Code))

	if strings.TrimSpace(sample.Code) == "" {
		return c.fail(logger, session, result, agents.NewInputError(agents.StageDetector, "Please enter some code to analyze"))
	}

	c.transition(session, result, StateDetecting)
	set, failure := runStage(ctx, c, session, result, agents.StageDetector, func(ctx context.Context) (*findings.FindingSet, error) {
		return c.detector.Detect(ctx, sample)
	})
	if failure != nil {
		return c.fail(logger, session, result, failure)
	}
	result.Findings = set
	if previous != nil && previous.Findings != nil {
		comparison := issuecorrelation.Compare(previous.Findings.Issues, set.Issues)
		comparison.PreviousRunID = previous.RunID
		result.Comparison = &comparison
	}

	if set.Empty() {
		c.transition(session, result, StateClean)
		return c.finish(logger, session, result)
	}

	c.transition(session, result, StateFixing)
	fix, failure := runStage(ctx, c, session, result, agents.StageRemediator, func(ctx context.Context) (*findings.FixResult, error) {
		return c.remediator.Remediate(ctx, sample, set)
	})
	if failure != nil {
		return c.fail(logger, session, result, failure)
	}
	result.Fix = fix

	c.transition(session, result, StateValidating)
	report, failure := runStage(ctx, c, session, result, agents.StageVerifier, func(ctx context.Context) (*findings.ValidationReport, error) {
		return c.verifier.Verify(ctx, sample, fix.FixedCode, set)
	})
	if failure != nil {
		return c.fail(logger, session, result, failure)
	}
	result.Report = report

	c.transition(session, result, StateDone)
	return c.finish(logger, session, result)
}

// runStage calls fn until it succeeds, fails terminally or the retry budget is spent.
// Only transient failures are retried, each after the fixed policy delay.
func runStage[T any](ctx context.Context, c *Controller, session *Session, result *Result, stage agents.Stage, fn func(context.Context) (T, error)) (T, *agents.StageError) {
	var zero T
	for attempt := 1; ; attempt++ {
		result.Attempts[stage] = attempt

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		stageErr := agents.Classify(stage, err)
		if !stageErr.Transient() {
			return zero, stageErr
		}
		if attempt >= c.retry.MaxAttempts {
			return zero, stageErr.Exhausted(attempt)
		}

		c.logger.Warn("rate limit reached, waiting before retry",
			"run_id", result.RunID, "stage", stage, "attempt", attempt, "max_attempts", c.retry.MaxAttempts, "delay", c.retry.Delay)
		session.record(Event{
			Kind:        EventRetry,
			Stage:       stage,
			Attempt:     attempt,
			MaxAttempts: c.retry.MaxAttempts,
			Delay:       c.retry.Delay,
			At:          c.now(),
		})
		if err := c.retry.Sleep(ctx, c.retry.Delay); err != nil {
			return zero, agents.Classify(stage, err)
		}
	}
}

func (c *Controller) transition(session *Session, result *Result, to State) {
	from := result.State
	result.State = to
	session.record(Event{Kind: EventTransition, From: from, To: to, At: c.now()})
}

func (c *Controller) fail(logger hclog.Logger, session *Session, result *Result, failure *agents.StageError) *Result {
	result.Failure = failure
	c.transition(session, result, StateFailed)
	logger.Error("pipeline run failed", "stage", failure.Stage, "kind", failure.Kind, "error", failure.Error())
	return c.finish(logger, session, result)
}

func (c *Controller) finish(logger hclog.Logger, session *Session, result *Result) *Result {
	result.FinishedAt = c.now()
	session.finish(result)
	logger.Info("pipeline run finished", "state", result.State, "duration", result.FinishedAt.Sub(result.StartedAt))
	return result
}
