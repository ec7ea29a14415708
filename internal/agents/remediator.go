package agents

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/llm"
)

// Remediator asks the model to rewrite a code sample so the detected findings go away.
type Remediator struct {
	gateway *llm.Gateway
	logger  hclog.Logger
}

// NewRemediator creates a Remediator.
func NewRemediator(gateway *llm.Gateway, logger hclog.Logger) *Remediator {
	return &Remediator{gateway: gateway, logger: loggerOrNull(logger)}
}

// Remediate returns replacement code for sample.
// An empty or nil set short-circuits to the unchanged code without calling the model.
func (r *Remediator) Remediate(ctx context.Context, sample findings.CodeSample, set *findings.FindingSet) (*findings.FixResult, error) {
	if set.Empty() {
		r.logger.Debug("nothing to fix, skipping model call")
		return findings.UnchangedFix(sample.Code), nil
	}
	if strings.TrimSpace(sample.Code) == "" {
		return nil, NewInputError(StageRemediator, "No code to fix")
	}

	issues, err := set.CanonicalJSON()
	if err != nil {
		return nil, Classify(StageRemediator, err)
	}

	var raw findings.RawFixResult
	args := map[string]string{slotCode: sample.Code, slotIssues: issues}
	if err := r.gateway.Call(ctx, fixPrompt, args, llm.FixConfig, &raw); err != nil {
		stageErr := Classify(StageRemediator, err)
		r.logger.Debug("remediation failed", "kind", stageErr.Kind, "error", err)
		return nil, stageErr
	}

	result, err := raw.Complete()
	if err != nil {
		return nil, newSchemaError(StageRemediator, err, rawFixedCode(raw))
	}

	r.logger.Debug("remediation completed", "fixes_applied", len(result.FixesApplied), "fixed_code_bytes", len(result.FixedCode))
	return result, nil
}

func rawFixedCode(raw findings.RawFixResult) string {
	if raw.FixedCode == nil {
		return ""
	}
	return string(*raw.FixedCode)
}
