package agents

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/llm"
)

// Verifier scores remediated code against the original sample and its findings.
type Verifier struct {
	gateway *llm.Gateway
	logger  hclog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(gateway *llm.Gateway, logger hclog.Logger) *Verifier {
	return &Verifier{gateway: gateway, logger: loggerOrNull(logger)}
}

// Verify always calls the model. Every field missing from the answer is defaulted on its own.
func (v *Verifier) Verify(ctx context.Context, sample findings.CodeSample, fixedCode string, set *findings.FindingSet) (*findings.ValidationReport, error) {
	issues, err := set.CanonicalJSON()
	if err != nil {
		return nil, Classify(StageVerifier, err)
	}

	var raw findings.RawValidationReport
	args := map[string]string{
		slotOriginalCode: sample.Code,
		slotFixedCode:    fixedCode,
		slotIssues:       issues,
	}
	if err := v.gateway.Call(ctx, verifyPrompt, args, llm.VerifyConfig, &raw); err != nil {
		stageErr := Classify(StageVerifier, err)
		v.logger.Debug("verification failed", "kind", stageErr.Kind, "error", err)
		return nil, stageErr
	}

	report := raw.Complete()
	v.logger.Debug("verification completed", "status", report.ValidationStatus, "overall_score", report.OverallScore)
	return report, nil
}
