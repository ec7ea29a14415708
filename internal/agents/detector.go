package agents

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/findings"
	"github.com/scan-io-git/codemedic/internal/llm"
)

// Detector asks the model for the defects of a code sample.
type Detector struct {
	gateway *llm.Gateway
	logger  hclog.Logger
}

// NewDetector creates a Detector.
func NewDetector(gateway *llm.Gateway, logger hclog.Logger) *Detector {
	return &Detector{gateway: gateway, logger: loggerOrNull(logger)}
}

// Detect returns the completed FindingSet for sample. Blank code fails without calling the model.
// Errors are always *StageError.
func (d *Detector) Detect(ctx context.Context, sample findings.CodeSample) (*findings.FindingSet, error) {
	if strings.TrimSpace(sample.Code) == "" {
		return nil, NewInputError(StageDetector, "Please enter some code to analyze")
	}

	var raw findings.RawFindingSet
	args := map[string]string{slotCode: sample.Code}
	if err := d.gateway.Call(ctx, detectPrompt, args, llm.DetectConfig, &raw); err != nil {
		stageErr := Classify(StageDetector, err)
		d.logger.Debug("detection failed", "kind", stageErr.Kind, "error", err)
		return nil, stageErr
	}

	set := raw.Complete()
	d.logger.Debug("detection completed",
		"language", sample.Language,
		"total_found", set.TotalFound,
		"critical", set.CriticalCount,
		"high", set.HighCount,
		"medium", set.MediumCount,
		"low", set.LowCount,
		"unrecognized", set.UnrecognizedCount,
	)
	return set, nil
}

func loggerOrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
