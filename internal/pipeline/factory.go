package pipeline

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/config"
	"github.com/scan-io-git/codemedic/internal/llm"
)

// NewFromConfig builds the generator selected by cfg and a controller around it.
// The returned close function releases the generator and must be called once the controller is no longer used.
func NewFromConfig(ctx context.Context, cfg *config.Config, apiKey string, logger hclog.Logger) (*Controller, func(), error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	generator, err := llm.NewGenerator(ctx, cfg, apiKey, logger.Named("llm"))
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := llm.CloseGenerator(generator); err != nil {
			logger.Warn("failed to close generator", "error", err)
		}
	}
	gateway := llm.NewGateway(generator, logger.Named("gateway"))
	return NewFromGateway(gateway, RetryPolicyFromConfig(cfg), logger), closeFn, nil
}
