package llm

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/codemedic/internal/config"
	"github.com/scan-io-git/codemedic/internal/httpclient"
	"github.com/scan-io-git/codemedic/pkg/shared"
)

// NewGenerator builds the generator selected by the model configuration.
// Callers should close the result with CloseGenerator.
func NewGenerator(ctx context.Context, cfg *config.Config, apiKey string, logger hclog.Logger) (Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var (
		generator Generator
		err       error
	)
	switch cfg.Model.Provider {
	case config.ProviderGemini, "":
		generator, err = NewGeminiGenerator(ctx, apiKey, cfg.Model.Name, logger.Named("gemini"))
	case config.ProviderGeminiREST:
		client := httpclient.InitializeRestyClient(logger.Named("http"), cfg)
		generator, err = NewRESTGenerator(client, cfg.Model.BaseURL, cfg.Model.Name, apiKey, logger.Named("gemini-rest"))
	case config.ProviderPlugin:
		generator, err = NewPluginGenerator(cfg.Model.PluginPath, pluginSetupRequest(cfg.Model, apiKey), logger.Named("plugin"))
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Model.Provider)
	}
	if err != nil {
		return nil, err
	}
	return generator, nil
}

// pluginSetupRequest forwards only what the user configured for the plugin.
// Empty fields let the plugin apply its own defaults.
func pluginSetupRequest(model config.Model, apiKey string) shared.GeneratorSetupRequest {
	return shared.GeneratorSetupRequest{
		Model:   model.Name,
		APIKey:  apiKey,
		BaseURL: model.BaseURL,
	}
}

// CloseGenerator releases generator resources when the generator holds any.
func CloseGenerator(g Generator) error {
	if closer, ok := g.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
