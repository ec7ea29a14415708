package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/scan-io-git/codemedic/pkg/shared"
)

// validateSetup checks the necessary fields in GeneratorSetupRequest.
func (g *GeneratorOpenAI) validateSetup(req *shared.GeneratorSetupRequest) error {
	if strings.TrimSpace(req.Model) == "" {
		return fmt.Errorf("the model name must be set")
	}
	if req.APIKey == "" {
		return fmt.Errorf("an API key must be passed by the host or set in %s", apiKeyEnv)
	}
	u, err := url.Parse(req.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL: %q", req.BaseURL)
	}
	return nil
}

// validateGenerate checks the necessary fields in GeneratorRequest.
func (g *GeneratorOpenAI) validateGenerate(req *shared.GeneratorRequest) error {
	if g.model == "" {
		return fmt.Errorf("the generator is not configured: call Setup first")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("the prompt must not be empty")
	}
	return nil
}

// warnUnsupported logs request options the chat completions API has no equivalent for.
func (g *GeneratorOpenAI) warnUnsupported(req shared.GeneratorRequest) {
	if req.TopK != 0 {
		g.logger.Debug("top_k is not supported by the chat completions API, ignoring", "topK", req.TopK)
	}
	if len(req.SafetyOverrides) > 0 {
		g.logger.Debug("safety overrides are not supported by the chat completions API, ignoring", "categories", req.SafetyOverrides)
	}
}
