package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/codemedic/internal/httpclient"
	"github.com/scan-io-git/codemedic/pkg/shared"
)

// Metadata of the plugin
var (
	Version       = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	apiKeyEnv      = "OPENAI_API_KEY"

	finishReasonContentFilter = "content_filter"
)

// GeneratorOpenAI generates text through an OpenAI compatible chat completions endpoint.
type GeneratorOpenAI struct {
	logger  hclog.Logger
	client  *resty.Client
	model   string
	apiKey  string
	baseURL string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// newGeneratorOpenAI creates a new instance of GeneratorOpenAI.
func newGeneratorOpenAI(logger hclog.Logger, client *resty.Client) *GeneratorOpenAI {
	return &GeneratorOpenAI{
		logger: logger,
		client: client,
	}
}

// Setup stores the model selection. The key falls back to OPENAI_API_KEY.
func (g *GeneratorOpenAI) Setup(req shared.GeneratorSetupRequest) (bool, error) {
	if req.APIKey == "" {
		req.APIKey = os.Getenv(apiKeyEnv)
	}
	if req.BaseURL == "" {
		req.BaseURL = defaultBaseURL
	}
	if err := g.validateSetup(&req); err != nil {
		g.logger.Error("validation failed for setup operation", "error", err)
		return false, err
	}

	g.model = req.Model
	g.apiKey = req.APIKey
	g.baseURL = strings.TrimRight(req.BaseURL, "/")
	g.logger.Info("generator is configured", "model", g.model, "baseURL", g.baseURL)
	return true, nil
}

// Generate sends the prompt as a single user message.
func (g *GeneratorOpenAI) Generate(req shared.GeneratorRequest) (shared.GeneratorResponse, error) {
	var result shared.GeneratorResponse
	if err := g.validateGenerate(&req); err != nil {
		g.logger.Error("validation failed for generate operation", "error", err)
		return result, err
	}
	g.warnUnsupported(req)

	resp, err := g.client.R().
		SetAuthToken(g.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       g.model,
			Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
			Temperature: req.Temperature,
			TopP:        req.TopP,
		}).
		SetResult(&chatResponse{}).
		SetError(&chatError{}).
		Post(g.baseURL + "/chat/completions")
	if err != nil {
		return result, fmt.Errorf("chat completion request failed: %w", err)
	}

	if resp.IsError() {
		message := strings.TrimSpace(resp.String())
		if apiErr, ok := resp.Error().(*chatError); ok && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		if resp.StatusCode() == http.StatusTooManyRequests {
			result.RateLimited = true
			result.Message = message
			g.logger.Warn("rate limited", "model", g.model, "message", message)
			return result, nil
		}
		return result, fmt.Errorf("chat completion failed with status %d: %s", resp.StatusCode(), message)
	}

	completion, ok := resp.Result().(*chatResponse)
	if !ok || completion == nil || len(completion.Choices) == 0 {
		return result, fmt.Errorf("model %s returned no choices", g.model)
	}

	choice := completion.Choices[0]
	if choice.FinishReason == finishReasonContentFilter {
		result.Blocked = true
		result.BlockReason = "safety: response filtered by the provider"
		return result, nil
	}

	result.Text = choice.Message.Content
	g.logger.Debug("completion received", "model", g.model, "finishReason", choice.FinishReason, "length", len(result.Text))
	return result, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	generatorInstance := newGeneratorOpenAI(logger, httpclient.InitializeRestyClient(logger.Named("http"), nil))

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			shared.PluginTypeGenerator: &shared.GeneratorPlugin{Impl: generatorInstance},
		},
		Logger: logger,
	})
}
