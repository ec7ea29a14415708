package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// RESTGenerator calls the Gemini generateContent endpoint over plain HTTPS using resty.
// It honours the proxy, TLS and retry settings of the shared HTTP client.
type RESTGenerator struct {
	client  *resty.Client
	baseURL string
	model   string
	apiKey  string
	logger  hclog.Logger
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"topP"`
	TopK        float32 `json:"topK"`
}

type restSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type restRequest struct {
	Contents         []restContent        `json:"contents"`
	GenerationConfig restGenerationConfig `json:"generationConfig"`
	SafetySettings   []restSafetySetting  `json:"safetySettings,omitempty"`
}

type restResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type restErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewRESTGenerator creates a REST generator. baseURL is e.g. https://generativelanguage.googleapis.com/v1beta.
func NewRESTGenerator(client *resty.Client, baseURL, model, apiKey string, logger hclog.Logger) (*RESTGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for the Gemini REST client")
	}
	if client == nil {
		return nil, fmt.Errorf("HTTP client is required for the Gemini REST client")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RESTGenerator{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		logger:  logger,
	}, nil
}

// Generate implements Generator.
func (g *RESTGenerator) Generate(ctx context.Context, prompt string, params GenerationConfig) (string, error) {
	body := restRequest{
		Contents: []restContent{{Role: "user", Parts: []restPart{{Text: prompt}}}},
		GenerationConfig: restGenerationConfig{
			Temperature: params.Temperature,
			TopP:        params.TopP,
			TopK:        params.TopK,
		},
	}
	for _, category := range harmCategoryNames(params.SafetyOverrides) {
		body.SafetySettings = append(body.SafetySettings, restSafetySetting{Category: category, Threshold: BlockNone})
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(body).
		SetResult(&restResponse{}).
		SetError(&restErrorResponse{}).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.IsError() {
		message := strings.TrimSpace(resp.String())
		if apiErr, ok := resp.Error().(*restErrorResponse); ok && apiErr.Error.Message != "" {
			message = fmt.Sprintf("%s: %s", apiErr.Error.Status, apiErr.Error.Message)
		}
		if resp.StatusCode() == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, message)
		}
		return "", fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode(), message)
	}

	result, ok := resp.Result().(*restResponse)
	if !ok || result == nil {
		return "", fmt.Errorf("unexpected gemini response: %s", resp.String())
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrContentBlocked, result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("model %s returned no candidates", g.model)
	}

	candidate := result.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", fmt.Errorf("%w: generation stopped with finish reason SAFETY", ErrContentBlocked)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("model %s returned an empty response", g.model)
	}
	g.logger.Trace("gemini REST response received", "model", g.model, "status", resp.StatusCode())
	return text.String(), nil
}
