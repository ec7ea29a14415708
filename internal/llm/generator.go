package llm

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited is wrapped by generators when the endpoint reports quota or throughput exhaustion.
	ErrRateLimited = errors.New("model rate limit exceeded")
	// ErrContentBlocked is wrapped by generators when the endpoint refuses to generate for safety reasons.
	ErrContentBlocked = errors.New("model blocked the request by safety filters")
)

// HarmCategory names a content-safety category of the Gemini API.
type HarmCategory string

const (
	HarmCategoryHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmCategoryHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmCategorySexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCategoryDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// BlockNone is the threshold that disables blocking for a category.
const BlockNone = "BLOCK_NONE"

// DefaultSafetyOverrides are disabled on every call. Vulnerable code and credential
// patterns are the normal input of this tool and trip these filters otherwise.
var DefaultSafetyOverrides = []HarmCategory{
	HarmCategoryHarassment,
	HarmCategoryHateSpeech,
	HarmCategorySexuallyExplicit,
	HarmCategoryDangerousContent,
}

// GenerationConfig holds decoding parameters for one call.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	SafetyOverrides []HarmCategory
}

// Per-stage decoding parameters.
var (
	DetectConfig = GenerationConfig{Temperature: 0.3, TopP: 0.8, TopK: 40}
	FixConfig    = GenerationConfig{Temperature: 0.4, TopP: 0.9, TopK: 40}
	VerifyConfig = GenerationConfig{Temperature: 0.3, TopP: 0.8, TopK: 40}
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationConfig) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, params GenerationConfig) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, params GenerationConfig) (string, error) {
	return f(ctx, prompt, params)
}

func harmCategoryNames(categories []HarmCategory) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}
	return names
}
