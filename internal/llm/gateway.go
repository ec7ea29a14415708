package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Gateway renders a prompt, calls the generator and decodes the JSON answer.
type Gateway struct {
	generator Generator
	logger    hclog.Logger
}

// NewGateway creates a gateway around a generator.
func NewGateway(generator Generator, logger hclog.Logger) *Gateway {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Gateway{generator: generator, logger: logger}
}

// Call renders tmpl with args, generates with params and decodes the payload into out.
// Safety overrides are always applied. Generator errors are returned wrapped as-is.
func (g *Gateway) Call(ctx context.Context, tmpl *PromptTemplate, args map[string]string, params GenerationConfig, out interface{}) error {
	prompt, err := tmpl.Render(args)
	if err != nil {
		return err
	}

	params.SafetyOverrides = DefaultSafetyOverrides
	g.logger.Debug("calling model", "template", tmpl.Name(), "prompt_bytes", len(prompt), "temperature", params.Temperature)

	text, err := g.generator.Generate(ctx, prompt, params)
	if err != nil {
		g.logger.Debug("model call failed", "template", tmpl.Name(), "error", err)
		return err
	}
	g.logger.Debug("model responded", "template", tmpl.Name(), "response_bytes", len(text))

	return Decode(text, out)
}

// Decode extracts the JSON object from a model response and unmarshals it into out.
func Decode(text string, out interface{}) error {
	payload := ExtractJSON(text)
	if payload == "" {
		return &ParseError{Raw: text, Err: errors.New("response is empty")}
	}
	if !strings.HasPrefix(payload, "{") {
		return &ParseError{Raw: text, Err: errors.New("response does not contain a JSON object")}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &ParseError{Raw: text, Err: err}
	}
	return nil
}
