package llm

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/scan-io-git/codemedic/pkg/shared"
)

// PluginGenerator delegates generation to an external plugin binary.
// The plugin process lives until Close is called.
type PluginGenerator struct {
	client *plugin.Client
	impl   shared.Generator
	logger hclog.Logger
}

// NewPluginGenerator starts the plugin at path, dispenses the generator and runs Setup.
func NewPluginGenerator(path string, setup shared.GeneratorSetupRequest, logger hclog.Logger) (*PluginGenerator, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	pluginPath := shared.ResolvePluginPath(path)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins:         shared.PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to start generator plugin %q: %w", pluginPath, err)
	}

	raw, err := rpcClient.Dispense(shared.PluginTypeGenerator)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense generator from %q: %w", pluginPath, err)
	}

	impl, ok := raw.(shared.Generator)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %q does not implement the generator interface", pluginPath)
	}

	g, err := newPluginGenerator(impl, setup, logger)
	if err != nil {
		client.Kill()
		return nil, err
	}
	g.client = client
	return g, nil
}

func newPluginGenerator(impl shared.Generator, setup shared.GeneratorSetupRequest, logger hclog.Logger) (*PluginGenerator, error) {
	ok, err := impl.Setup(setup)
	if err != nil {
		return nil, fmt.Errorf("generator plugin setup failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("generator plugin setup was rejected")
	}
	return &PluginGenerator{impl: impl, logger: logger}, nil
}

// Generate implements Generator. The RPC call itself cannot be interrupted,
// so the context is only checked before it starts.
func (g *PluginGenerator) Generate(ctx context.Context, prompt string, params GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := g.impl.Generate(shared.GeneratorRequest{
		Prompt:          prompt,
		Temperature:     params.Temperature,
		TopP:            params.TopP,
		TopK:            params.TopK,
		SafetyOverrides: harmCategoryNames(params.SafetyOverrides),
	})
	if err != nil {
		return "", fmt.Errorf("generator plugin failed: %w", err)
	}

	switch {
	case resp.RateLimited:
		return "", fmt.Errorf("%w: %s", ErrRateLimited, resp.Message)
	case resp.Blocked:
		return "", fmt.Errorf("%w: %s", ErrContentBlocked, resp.BlockReason)
	case resp.Text == "":
		return "", fmt.Errorf("generator plugin returned an empty response")
	}
	return resp.Text, nil
}

// Close stops the plugin process.
func (g *PluginGenerator) Close() error {
	if g.client != nil {
		g.client.Kill()
	}
	return nil
}
