package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Generator is the interface a text-generation plugin implements.
type Generator interface {
	Setup(req GeneratorSetupRequest) (bool, error)
	Generate(req GeneratorRequest) (GeneratorResponse, error)
}

// GeneratorSetupRequest carries the model selection and credential to the plugin once per process.
type GeneratorSetupRequest struct {
	Model   string // Model name to generate with
	APIKey  string // Credential for the upstream endpoint
	BaseURL string // Optional endpoint override
}

// GeneratorRequest represents a single generation request.
type GeneratorRequest struct {
	Prompt          string   // Fully rendered prompt
	Temperature     float32  // Sampling temperature
	TopP            float32  // Nucleus sampling threshold
	TopK            float32  // Top-k sampling
	SafetyOverrides []string // Content-safety categories to disable
}

// GeneratorResponse is the plugin answer. Blocked reports a safety refusal and
// RateLimited a quota error, so the host can classify them without parsing text.
type GeneratorResponse struct {
	Text        string
	Blocked     bool
	BlockReason string
	RateLimited bool
	Message     string
}

type GeneratorRPCClient struct{ client *rpc.Client }

func (g *GeneratorRPCClient) Setup(req GeneratorSetupRequest) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", req, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *GeneratorRPCClient) Generate(req GeneratorRequest) (GeneratorResponse, error) {
	var resp GeneratorResponse
	err := g.client.Call("Plugin.Generate", req, &resp)
	if err != nil {
		return resp, err
	}
	return resp, nil
}

type GeneratorRPCServer struct {
	Impl Generator
}

func (s *GeneratorRPCServer) Setup(req GeneratorSetupRequest, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(req)
	return err
}

func (s *GeneratorRPCServer) Generate(req GeneratorRequest, resp *GeneratorResponse) error {
	var err error
	*resp, err = s.Impl.Generate(req)
	return err
}

type GeneratorPlugin struct {
	Impl Generator
}

func (p *GeneratorPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &GeneratorRPCServer{Impl: p.Impl}, nil
}

func (GeneratorPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &GeneratorRPCClient{client: c}, nil
}
