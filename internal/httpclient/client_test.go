package httpclient

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/codemedic/internal/config"
)

func TestApplyHTTPClientConfigDefaults(t *testing.T) {
	cfg := applyHTTPClientConfig(nil)
	def := config.DefaultRestyConfig()

	assert.Equal(t, def.Timeout, cfg.Timeout)
	assert.Equal(t, def.RetryCount, cfg.RetryCount)
	assert.False(t, cfg.TLSClientConfig.InsecureSkipVerify)
}

func TestApplyHTTPClientConfigOverrides(t *testing.T) {
	no := false
	cfg := applyHTTPClientConfig(&config.HTTPClient{
		RetryCount:      4,
		Timeout:         15 * time.Second,
		TLSClientConfig: config.TLSClientConfig{Verify: &no},
		Proxy:           config.Proxy{Host: "http://proxy.local", Port: 3128},
	})

	assert.Equal(t, 4, cfg.RetryCount)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.True(t, cfg.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, "http://proxy.local:3128", cfg.Proxy)
}

func TestInitializeRestyClient(t *testing.T) {
	client := InitializeRestyClient(hclog.NewNullLogger(), &config.Config{
		HTTPClient: config.HTTPClient{Timeout: 3 * time.Second, RetryCount: 1},
	})

	assert.Equal(t, 1, client.RetryCount)
	assert.Equal(t, 3*time.Second, client.GetClient().Timeout)
}
