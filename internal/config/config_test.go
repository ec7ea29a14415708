package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, ProviderGemini, cfg.Model.Provider)
	assert.Equal(t, DefaultModelName, cfg.Model.Name)
	assert.Equal(t, DefaultMaxAttempts, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, DefaultRetryDelay, cfg.Pipeline.Delay())
	assert.Equal(t, DefaultModelBaseURL, cfg.Model.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.HTTPClient.Timeout)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigZeroRetryDelay(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  retry_delay: 0s\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Pipeline.RetryDelay)
	assert.Zero(t, cfg.Pipeline.Delay())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigPluginSkipsGeminiDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: plugin
  name: gpt-4o-mini
  plugin_path: openai
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Empty(t, cfg.Model.BaseURL)
	assert.NoError(t, ValidateConfig(cfg))

	unnamed, err := LoadConfig(writeConfig(t, "model:\n  provider: plugin\n  plugin_path: openai\n"))
	require.NoError(t, err)
	assert.Empty(t, unnamed.Model.Name)
	assert.EqualError(t, ValidateConfig(unnamed), "YAML global config: model directive is invalid: model name must not be empty")
}

func TestLoadConfigKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: gemini-rest
  name: gemini-2.0-flash
  base_url: http://localhost:9999/v1beta
pipeline:
  max_attempts: 3
  retry_delay: 5s
http_client:
  timeout: 30s
  tls_client_config:
    verify: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGeminiREST, cfg.Model.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Name)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Delay())
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout)
	assert.False(t, GetBoolValue(cfg.HTTPClient.TLSClientConfig, "Verify", true))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadConfigMissingDefaultFileFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
}

func TestLoadAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	_, err := LoadAPIKey()
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv(APIKeyEnv, "test-key")
	key, err := LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "test-key", key)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	t.Setenv("CODEMEDIC_TEST_PLUGIN_KEY", "")

	_, err := ResolveAPIKey(&Config{Model: Model{Provider: ProviderGemini}})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	key, err := ResolveAPIKey(&Config{Model: Model{Provider: ProviderPlugin}})
	require.NoError(t, err)
	assert.Empty(t, key)

	t.Setenv(APIKeyEnv, "google-key")
	key, err = ResolveAPIKey(&Config{Model: Model{Provider: ProviderGeminiREST}})
	require.NoError(t, err)
	assert.Equal(t, "google-key", key)

	// the Google credential is never handed to a plugin
	key, err = ResolveAPIKey(&Config{Model: Model{Provider: ProviderPlugin}})
	require.NoError(t, err)
	assert.Empty(t, key)

	withEnv := &Config{Model: Model{Provider: ProviderPlugin, PluginAPIKeyEnv: "CODEMEDIC_TEST_PLUGIN_KEY"}}
	_, err = ResolveAPIKey(withEnv)
	assert.EqualError(t, err, "API key not found: set CODEMEDIC_TEST_PLUGIN_KEY in the environment or in a .env file")

	t.Setenv("CODEMEDIC_TEST_PLUGIN_KEY", "plugin-key")
	key, err = ResolveAPIKey(withEnv)
	require.NoError(t, err)
	assert.Equal(t, "plugin-key", key)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "retry count out of range",
			mutate:  func(cfg *Config) { cfg.HTTPClient.RetryCount = 21 },
			wantErr: "YAML global config: http_client directive is invalid: retry_count must be between 0 and 20: 21",
		},
		{
			name:    "unknown provider",
			mutate:  func(cfg *Config) { cfg.Model.Provider = "openai" },
			wantErr: `YAML global config: model directive is invalid: unsupported provider "openai", expected one of: gemini, gemini-rest, plugin`,
		},
		{
			name:    "plugin without path",
			mutate:  func(cfg *Config) { cfg.Model.Provider = ProviderPlugin },
			wantErr: `YAML global config: model directive is invalid: plugin_path must be set for the "plugin" provider`,
		},
		{
			name:    "too many attempts",
			mutate:  func(cfg *Config) { cfg.Pipeline.MaxAttempts = 11 },
			wantErr: "YAML global config: pipeline directive is invalid: max_attempts must be between 1 and 10: 11",
		},
		{
			name: "plugin key variable on a built-in provider",
			mutate: func(cfg *Config) {
				cfg.Model.PluginAPIKeyEnv = "OPENAI_API_KEY"
			},
			wantErr: `YAML global config: model directive is invalid: plugin_api_key_env is only used by the "plugin" provider`,
		},
		{
			name: "negative retry delay",
			mutate: func(cfg *Config) {
				delay := -time.Second
				cfg.Pipeline.RetryDelay = &delay
			},
			wantErr: "YAML global config: pipeline directive is invalid: invalid duration for retry_delay: -1s cannot be negative",
		},
		{
			name:    "invalid proxy port",
			mutate:  func(cfg *Config) { cfg.HTTPClient.Proxy = Proxy{Host: "proxy.local", Port: 70000} },
			wantErr: "YAML global config: http_client directive is invalid: port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestGetBoolValue(t *testing.T) {
	yes := true
	cfg := &Config{Logger: Logger{JSONFormat: &yes}}

	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.True(t, GetBoolValue(cfg, "Logger.DisableTime", true))
	assert.False(t, GetBoolValue(cfg, "Logger.Missing", false))
	assert.False(t, GetBoolValue(nil, "Logger.JSONFormat", false))
}
