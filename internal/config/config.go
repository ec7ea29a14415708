package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

const (
	// DefaultConfigPath is used when neither the --config flag nor CODEMEDIC_CONFIG is set.
	DefaultConfigPath = "config.yml"
	// APIKeyEnv holds the name of the only required credential.
	APIKeyEnv = "GOOGLE_API_KEY"

	ProviderGemini     = "gemini"
	ProviderGeminiREST = "gemini-rest"
	ProviderPlugin     = "plugin"
)

// ErrMissingAPIKey is returned when the model credential is not present in the environment.
var ErrMissingAPIKey = errors.New("API key not found: set " + APIKeyEnv + " in the environment or in a .env file")

type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Model      Model      `yaml:"model"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	Server     Server     `yaml:"server"`
	Storage    Storage    `yaml:"storage"`
}

type Logger struct {
	Level           string `yaml:"level"`
	JSONFormat      *bool  `yaml:"json_format"`
	DisableTime     *bool  `yaml:"disable_time"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Model selects the text-generation backend shared by every pipeline stage.
// Name and BaseURL only get Gemini defaults for the built-in providers.
type Model struct {
	Provider   string `yaml:"provider"`
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	PluginPath string `yaml:"plugin_path"`
	// PluginAPIKeyEnv names the environment variable whose value is passed to the plugin as its API key.
	// When empty the plugin receives no key and resolves its own credentials.
	PluginAPIKeyEnv string `yaml:"plugin_api_key_env"`
}

// Pipeline holds the bounded retry policy applied to transient stage failures.
type Pipeline struct {
	MaxAttempts int `yaml:"max_attempts"`
	// RetryDelay is nil when unset; an explicit 0s retries without waiting.
	RetryDelay *time.Duration `yaml:"retry_delay"`
}

// Delay returns the configured retry delay or DefaultRetryDelay when it is unset.
func (p Pipeline) Delay() time.Duration {
	if p.RetryDelay == nil {
		return DefaultRetryDelay
	}
	return *p.RetryDelay
}

// IsBuiltIn reports whether the provider talks to Gemini directly.
func (m Model) IsBuiltIn() bool {
	return m.Provider == ProviderGemini || m.Provider == ProviderGeminiREST
}

type Server struct {
	Addr         string `yaml:"addr"`
	MaxCodeBytes int    `yaml:"max_code_bytes"`
}

type Storage struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the YAML configuration and fills unset values with defaults.
// A missing file is only tolerated for the default path.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		configPath = DefaultConfigPath
	}

	if err := LoadYAML(configPath, cfg); err != nil {
		if !(errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigPath) {
			return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAPIKey returns the model credential from the process environment.
func LoadAPIKey() (string, error) {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// ResolveAPIKey returns the credential for the configured provider.
// The built-in providers read GOOGLE_API_KEY. A plugin only receives the variable named
// by plugin_api_key_env and gets an empty key when that is not set.
func ResolveAPIKey(cfg *Config) (string, error) {
	if cfg == nil || cfg.Model.Provider != ProviderPlugin {
		return LoadAPIKey()
	}
	if cfg.Model.PluginAPIKeyEnv == "" {
		return "", nil
	}
	key := os.Getenv(cfg.Model.PluginAPIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("API key not found: set %s in the environment or in a .env file", cfg.Model.PluginAPIKeyEnv)
	}
	return key, nil
}

func applyDefaults(cfg *Config) {
	httpDefaults := DefaultRestyConfig()
	cfg.HTTPClient.RetryWaitTime = SetThen(cfg.HTTPClient.RetryWaitTime, httpDefaults.RetryWaitTime)
	cfg.HTTPClient.RetryMaxWaitTime = SetThen(cfg.HTTPClient.RetryMaxWaitTime, httpDefaults.RetryMaxWaitTime)
	cfg.HTTPClient.Timeout = SetThen(cfg.HTTPClient.Timeout, httpDefaults.Timeout)

	cfg.Model.Provider = SetThen(cfg.Model.Provider, ProviderGemini)
	if cfg.Model.IsBuiltIn() {
		cfg.Model.Name = SetThen(cfg.Model.Name, DefaultModelName)
		cfg.Model.BaseURL = SetThen(cfg.Model.BaseURL, DefaultModelBaseURL)
	}

	cfg.Pipeline.MaxAttempts = SetThen(cfg.Pipeline.MaxAttempts, DefaultMaxAttempts)
	if cfg.Pipeline.RetryDelay == nil {
		delay := DefaultRetryDelay
		cfg.Pipeline.RetryDelay = &delay
	}

	cfg.Server.Addr = SetThen(cfg.Server.Addr, DefaultServerAddr)
	cfg.Server.MaxCodeBytes = SetThen(cfg.Server.MaxCodeBytes, DefaultMaxCodeBytes)

	cfg.Storage.S3Region = SetThen(cfg.Storage.S3Region, DefaultS3Region)
	cfg.Storage.S3Prefix = SetThen(cfg.Storage.S3Prefix, DefaultS3Prefix)
}
