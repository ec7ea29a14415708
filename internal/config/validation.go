package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML global config: http_client directive is invalid: %w", err)
	}
	if err := ValidateModelConfig(&cfg.Model); err != nil {
		return fmt.Errorf("YAML global config: model directive is invalid: %w", err)
	}
	if err := ValidatePipelineConfig(&cfg.Pipeline); err != nil {
		return fmt.Errorf("YAML global config: pipeline directive is invalid: %w", err)
	}
	if err := ValidateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("YAML global config: server directive is invalid: %w", err)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}
	if err := validateDuration(httpConfig.Timeout, "Timeout", 10*time.Minute); err != nil {
		return err
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// ValidateModelConfig checks the model provider selection.
func ValidateModelConfig(model *Model) error {
	if model == nil {
		return fmt.Errorf("model configuration is nil")
	}

	switch model.Provider {
	case ProviderGemini:
	case ProviderGeminiREST:
		if _, err := url.ParseRequestURI(model.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url %q: %w", model.BaseURL, err)
		}
	case ProviderPlugin:
		if model.PluginPath == "" {
			return fmt.Errorf("plugin_path must be set for the %q provider", ProviderPlugin)
		}
	default:
		return fmt.Errorf("unsupported provider %q, expected one of: %s", model.Provider,
			strings.Join([]string{ProviderGemini, ProviderGeminiREST, ProviderPlugin}, ", "))
	}

	if strings.TrimSpace(model.Name) == "" {
		return fmt.Errorf("model name must not be empty")
	}
	if model.PluginAPIKeyEnv != "" && model.Provider != ProviderPlugin {
		return fmt.Errorf("plugin_api_key_env is only used by the %q provider", ProviderPlugin)
	}
	return nil
}

// ValidatePipelineConfig checks the retry policy bounds.
func ValidatePipelineConfig(p *Pipeline) error {
	if p == nil {
		return fmt.Errorf("pipeline configuration is nil")
	}
	if p.MaxAttempts < 1 || p.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts must be between 1 and 10: %d", p.MaxAttempts)
	}
	return validateDuration(p.Delay(), "retry_delay", 10*time.Minute)
}

// ValidateServerConfig checks the HTTP API settings.
func ValidateServerConfig(s *Server) error {
	if s == nil {
		return fmt.Errorf("server configuration is nil")
	}
	if s.MaxCodeBytes < 0 {
		return fmt.Errorf("max_code_bytes cannot be negative: %d", s.MaxCodeBytes)
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if err := validateHost(&proxy.Host); err != nil {
		return err
	}

	return validatePort(proxy.Port)
}

// validateHost checks if the host part of the proxy configuration is valid.
// It ensures the host includes a scheme; adds "http" if missing.
func validateHost(host *string) error {
	if host == nil {
		return fmt.Errorf("host string pointer is nil")
	}

	if !strings.Contains(*host, "://") {
		*host = "http://" + *host
	}
	*host = strings.TrimRight(*host, "/")

	if _, err := url.Parse(*host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	return nil
}

// validatePort checks if the port part of the proxy configuration is valid.
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
