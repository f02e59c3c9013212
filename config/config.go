// Package config loads routemesh configuration from defaults, an optional
// YAML file and the environment.
//
// Precedence (highest to lowest):
//  1. Overrides passed to Load (CLI flags)
//  2. Environment variables (ROUTEMESH_*, ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY)
//  3. The config file (--config, ./routemesh.yaml, or $XDG_CONFIG_HOME/routemesh/config.yaml)
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/spf13/viper"
)

// Config holds all configuration for routemesh.
type Config struct {
	Provider    ProviderConfig    `mapstructure:"provider"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Routing     RoutingConfig     `mapstructure:"routing"`
	Roster      RosterConfig      `mapstructure:"roster"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
}

// ProviderConfig selects the model backend.
type ProviderConfig struct {
	// Name is anthropic, openai, bedrock, gemini, ollama or mock.
	Name string `mapstructure:"name"`
	// Model overrides the provider's default model id.
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// Region is used by bedrock only.
	Region    string `mapstructure:"region"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// CredentialsConfig holds per-provider keys, normally from the environment.
type CredentialsConfig struct {
	Anthropic string `mapstructure:"anthropic_api_key"`
	OpenAI    string `mapstructure:"openai_api_key"`
	Gemini    string `mapstructure:"gemini_api_key"`
}

// RoutingConfig tunes classification.
type RoutingConfig struct {
	// OnMiss is "fallback" or "error".
	OnMiss            string        `mapstructure:"on_miss"`
	ClassifyMaxTokens int64         `mapstructure:"classify_max_tokens"`
	ClassifierModel   string        `mapstructure:"classifier_model"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// RosterConfig points at a YAML roster. Empty uses the built-in roster.
type RosterConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig selects the span exporter: noop or stdout.
type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
}

// BreakerConfig configures the optional circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig configures the optional client side limiter. RPM 0 disables it.
type RateLimitConfig struct {
	RPM   int `mapstructure:"rpm"`
	Burst int `mapstructure:"burst"`
}

// Providers lists every supported provider name.
var Providers = []string{"anthropic", "openai", "bedrock", "gemini", "ollama", "mock"}

// credentialEnv maps key-based providers to the env var holding their key.
var credentialEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// credentialURL tells users where to obtain a key.
var credentialURL = map[string]string{
	"anthropic": "https://console.anthropic.com/",
	"openai":    "https://platform.openai.com/api-keys",
	"gemini":    "https://aistudio.google.com/apikey",
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Overrides are applied last, keyed by dotted config path (e.g. "provider.name").
	Overrides map[string]any
}

// Load builds a Config. An explicit path must exist; otherwise the default
// locations are tried and a missing file is not an error.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("routemesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading project config: %w", err)
			}
			if err := readUserConfig(v); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix("ROUTEMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"credentials.anthropic_api_key": "ANTHROPIC_API_KEY",
		"credentials.openai_api_key":    "OPENAI_API_KEY",
		"credentials.gemini_api_key":    "GEMINI_API_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Provider.APIKey = os.ExpandEnv(cfg.Provider.APIKey)

	return cfg, nil
}

// readUserConfig merges $XDG_CONFIG_HOME/routemesh/config.yaml when present.
func readUserConfig(v *viper.Viper) error {
	path := filepath.Join(userConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading user config: %w", err)
	}
	return nil
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "routemesh")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "routemesh")
	}
	return filepath.Join(home, ".config", "routemesh")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "anthropic")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.region", "us-east-1")
	v.SetDefault("provider.max_tokens", 2000)

	v.SetDefault("credentials.anthropic_api_key", "")
	v.SetDefault("credentials.openai_api_key", "")
	v.SetDefault("credentials.gemini_api_key", "")

	v.SetDefault("routing.on_miss", "fallback")
	v.SetDefault("routing.classify_max_tokens", 50)
	v.SetDefault("routing.classifier_model", "")
	v.SetDefault("routing.timeout", "0s")

	v.SetDefault("roster.path", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.exporter", "noop")

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", "30s")

	v.SetDefault("ratelimit.rpm", 0)
	v.SetDefault("ratelimit.burst", 1)
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	known := false
	for _, p := range Providers {
		if c.Provider.Name == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown provider %q (want one of %s)", c.Provider.Name, strings.Join(Providers, ", "))
	}

	switch strings.ToLower(c.Routing.OnMiss) {
	case "", "fallback", "error", "strict":
	default:
		return fmt.Errorf("unknown routing.on_miss %q (want fallback or error)", c.Routing.OnMiss)
	}

	switch {
	case c.Provider.MaxTokens < 0:
		return errors.New("provider.max_tokens must not be negative")
	case c.Routing.ClassifyMaxTokens < 0:
		return errors.New("routing.classify_max_tokens must not be negative")
	case c.Routing.Timeout < 0:
		return errors.New("routing.timeout must not be negative")
	case c.RateLimit.RPM < 0 || c.RateLimit.Burst < 0:
		return errors.New("ratelimit values must not be negative")
	}

	switch c.Tracing.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("unknown tracing.exporter %q (want noop or stdout)", c.Tracing.Exporter)
	}

	return nil
}

// APIKey returns the key for the selected provider: provider.api_key when
// set, else the provider's credential (normally from its env var).
func (c *Config) APIKey() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}

	switch c.Provider.Name {
	case "anthropic":
		return c.Credentials.Anthropic
	case "openai":
		return c.Credentials.OpenAI
	case "gemini":
		return c.Credentials.Gemini
	default:
		return ""
	}
}

// CredentialError carries guidance for a missing key.
type CredentialError struct {
	Provider string
	EnvVar   string
	URL      string
}

// Error implements error.
func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: set %s", core.ErrMissingCredential, e.EnvVar)
}

// Unwrap lets errors.Is match core.ErrMissingCredential.
func (e *CredentialError) Unwrap() error { return core.ErrMissingCredential }

// Guidance returns a human readable hint on how to supply the key.
func (e *CredentialError) Guidance() string {
	return fmt.Sprintf("%s not found.\n\nSet it with:\n  export %s='your-key-here'\n\nGet a key at: %s",
		e.EnvVar, e.EnvVar, e.URL)
}

// RequireCredential fails with a *CredentialError when the selected provider
// needs a key and none is configured. Bedrock uses the AWS credential chain
// and ollama and mock need none.
func (c *Config) RequireCredential() error {
	env, ok := credentialEnv[c.Provider.Name]
	if !ok || c.APIKey() != "" {
		return nil
	}
	return &CredentialError{Provider: c.Provider.Name, EnvVar: env, URL: credentialURL[c.Provider.Name]}
}
