package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/routemesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, env := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "ROUTEMESH_PROVIDER_NAME", "ROUTEMESH_ROUTING_ON_MISS"} {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, int64(2000), cfg.Provider.MaxTokens)
	assert.Equal(t, "fallback", cfg.Routing.OnMiss)
	assert.Equal(t, int64(50), cfg.Routing.ClassifyMaxTokens)
	assert.Equal(t, time.Duration(0), cfg.Routing.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, 0, cfg.RateLimit.RPM)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "routemesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider:
  name: openai
  model: gpt-4o
routing:
  on_miss: error
  timeout: 45s
breaker:
  enabled: true
  max_failures: 3
ratelimit:
  rpm: 120
  burst: 2
`), 0o600))

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ROUTEMESH_ROUTING_ON_MISS", "fallback")

	cfg, err := Load(path, func(o *LoadOptions) {
		o.Overrides = map[string]any{"provider.model": "gpt-4o-mini"}
	})
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model, "override beats file")
	assert.Equal(t, "fallback", cfg.Routing.OnMiss, "env beats file")
	assert.Equal(t, 45*time.Second, cfg.Routing.Timeout)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(3), cfg.Breaker.MaxFailures)
	assert.Equal(t, 120, cfg.RateLimit.RPM)
	assert.Equal(t, "sk-env", cfg.APIKey())
	require.NoError(t, cfg.RequireCredential())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_UserConfig(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "routemesh"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "routemesh", "config.yaml"), []byte("provider:\n  name: ollama\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider.Name)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown provider", mutate: func(c *Config) { c.Provider.Name = "watson" }},
		{name: "unknown miss policy", mutate: func(c *Config) { c.Routing.OnMiss = "guess" }},
		{name: "negative max tokens", mutate: func(c *Config) { c.Provider.MaxTokens = -1 }},
		{name: "negative classify tokens", mutate: func(c *Config) { c.Routing.ClassifyMaxTokens = -5 }},
		{name: "negative rpm", mutate: func(c *Config) { c.RateLimit.RPM = -1 }},
		{name: "unknown exporter", mutate: func(c *Config) { c.Tracing.Exporter = "zipkin" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireCredential(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.RequireCredential()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingCredential)

	var credErr *CredentialError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, "ANTHROPIC_API_KEY", credErr.EnvVar)
	assert.Contains(t, credErr.Guidance(), "export ANTHROPIC_API_KEY=")
	assert.Contains(t, credErr.Guidance(), "console.anthropic.com")

	for _, p := range []string{"bedrock", "ollama", "mock"} {
		cfg.Provider.Name = p
		assert.NoError(t, cfg.RequireCredential(), p)
	}

	cfg.Provider.Name = "gemini"
	cfg.Provider.APIKey = "explicit"
	assert.NoError(t, cfg.RequireCredential())
}
