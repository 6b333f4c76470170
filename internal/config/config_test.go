package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"MCP_TRANSPORT", "MCP_HTTP_ADDR", "MCP_AUTH_TOKEN", "MCP_CALL_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT",
		"METRICS_ENABLED", "TRACING_ENABLED", "TRACE_EXPORTER", "OTLP_ENDPOINT",
		"OPENAI_API_KEY", "TAVILY_API_KEY", "RETRIEVER", "DOC_PATH",
	} {
		os.Unsetenv(env)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Equal(t, 120*time.Second, cfg.CallTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "noop", cfg.TraceExporter)
	assert.Equal(t, "tavily", cfg.Retriever)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCP_TRANSPORT", "http")
	t.Setenv("MCP_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("MCP_CALL_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACE_EXPORTER", "otlp-grpc")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "otlp-grpc", cfg.TraceExporter)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown transport", func(c *Config) { c.Transport = "carrier-pigeon" }},
		{"http without addr", func(c *Config) { c.Transport = "http"; c.HTTPAddr = "" }},
		{"negative timeout", func(c *Config) { c.CallTimeout = -time.Second }},
		{"unknown exporter", func(c *Config) { c.TraceExporter = "jaeger" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load()
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
