// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds researcher-mcp server configuration.
type Config struct {
	// Transport selects the wire layer: "stdio" or "http".
	Transport string `envconfig:"MCP_TRANSPORT" default:"stdio"`
	HTTPAddr  string `envconfig:"MCP_HTTP_ADDR" default:"0.0.0.0:8080"`

	// AuthToken, when set, requires a bearer token on the HTTP RPC
	// endpoint. Ignored for stdio.
	AuthToken string `envconfig:"MCP_AUTH_TOKEN"`

	// Invocation timeout. Zero disables the per-call deadline.
	CallTimeout time.Duration `envconfig:"MCP_CALL_TIMEOUT" default:"120s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Observability
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	TraceExporter  string `envconfig:"TRACE_EXPORTER" default:"noop"`
	OTLPEndpoint   string `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`

	// Research engine credentials and settings. The server starts
	// without credentials; validate_research_setup reports what is
	// missing.
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	TavilyAPIKey string `envconfig:"TAVILY_API_KEY"`
	Retriever    string `envconfig:"RETRIEVER" default:"tavily"`
	DocPath      string `envconfig:"DOC_PATH"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks configuration consistency before the server starts.
func (c *Config) Validate() error {
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("config: MCP_TRANSPORT must be stdio or http, got %q", c.Transport)
	}
	if c.Transport == "http" && c.HTTPAddr == "" {
		return fmt.Errorf("config: MCP_HTTP_ADDR is required for the http transport")
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("config: MCP_CALL_TIMEOUT must not be negative")
	}
	switch c.TraceExporter {
	case "noop", "otlp-grpc", "otlp-http":
	default:
		return fmt.Errorf("config: TRACE_EXPORTER must be noop, otlp-grpc or otlp-http, got %q", c.TraceExporter)
	}
	return nil
}
