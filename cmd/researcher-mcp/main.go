// Command researcher-mcp runs the GPT Researcher capability server over
// stdio or HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gptr-ai/researcher-mcp/internal/config"
	"github.com/gptr-ai/researcher-mcp/internal/research"
	"github.com/gptr-ai/researcher-mcp/pkg/dispatcher"
	"github.com/gptr-ai/researcher-mcp/pkg/logging"
	"github.com/gptr-ai/researcher-mcp/pkg/observability"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/server"
	"github.com/gptr-ai/researcher-mcp/pkg/transport"
)

const (
	serverName    = "gpt-researcher-mcp"
	serverVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	// Build the catalog. A duplicate name here is fatal before the
	// server accepts a single request.
	reg := registry.New()
	catalog := research.NewCatalog(research.NewTemplateEngine(), research.Settings{
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		TavilyAPIKey: cfg.TavilyAPIKey,
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		Retriever:    cfg.Retriever,
		DocPath:      cfg.DocPath,
	})
	if err := catalog.Register(reg); err != nil {
		return fmt.Errorf("register catalog: %w", err)
	}

	dispatcherOpts := []dispatcher.Option{
		dispatcher.WithLogger(logger.WithFields(logging.String("component", "dispatcher"))),
		dispatcher.WithCallTimeout(cfg.CallTimeout),
	}

	var metrics *observability.MetricsProvider
	if cfg.MetricsEnabled {
		metrics, err = observability.NewMetricsProvider(observability.MetricsConfig{
			ServiceName:    serverName,
			ServiceVersion: serverVersion,
		})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		dispatcherOpts = append(dispatcherOpts, dispatcher.WithRecorder(metrics))
	}

	if cfg.TracingEnabled {
		tracing, err := observability.NewTracingProvider(observability.TracingConfig{
			ServiceName:    serverName,
			ServiceVersion: serverVersion,
			ExporterType:   observability.ExporterType(cfg.TraceExporter),
			Endpoint:       cfg.OTLPEndpoint,
			Insecure:       true,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown failed", logging.ErrorField(err))
			}
		}()
		dispatcherOpts = append(dispatcherOpts, dispatcher.WithTracer(tracing.Tracer()))
	}

	t, err := newTransport(cfg, logger, metrics)
	if err != nil {
		return err
	}

	srv := server.New(t, reg, dispatcher.New(reg, dispatcherOpts...),
		server.WithName(serverName),
		server.WithVersion(serverVersion),
		server.WithDescription("Conducts deep web and local document research, generating reports with citations."),
		server.WithLogger(logger.WithFields(logging.String("component", "server"))),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		logging.String("transport", cfg.Transport),
		logging.Duration("call_timeout", cfg.CallTimeout),
	)

	err = srv.Start(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
	return err
}

// newLogger builds the process logger. Output always goes to stderr so
// stdio framing stays clean.
func newLogger(cfg *config.Config) logging.Logger {
	var formatter logging.Formatter
	if cfg.LogFormat == "json" {
		formatter = logging.NewJSONFormatter()
	} else {
		formatter = logging.NewTextFormatter()
	}

	logger := logging.New(os.Stderr, formatter)
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	return logger
}

func newTransport(cfg *config.Config, logger logging.Logger, metrics *observability.MetricsProvider) (transport.Transport, error) {
	switch cfg.Transport {
	case "http":
		opts := []transport.HTTPOption{
			transport.WithHTTPLogger(logger.WithFields(logging.String("component", "http"))),
		}
		if metrics != nil {
			opts = append(opts, transport.WithHTTPMetricsHandler(metrics.Handler()))
		}
		if cfg.AuthToken != "" {
			opts = append(opts, transport.WithHTTPAuthToken(cfg.AuthToken))
		}
		return transport.NewHTTPTransport(cfg.HTTPAddr, opts...), nil
	default:
		return transport.NewStdioTransport(
			transport.WithStdioLogger(logger.WithFields(logging.String("component", "stdio"))),
		), nil
	}
}
