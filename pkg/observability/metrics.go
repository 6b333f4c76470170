// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the capability server.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// Service identification
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Namespace is the Prometheus namespace (default: capserver).
	Namespace string

	// HistogramBuckets overrides the latency buckets, in seconds.
	HistogramBuckets []float64

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels
}

// MetricsProvider records invocation outcomes. It satisfies the
// dispatcher's Recorder interface.
type MetricsProvider struct {
	registry *prometheus.Registry

	invocationTotal    *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	handlerErrors      *prometheus.CounterVec
}

// NewMetricsProvider creates a metrics provider backed by its own
// Prometheus registry, along with the standard Go and process
// collectors.
func NewMetricsProvider(config MetricsConfig) (*MetricsProvider, error) {
	if config.Namespace == "" {
		config.Namespace = "capserver"
	}
	if config.HistogramBuckets == nil {
		config.HistogramBuckets = []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	}
	if config.ConstLabels == nil {
		config.ConstLabels = prometheus.Labels{}
	}
	if config.ServiceName != "" {
		config.ConstLabels["service"] = config.ServiceName
	}
	if config.ServiceVersion != "" {
		config.ConstLabels["version"] = config.ServiceVersion
	}
	if config.Environment != "" {
		config.ConstLabels["environment"] = config.Environment
	}

	p := &MetricsProvider{
		registry: prometheus.NewRegistry(),
		invocationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "invocation_total",
				Help:        "Total number of capability invocations by outcome",
				ConstLabels: config.ConstLabels,
			},
			[]string{"namespace", "name", "outcome"},
		),
		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Name:        "invocation_duration_seconds",
				Help:        "Duration of capability invocations in seconds",
				Buckets:     config.HistogramBuckets,
				ConstLabels: config.ConstLabels,
			},
			[]string{"namespace", "name", "outcome"},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Name:        "handler_errors_total",
				Help:        "Total number of invocations that failed after reaching a handler",
				ConstLabels: config.ConstLabels,
			},
			[]string{"namespace", "name"},
		),
	}

	for _, c := range []prometheus.Collector{
		p.invocationTotal,
		p.invocationDuration,
		p.handlerErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := p.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// RecordInvocation records one completed invocation. The outcome label
// is "success" or the envelope error kind.
func (p *MetricsProvider) RecordInvocation(ctx context.Context, namespace, name, outcome string, duration time.Duration) {
	p.invocationTotal.WithLabelValues(namespace, name, outcome).Inc()
	p.invocationDuration.WithLabelValues(namespace, name, outcome).Observe(duration.Seconds())

	switch outcome {
	case "HandlerError", "Timeout":
		p.handlerErrors.WithLabelValues(namespace, name).Inc()
	}
}

// Handler returns the HTTP handler serving the /metrics scrape
// endpoint.
func (p *MetricsProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying Prometheus registry for tests and
// for registering additional collectors.
func (p *MetricsProvider) Registry() *prometheus.Registry {
	return p.registry
}
