// Package dispatcher resolves named invocations against the capability
// registry, validates their input, runs the handler and normalizes the
// outcome into the uniform envelope. A handler failure, panic or
// timeout is converted into envelope data at this boundary; it never
// propagates to the transport layer.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gptr-ai/researcher-mcp/pkg/logging"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/schema"
)

// Namespace identifies which catalog a dispatch targets.
type Namespace string

const (
	NamespaceTool     Namespace = "tool"
	NamespaceResource Namespace = "resource"
	NamespacePrompt   Namespace = "prompt"
)

// Recorder receives one measurement per completed invocation. The
// outcome label matches the envelope: "success" or the error kind.
type Recorder interface {
	RecordInvocation(ctx context.Context, namespace, name, outcome string, duration time.Duration)
}

// Dispatcher routes invocations to registered handlers. It holds no
// locks across a handler invocation; the registry it reads is frozen
// after startup.
type Dispatcher struct {
	reg         *registry.Registry
	logger      logging.Logger
	recorder    Recorder
	tracer      trace.Tracer
	callTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRecorder sets the invocation metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithTracer sets the tracer used to span each invocation.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithCallTimeout bounds every handler invocation. Zero disables the
// timeout. Expiry converts the call into a Timeout envelope without
// guaranteeing the handler has stopped; the handler keeps its cancelled
// context and its late result is discarded.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.callTimeout = timeout
	}
}

// New creates a Dispatcher over the given registry.
func New(reg *registry.Registry, options ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:    reg,
		logger: logging.NewNop(),
		tracer: noop.NewTracerProvider().Tracer("dispatcher"),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// CallTool resolves, validates and invokes a tool, returning the
// envelope for every outcome.
func (d *Dispatcher) CallTool(ctx context.Context, name string, input map[string]interface{}) protocol.InvocationResult {
	return d.dispatch(ctx, NamespaceTool, name, func(ctx context.Context) (protocol.InvocationResult, bool) {
		desc, err := d.reg.Tool(name)
		if err != nil {
			return protocol.NotFound(name), false
		}

		validated, violations := schema.Validate(desc.Schema, input)
		if len(violations) > 0 {
			return protocol.Invalid(name, violations), false
		}

		return d.invoke(ctx, NamespaceTool, name, func(ctx context.Context) (interface{}, error) {
			return desc.Handler(ctx, validated)
		}), true
	})
}

// ReadResource resolves a resource by exact URI and invokes its
// producer. Resources take no structured input, so there is no
// validation step.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) protocol.InvocationResult {
	return d.dispatch(ctx, NamespaceResource, uri, func(ctx context.Context) (protocol.InvocationResult, bool) {
		desc, err := d.reg.Resource(uri)
		if err != nil {
			return protocol.NotFound(uri), false
		}

		return d.invoke(ctx, NamespaceResource, uri, func(ctx context.Context) (interface{}, error) {
			text, err := desc.Producer(ctx)
			if err != nil {
				return nil, err
			}
			return &protocol.ResourceContents{
				URI:      desc.URI,
				MIMEType: desc.MIMEType,
				Text:     text,
			}, nil
		}), true
	})
}

// RenderPrompt validates input exactly like a tool call, but the
// renderer's return shape is constrained to an ordered message
// sequence.
func (d *Dispatcher) RenderPrompt(ctx context.Context, name string, input map[string]interface{}) protocol.InvocationResult {
	return d.dispatch(ctx, NamespacePrompt, name, func(ctx context.Context) (protocol.InvocationResult, bool) {
		desc, err := d.reg.Prompt(name)
		if err != nil {
			return protocol.NotFound(name), false
		}

		validated, violations := schema.Validate(desc.Schema, input)
		if len(violations) > 0 {
			return protocol.Invalid(name, violations), false
		}

		return d.invoke(ctx, NamespacePrompt, name, func(ctx context.Context) (interface{}, error) {
			messages, err := desc.Renderer(ctx, validated)
			if err != nil {
				return nil, err
			}
			return &protocol.PromptPayload{Messages: messages}, nil
		}), true
	})
}

// dispatch wraps one invocation with tracing and metrics. The invoked
// flag distinguishes lookup/validation failures from handler outcomes
// in the recorded labels.
func (d *Dispatcher) dispatch(ctx context.Context, ns Namespace, name string, run func(ctx context.Context) (protocol.InvocationResult, bool)) protocol.InvocationResult {
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, fmt.Sprintf("%s.%s", ns, name),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("capability.namespace", string(ns)),
			attribute.String("capability.name", name),
		),
	)
	defer span.End()

	result, invoked := run(ctx)

	outcome := "success"
	if !result.Success {
		outcome = string(result.Error.Kind)
		span.SetStatus(codes.Error, result.Error.Message)
		span.SetAttributes(attribute.String("capability.error_kind", outcome))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.Bool("capability.handler_invoked", invoked))

	if d.recorder != nil {
		d.recorder.RecordInvocation(ctx, string(ns), name, outcome, time.Since(start))
	}

	if !result.Success {
		d.logger.Debug("invocation failed",
			logging.String("namespace", string(ns)),
			logging.String("name", name),
			logging.String("kind", outcome),
		)
	}

	return result
}
