// Package registry holds the capability catalog: three independent
// namespaces (tools, resources, prompts) keyed by unique name or URI.
// Registration happens only during the single-threaded startup phase;
// after that the registry is read-only and safely shared across all
// concurrent invocation paths without locking.
package registry

import (
	"context"
	"fmt"

	"github.com/gptr-ai/researcher-mcp/pkg/errors"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/schema"
)

// ToolHandler executes a tool with validated input. It is never
// invoked with input that has not passed schema validation.
type ToolHandler func(ctx context.Context, input map[string]interface{}) (interface{}, error)

// ResourceProducer produces a fresh resource payload per read. No
// caching is guaranteed between reads.
type ResourceProducer func(ctx context.Context) (string, error)

// PromptRenderer renders a prompt into an ordered message sequence with
// validated input.
type PromptRenderer func(ctx context.Context, input map[string]interface{}) ([]protocol.PromptMessage, error)

// ToolDescriptor binds a tool's public description to its handler.
// Descriptors are created once at startup and are immutable for the
// life of the process.
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      schema.Schema
	Handler     ToolHandler
}

// ResourceDescriptor binds a resource URI to its producer.
type ResourceDescriptor struct {
	URI         string
	Description string
	MIMEType    string
	Producer    ResourceProducer
}

// PromptDescriptor binds a prompt template to its renderer.
type PromptDescriptor struct {
	Name        string
	Description string
	Schema      schema.Schema
	Renderer    PromptRenderer
}

// Registry is the startup-populated capability catalog. Maps provide
// lookup; the order slices preserve registration order, which is the
// order clients see in enumeration responses.
type Registry struct {
	tools     map[string]*ToolDescriptor
	toolOrder []string

	resources     map[string]*ResourceDescriptor
	resourceOrder []string

	prompts     map[string]*PromptDescriptor
	promptOrder []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools:     make(map[string]*ToolDescriptor),
		resources: make(map[string]*ResourceDescriptor),
		prompts:   make(map[string]*PromptDescriptor),
	}
}

// RegisterTool adds a tool to the catalog. Registering a second tool
// under an existing name is a fatal configuration error.
func (r *Registry) RegisterTool(d *ToolDescriptor) error {
	if d.Name == "" {
		return errors.InvalidParameter("name", "non-empty tool name")
	}
	if d.Handler == nil {
		return errors.MissingParameter("handler").WithDetail(fmt.Sprintf("tool %q", d.Name))
	}
	if _, exists := r.tools[d.Name]; exists {
		return errors.DuplicateName("tool", d.Name)
	}
	r.tools[d.Name] = d
	r.toolOrder = append(r.toolOrder, d.Name)
	return nil
}

// RegisterResource adds a resource to the catalog, keyed by exact URI.
func (r *Registry) RegisterResource(d *ResourceDescriptor) error {
	if d.URI == "" {
		return errors.InvalidParameter("uri", "non-empty resource URI")
	}
	if d.Producer == nil {
		return errors.MissingParameter("producer").WithDetail(fmt.Sprintf("resource %q", d.URI))
	}
	if _, exists := r.resources[d.URI]; exists {
		return errors.DuplicateName("resource", d.URI)
	}
	r.resources[d.URI] = d
	r.resourceOrder = append(r.resourceOrder, d.URI)
	return nil
}

// RegisterPrompt adds a prompt template to the catalog.
func (r *Registry) RegisterPrompt(d *PromptDescriptor) error {
	if d.Name == "" {
		return errors.InvalidParameter("name", "non-empty prompt name")
	}
	if d.Renderer == nil {
		return errors.MissingParameter("renderer").WithDetail(fmt.Sprintf("prompt %q", d.Name))
	}
	if _, exists := r.prompts[d.Name]; exists {
		return errors.DuplicateName("prompt", d.Name)
	}
	r.prompts[d.Name] = d
	r.promptOrder = append(r.promptOrder, d.Name)
	return nil
}

// Tool looks up a tool by name.
func (r *Registry) Tool(name string) (*ToolDescriptor, error) {
	d, ok := r.tools[name]
	if !ok {
		return nil, errors.CapabilityNotFound("tool", name)
	}
	return d, nil
}

// Resource looks up a resource by exact URI.
func (r *Registry) Resource(uri string) (*ResourceDescriptor, error) {
	d, ok := r.resources[uri]
	if !ok {
		return nil, errors.CapabilityNotFound("resource", uri)
	}
	return d, nil
}

// Prompt looks up a prompt template by name.
func (r *Registry) Prompt(name string) (*PromptDescriptor, error) {
	d, ok := r.prompts[name]
	if !ok {
		return nil, errors.CapabilityNotFound("prompt", name)
	}
	return d, nil
}

// Tools returns the registered tools in registration order. Each call
// returns a fresh slice, so enumeration is restartable and idempotent
// absent intervening registration.
func (r *Registry) Tools() []*ToolDescriptor {
	out := make([]*ToolDescriptor, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name])
	}
	return out
}

// Resources returns the registered resources in registration order.
func (r *Registry) Resources() []*ResourceDescriptor {
	out := make([]*ResourceDescriptor, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		out = append(out, r.resources[uri])
	}
	return out
}

// Prompts returns the registered prompt templates in registration order.
func (r *Registry) Prompts() []*PromptDescriptor {
	out := make([]*PromptDescriptor, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		out = append(out, r.prompts[name])
	}
	return out
}
