// Package researcher is the root of the researcher-mcp module,
// providing convenient exports of the core components from the
// sub-packages.
//
// The module implements a capability server: a startup-populated
// catalog of tools, resources and prompts served over JSON-RPC on
// stdio or HTTP. Every invocation answers with a uniform envelope
// carrying either the payload or a structured error.
//
// # Sub-packages
//
//   - pkg/registry: the startup-populated capability catalog
//   - pkg/schema: parameter schemas and input validation
//   - pkg/dispatcher: lookup, validation and handler invocation
//   - pkg/server: JSON-RPC method handlers over a transport
//   - pkg/transport: stdio and HTTP transports
//   - pkg/protocol: wire types and the invocation envelope
//   - internal/research: the GPT Researcher capability catalog
//
// # Serving a catalog
//
//	reg := researcher.NewRegistry()
//	reg.RegisterTool(&registry.ToolDescriptor{
//	    Name:   "hello",
//	    Schema: schema.Schema{schema.StringDefault("name", "Who to greet", "World")},
//	    Handler: func(ctx context.Context, input map[string]interface{}) (interface{}, error) {
//	        return map[string]string{"greeting": "Hello, " + input["name"].(string) + "!"}, nil
//	    },
//	})
//
//	srv := researcher.NewServer(
//	    researcher.NewStdioTransport(),
//	    reg,
//	    researcher.NewDispatcher(reg),
//	    server.WithName("hello-server"),
//	)
//	srv.Start(ctx) // blocks until the context is cancelled
package researcher

import (
	"github.com/gptr-ai/researcher-mcp/pkg/dispatcher"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/server"
	"github.com/gptr-ai/researcher-mcp/pkg/transport"
)

// Version is the current version of the module.
const Version = "1.0.0"

// Direct access to the core components.
var (
	// NewRegistry creates an empty capability registry.
	NewRegistry = registry.New

	// NewDispatcher creates a dispatcher over a registry.
	NewDispatcher = dispatcher.New

	// NewServer creates a capability server.
	NewServer = server.New

	// NewStdioTransport creates a newline-delimited JSON stdio transport.
	NewStdioTransport = transport.NewStdioTransport

	// NewHTTPTransport creates an HTTP transport.
	NewHTTPTransport = transport.NewHTTPTransport
)

// Capability constants advertised at initialize time.
const (
	CapabilityTools     = protocol.CapabilityTools
	CapabilityResources = protocol.CapabilityResources
	CapabilityPrompts   = protocol.CapabilityPrompts
	CapabilityLogging   = protocol.CapabilityLogging
)
