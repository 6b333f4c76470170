// Package server wires a capability catalog, its dispatcher, and a
// transport into a running JSON-RPC server.
//
// Every invocation method (tools/call, resources/read, prompts/get)
// answers with a JSON-RPC success response whose result is the
// invocation envelope; a JSON-RPC error is reserved for faults in the
// framing itself, such as unknown methods or malformed parameters.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gptr-ai/researcher-mcp/pkg/dispatcher"
	mcperrors "github.com/gptr-ai/researcher-mcp/pkg/errors"
	"github.com/gptr-ai/researcher-mcp/pkg/logging"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/transport"
)

// Server exposes a registry's capabilities over a transport.
type Server struct {
	transport    transport.Transport
	registry     *registry.Registry
	dispatcher   *dispatcher.Dispatcher
	name         string
	version      string
	description  string
	instructions string
	logger       logging.Logger

	initialized     bool
	clientInfo      *protocol.ClientInfo
	initializedLock sync.RWMutex

	// In-flight invocation contexts by request ID for cancel support.
	activeRequests     map[string]context.CancelFunc
	activeRequestsLock sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the server name advertised at initialize time.
func WithName(name string) Option {
	return func(s *Server) { s.name = name }
}

// WithVersion sets the server version advertised at initialize time.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithDescription sets the server description.
func WithDescription(description string) Option {
	return func(s *Server) { s.description = description }
}

// WithInstructions sets usage instructions returned to clients at
// initialize time.
func WithInstructions(instructions string) Option {
	return func(s *Server) { s.instructions = instructions }
}

// WithLogger sets the server logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server over the given transport, registry, and
// dispatcher, and registers all method handlers on the transport.
func New(t transport.Transport, reg *registry.Registry, disp *dispatcher.Dispatcher, options ...Option) *Server {
	s := &Server{
		transport:      t,
		registry:       reg,
		dispatcher:     disp,
		name:           "capability-server",
		version:        "1.0.0",
		logger:         logging.NewNop(),
		activeRequests: make(map[string]context.CancelFunc),
	}
	for _, option := range options {
		option(s)
	}

	t.RegisterRequestHandler(protocol.MethodInitialize, s.handleInitialize)
	t.RegisterNotificationHandler(protocol.MethodInitialized, s.handleInitialized)
	t.RegisterRequestHandler(protocol.MethodPing, s.handlePing)
	t.RegisterRequestHandler(protocol.MethodCancel, s.handleCancel)

	t.RegisterRequestHandler(protocol.MethodListTools, s.handleListTools)
	t.RegisterRequestHandler(protocol.MethodCallTool, s.handleCallTool)
	t.RegisterRequestHandler(protocol.MethodListResources, s.handleListResources)
	t.RegisterRequestHandler(protocol.MethodReadResource, s.handleReadResource)
	t.RegisterRequestHandler(protocol.MethodListPrompts, s.handleListPrompts)
	t.RegisterRequestHandler(protocol.MethodGetPrompt, s.handleGetPrompt)

	return s
}

// Start initializes the transport and runs its receive loop, blocking
// until the context is cancelled or the peer disconnects.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Initialize(ctx); err != nil {
		return mcperrors.ServerInit("transport initialization", err)
	}

	s.logger.Info("server starting",
		logging.String("name", s.name),
		logging.String("version", s.version),
		logging.Int("tools", len(s.registry.Tools())),
		logging.Int("resources", len(s.registry.Resources())),
		logging.Int("prompts", len(s.registry.Prompts())),
	)

	return s.transport.Start(ctx)
}

// Stop cancels all in-flight invocations and shuts the transport down.
func (s *Server) Stop(ctx context.Context) error {
	s.activeRequestsLock.Lock()
	for _, cancel := range s.activeRequests {
		cancel()
	}
	s.activeRequests = make(map[string]context.CancelFunc)
	s.activeRequestsLock.Unlock()

	return s.transport.Stop(ctx)
}

// SendLog sends a log notification to the client.
func (s *Server) SendLog(ctx context.Context, level, message, source string) error {
	return s.transport.SendNotification(ctx, protocol.MethodLog, &protocol.LogParams{
		Level:   level,
		Message: message,
		Source:  source,
	})
}

func (s *Server) isInitialized() bool {
	s.initializedLock.RLock()
	defer s.initializedLock.RUnlock()
	return s.initialized
}

// decodeParams unmarshals request parameters into target. A nil or
// empty params payload is accepted; required fields are checked by the
// individual handlers.
func decodeParams(params json.RawMessage, target interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, target); err != nil {
		return mcperrors.InvalidParameter("params", fmt.Sprintf("%T", target)).
			WithDetail(err.Error())
	}
	return nil
}

// trackRequest registers a cancel function for an in-flight invocation.
func (s *Server) trackRequest(requestID string, cancel context.CancelFunc) {
	if requestID == "" {
		return
	}
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	s.activeRequests[requestID] = cancel
}

// completeRequest drops the cancel function once the invocation has
// produced its envelope.
func (s *Server) completeRequest(requestID string) {
	if requestID == "" {
		return
	}
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	delete(s.activeRequests, requestID)
}

// cancelRequest cancels a specific in-flight invocation by request ID.
func (s *Server) cancelRequest(requestID string) bool {
	s.activeRequestsLock.Lock()
	defer s.activeRequestsLock.Unlock()
	if cancel, ok := s.activeRequests[requestID]; ok {
		cancel()
		delete(s.activeRequests, requestID)
		s.logger.Info("cancelled request", logging.String("request_id", requestID))
		return true
	}
	return false
}

// invocationContext derives a cancellable context tracked under the
// request ID so a later cancel request can reach it.
func (s *Server) invocationContext(ctx context.Context) (context.Context, func()) {
	requestID := transport.RequestIDFromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	s.trackRequest(requestID, cancel)
	return ctx, func() {
		s.completeRequest(requestID)
		cancel()
	}
}

// Request handlers

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var initParams protocol.InitializeParams
	if err := decodeParams(params, &initParams); err != nil {
		return nil, err
	}

	s.initializedLock.Lock()
	s.clientInfo = initParams.ClientInfo
	s.initialized = true
	s.initializedLock.Unlock()

	s.logger.Info("client connected",
		logging.String("client_name", initParams.Name),
		logging.String("client_version", initParams.Version),
	)

	return &protocol.InitializeResult{
		ProtocolVersion: protocol.ProtocolRevision,
		Name:            s.name,
		Version:         s.version,
		Capabilities: map[string]bool{
			string(protocol.CapabilityTools):     true,
			string(protocol.CapabilityResources): true,
			string(protocol.CapabilityPrompts):   true,
			string(protocol.CapabilityLogging):   true,
		},
		Instructions: s.instructions,
		ServerInfo: &protocol.ServerInfo{
			Name:        s.name,
			Version:     s.version,
			Description: s.description,
		},
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) error {
	s.initializedLock.Lock()
	s.initialized = true
	s.initializedLock.Unlock()

	s.logger.Debug("connection initialized")
	return nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var pingParams protocol.PingParams
	if err := decodeParams(params, &pingParams); err != nil {
		return nil, err
	}

	timestamp := pingParams.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	return &protocol.PingResult{Timestamp: timestamp}, nil
}

func (s *Server) handleCancel(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var cancelParams protocol.CancelParams
	if err := decodeParams(params, &cancelParams); err != nil {
		return nil, err
	}
	if cancelParams.ID == nil {
		return nil, mcperrors.MissingParameter("id")
	}

	cancelled := s.cancelRequest(fmt.Sprintf("%v", cancelParams.ID))
	return &protocol.CancelResult{Cancelled: cancelled}, nil
}

func (s *Server) handleListTools(ctx context.Context, params json.RawMessage) (interface{}, error) {
	descriptors := s.registry.Tools()
	tools := make([]protocol.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, protocol.Tool{
			Name:            d.Name,
			Description:     d.Description,
			ParameterSchema: d.Schema,
		})
	}
	return &protocol.ListToolsResult{Tools: tools}, nil
}

func (s *Server) handleCallTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var callParams protocol.CallToolParams
	if err := decodeParams(params, &callParams); err != nil {
		return nil, err
	}
	if callParams.Name == "" {
		return nil, mcperrors.MissingParameter("name")
	}

	ctx, done := s.invocationContext(ctx)
	defer done()

	return s.dispatcher.CallTool(ctx, callParams.Name, callParams.Input), nil
}

func (s *Server) handleListResources(ctx context.Context, params json.RawMessage) (interface{}, error) {
	descriptors := s.registry.Resources()
	resources := make([]protocol.Resource, 0, len(descriptors))
	for _, d := range descriptors {
		resources = append(resources, protocol.Resource{
			URI:         d.URI,
			Description: d.Description,
			MIMEType:    d.MIMEType,
		})
	}
	return &protocol.ListResourcesResult{Resources: resources}, nil
}

func (s *Server) handleReadResource(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var readParams protocol.ReadResourceParams
	if err := decodeParams(params, &readParams); err != nil {
		return nil, err
	}
	if readParams.URI == "" {
		return nil, mcperrors.MissingParameter("uri")
	}

	ctx, done := s.invocationContext(ctx)
	defer done()

	return s.dispatcher.ReadResource(ctx, readParams.URI), nil
}

func (s *Server) handleListPrompts(ctx context.Context, params json.RawMessage) (interface{}, error) {
	descriptors := s.registry.Prompts()
	prompts := make([]protocol.Prompt, 0, len(descriptors))
	for _, d := range descriptors {
		prompts = append(prompts, protocol.Prompt{
			Name:            d.Name,
			Description:     d.Description,
			ParameterSchema: d.Schema,
		})
	}
	return &protocol.ListPromptsResult{Prompts: prompts}, nil
}

func (s *Server) handleGetPrompt(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var getParams protocol.GetPromptParams
	if err := decodeParams(params, &getParams); err != nil {
		return nil, err
	}
	if getParams.Name == "" {
		return nil, mcperrors.MissingParameter("name")
	}

	ctx, done := s.invocationContext(ctx)
	defer done()

	return s.dispatcher.RenderPrompt(ctx, getParams.Name, getParams.Input), nil
}
