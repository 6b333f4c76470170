package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptr-ai/researcher-mcp/pkg/dispatcher"
	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
	"github.com/gptr-ai/researcher-mcp/pkg/registry"
	"github.com/gptr-ai/researcher-mcp/pkg/schema"
	"github.com/gptr-ai/researcher-mcp/pkg/transport"
)

// mockTransport records registered handlers so tests can drive them
// directly without a wire.
type mockTransport struct {
	requestHandlers      map[string]transport.RequestHandler
	notificationHandlers map[string]transport.NotificationHandler
	notifications        []string
	started              bool
	stopped              bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		requestHandlers:      make(map[string]transport.RequestHandler),
		notificationHandlers: make(map[string]transport.NotificationHandler),
	}
}

func (m *mockTransport) Initialize(ctx context.Context) error { return nil }
func (m *mockTransport) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}
func (m *mockTransport) Stop(ctx context.Context) error {
	m.stopped = true
	return nil
}
func (m *mockTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	m.notifications = append(m.notifications, method)
	return nil
}
func (m *mockTransport) RegisterRequestHandler(method string, handler transport.RequestHandler) {
	m.requestHandlers[method] = handler
}
func (m *mockTransport) RegisterNotificationHandler(method string, handler transport.NotificationHandler) {
	m.notificationHandlers[method] = handler
}

// call invokes a registered request handler with params marshalled to
// raw JSON, the way the wire would deliver them.
func (m *mockTransport) call(t *testing.T, ctx context.Context, method string, params interface{}) (interface{}, error) {
	t.Helper()
	handler, ok := m.requestHandlers[method]
	require.True(t, ok, "no handler registered for %s", method)

	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		raw = data
	}
	return handler(ctx, raw)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *mockTransport) {
	t.Helper()

	reg := registry.New()
	require.NoError(t, reg.RegisterTool(&registry.ToolDescriptor{
		Name:        "echo",
		Description: "Echo the input back",
		Schema:      schema.Schema{schema.String("message", "Text to echo")},
		Handler: func(ctx context.Context, input map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"echoed": input["message"]}, nil
		},
	}))
	require.NoError(t, reg.RegisterTool(&registry.ToolDescriptor{
		Name:        "slow",
		Description: "Blocks until cancelled",
		Handler: func(ctx context.Context, input map[string]interface{}) (interface{}, error) {
			<-ctx.Done()
			// Linger so the dispatcher observes the cancellation, not
			// this late return.
			time.Sleep(50 * time.Millisecond)
			return nil, ctx.Err()
		},
	}))
	require.NoError(t, reg.RegisterResource(&registry.ResourceDescriptor{
		URI:      "docs://readme",
		MIMEType: "text/markdown",
		Producer: func(ctx context.Context) (string, error) {
			return "# Readme", nil
		},
	}))
	require.NoError(t, reg.RegisterPrompt(&registry.PromptDescriptor{
		Name:   "outline",
		Schema: schema.Schema{schema.String("topic", "Topic to outline")},
		Renderer: func(ctx context.Context, input map[string]interface{}) ([]protocol.PromptMessage, error) {
			return []protocol.PromptMessage{{Role: "user", Content: "outline it"}}, nil
		},
	}))

	mt := newMockTransport()
	srv := New(mt, reg, dispatcher.New(reg), opts...)
	return srv, mt
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	_, mt := newTestServer(t, WithName("test-server"), WithVersion("2.1.0"))

	result, err := mt.call(t, context.Background(), protocol.MethodInitialize, &protocol.InitializeParams{
		Name:    "client",
		Version: "0.1.0",
	})
	require.NoError(t, err)

	initResult, ok := result.(*protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, protocol.ProtocolRevision, initResult.ProtocolVersion)
	assert.Equal(t, "test-server", initResult.Name)
	assert.Equal(t, "2.1.0", initResult.Version)
	assert.True(t, initResult.Capabilities[string(protocol.CapabilityTools)])
	assert.True(t, initResult.Capabilities[string(protocol.CapabilityResources)])
	assert.True(t, initResult.Capabilities[string(protocol.CapabilityPrompts)])
}

func TestListToolsPreservesRegistrationOrder(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodListTools, nil)
	require.NoError(t, err)

	listResult, ok := result.(*protocol.ListToolsResult)
	require.True(t, ok)
	require.Len(t, listResult.Tools, 2)
	assert.Equal(t, "echo", listResult.Tools[0].Name)
	assert.Equal(t, "slow", listResult.Tools[1].Name)
	assert.Len(t, listResult.Tools[0].ParameterSchema, 1)
}

func TestCallToolReturnsSuccessEnvelope(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodCallTool, &protocol.CallToolParams{
		Name:  "echo",
		Input: map[string]interface{}{"message": "hello"},
	})
	require.NoError(t, err)

	envelope, ok := result.(protocol.InvocationResult)
	require.True(t, ok)
	assert.True(t, envelope.Success)

	payload, ok := envelope.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", payload["echoed"])
}

func TestCallToolUnknownNameIsEnvelopeNotTransportError(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodCallTool, &protocol.CallToolParams{
		Name: "ghost",
	})
	require.NoError(t, err)

	envelope, ok := result.(protocol.InvocationResult)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, protocol.ErrKindNotFound, envelope.Error.Kind)
}

func TestCallToolValidationFailureEnvelope(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodCallTool, &protocol.CallToolParams{
		Name:  "echo",
		Input: map[string]interface{}{},
	})
	require.NoError(t, err)

	envelope, ok := result.(protocol.InvocationResult)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, protocol.ErrKindValidation, envelope.Error.Kind)
	require.Len(t, envelope.Error.Violations, 1)
	assert.Equal(t, "message", envelope.Error.Violations[0].Field)
}

func TestCallToolMissingNameIsTransportError(t *testing.T) {
	_, mt := newTestServer(t)

	_, err := mt.call(t, context.Background(), protocol.MethodCallTool, map[string]interface{}{})
	assert.Error(t, err)
}

func TestReadResourceEnvelope(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodReadResource, &protocol.ReadResourceParams{
		URI: "docs://readme",
	})
	require.NoError(t, err)

	envelope, ok := result.(protocol.InvocationResult)
	require.True(t, ok)
	assert.True(t, envelope.Success)

	payload, ok := envelope.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "# Readme", payload["text"])
	assert.Equal(t, "text/markdown", payload["mimeType"])
}

func TestGetPromptEnvelope(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodGetPrompt, &protocol.GetPromptParams{
		Name:  "outline",
		Input: map[string]interface{}{"topic": "go"},
	})
	require.NoError(t, err)

	envelope, ok := result.(protocol.InvocationResult)
	require.True(t, ok)
	assert.True(t, envelope.Success)
}

func TestPingEchoesTimestamp(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodPing, &protocol.PingParams{Timestamp: 12345})
	require.NoError(t, err)

	pingResult, ok := result.(*protocol.PingResult)
	require.True(t, ok)
	assert.Equal(t, int64(12345), pingResult.Timestamp)
}

func TestCancelInFlightRequest(t *testing.T) {
	_, mt := newTestServer(t)

	ctx := transport.ContextWithRequestID(context.Background(), "42")
	resultCh := make(chan interface{}, 1)
	go func() {
		result, err := mt.call(t, ctx, protocol.MethodCallTool, &protocol.CallToolParams{Name: "slow"})
		require.NoError(t, err)
		resultCh <- result
	}()

	// Wait for the invocation to be tracked before cancelling.
	require.Eventually(t, func() bool {
		result, err := mt.call(t, context.Background(), protocol.MethodCancel, &protocol.CancelParams{ID: "42"})
		if err != nil {
			return false
		}
		return result.(*protocol.CancelResult).Cancelled
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case result := <-resultCh:
		envelope, ok := result.(protocol.InvocationResult)
		require.True(t, ok)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "cancelled", envelope.Error.Cause)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled call never returned")
	}
}

func TestCancelUnknownRequest(t *testing.T) {
	_, mt := newTestServer(t)

	result, err := mt.call(t, context.Background(), protocol.MethodCancel, &protocol.CancelParams{ID: "nope"})
	require.NoError(t, err)
	assert.False(t, result.(*protocol.CancelResult).Cancelled)
}

func TestStopCancelsInFlightAndStopsTransport(t *testing.T) {
	srv, mt := newTestServer(t)

	ctx := transport.ContextWithRequestID(context.Background(), "77")
	resultCh := make(chan interface{}, 1)
	go func() {
		result, _ := mt.call(t, ctx, protocol.MethodCallTool, &protocol.CallToolParams{Name: "slow"})
		resultCh <- result
	}()

	require.Eventually(t, func() bool {
		srv.activeRequestsLock.Lock()
		defer srv.activeRequestsLock.Unlock()
		return len(srv.activeRequests) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Stop(context.Background()))
	assert.True(t, mt.stopped)

	select {
	case result := <-resultCh:
		envelope := result.(protocol.InvocationResult)
		assert.False(t, envelope.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight call not released by Stop")
	}
}
