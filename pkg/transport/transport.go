// Package transport provides the wire layer for capability servers.
//
// Two transports are included: stdio, which frames JSON-RPC messages as
// newline-delimited JSON on standard input and output, and HTTP, which
// accepts JSON-RPC requests on a POST endpoint. Both share BaseTransport
// for handler registration and message classification, so server code
// registers method handlers once and runs over either transport.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
)

// Transport is the minimal surface a capability server needs from its
// wire layer.
type Transport interface {
	// Initialize prepares the transport for use.
	Initialize(ctx context.Context) error

	// Start runs the transport's receive loop. It blocks until the
	// context is cancelled or the peer disconnects.
	Start(ctx context.Context) error

	// Stop halts the transport and releases its resources.
	Stop(ctx context.Context) error

	// SendNotification sends a one-way message to the peer.
	SendNotification(ctx context.Context, method string, params interface{}) error

	// Handler registration. Handlers must be registered before Start.
	RegisterRequestHandler(method string, handler RequestHandler)
	RegisterNotificationHandler(method string, handler NotificationHandler)
}

// RequestHandler handles an incoming request and returns the value to
// marshal into the response.
type RequestHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NotificationHandler handles an incoming notification.
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// ErrorHandler receives transport-level errors that have no request to
// answer, such as unparseable frames.
type ErrorHandler func(err error)

type contextKey int

const requestIDKey contextKey = iota

// ContextWithRequestID stamps a context with the JSON-RPC request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the JSON-RPC request ID stamped on the
// context, or the empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// BaseTransport carries the handler tables shared by all transport
// implementations. Handler registration is safe for concurrent use,
// though in practice all registration happens before the receive loop
// starts.
type BaseTransport struct {
	mu                   sync.RWMutex
	requestHandlers      map[string]RequestHandler
	notificationHandlers map[string]NotificationHandler
}

// NewBaseTransport creates an empty BaseTransport.
func NewBaseTransport() *BaseTransport {
	return &BaseTransport{
		requestHandlers:      make(map[string]RequestHandler),
		notificationHandlers: make(map[string]NotificationHandler),
	}
}

// RegisterRequestHandler registers a handler for incoming requests.
func (t *BaseTransport) RegisterRequestHandler(method string, handler RequestHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestHandlers[method] = handler
}

// RegisterNotificationHandler registers a handler for incoming notifications.
func (t *BaseTransport) RegisterNotificationHandler(method string, handler NotificationHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notificationHandlers[method] = handler
}

// GenerateID returns a unique message ID.
func (t *BaseTransport) GenerateID() string {
	return uuid.NewString()
}

// HandleRequest dispatches a request to its registered handler and
// builds the response. Handler panics are converted to an internal
// error response so a misbehaving handler cannot kill the receive loop.
func (t *BaseTransport) HandleRequest(ctx context.Context, req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp, _ = protocol.NewErrorResponse(req.ID, protocol.InternalError,
				fmt.Sprintf("internal error processing %s", req.Method), nil)
		}
	}()

	t.mu.RLock()
	handler, ok := t.requestHandlers[req.Method]
	t.mu.RUnlock()

	if !ok {
		resp, _ := protocol.NewErrorResponse(req.ID, protocol.MethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method), nil)
		return resp
	}

	ctx = ContextWithRequestID(ctx, fmt.Sprintf("%v", req.ID))
	result, err := handler(ctx, req.Params)
	if err != nil {
		resp, _ := protocol.NewErrorResponse(req.ID, protocol.InternalError, err.Error(), nil)
		return resp
	}

	resp, marshalErr := protocol.NewResponse(req.ID, result)
	if marshalErr != nil {
		resp, _ = protocol.NewErrorResponse(req.ID, protocol.InternalError,
			fmt.Sprintf("failed to marshal result: %v", marshalErr), nil)
	}
	return resp
}

// HandleNotification dispatches a notification to its registered
// handler. Unregistered methods are ignored; notifications are
// fire-and-forget in JSON-RPC 2.0.
func (t *BaseTransport) HandleNotification(ctx context.Context, notif *protocol.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error processing notification %s: %v", notif.Method, r)
		}
	}()

	t.mu.RLock()
	handler, ok := t.notificationHandlers[notif.Method]
	t.mu.RUnlock()

	if !ok {
		return nil
	}
	return handler(ctx, notif.Params)
}

// DispatchMessage classifies a raw JSON-RPC frame and routes it to the
// appropriate handler. It returns the response bytes to write back, or
// nil when the frame produces no response (notifications). A non-nil
// error means the frame could not be parsed at all.
func (t *BaseTransport) DispatchMessage(ctx context.Context, data []byte) ([]byte, error) {
	switch {
	case protocol.IsRequest(data):
		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}
		resp := t.HandleRequest(ctx, &req)
		return json.Marshal(resp)

	case protocol.IsNotification(data):
		var notif protocol.Notification
		if err := json.Unmarshal(data, &notif); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		if err := t.HandleNotification(ctx, &notif); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		var probe json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			resp, _ := protocol.NewErrorResponse(nil, protocol.ParseError, "parse error", nil)
			out, _ := json.Marshal(resp)
			return out, nil
		}
		resp, _ := protocol.NewErrorResponse(nil, protocol.InvalidRequest, "invalid request", nil)
		out, _ := json.Marshal(resp)
		return out, nil
	}
}
