package transport

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mcperrors "github.com/gptr-ai/researcher-mcp/pkg/errors"
	"github.com/gptr-ai/researcher-mcp/pkg/logging"
)

const defaultMaxBodyBytes = 4 * 1024 * 1024

// HTTPTransport accepts JSON-RPC requests over HTTP POST. Each request
// body carries a single JSON-RPC message; the response body carries the
// JSON-RPC response. Notifications are acknowledged with 202 Accepted
// and an empty body.
//
// The router also exposes GET /healthz for liveness checks and, when
// configured, a Prometheus metrics endpoint.
type HTTPTransport struct {
	*BaseTransport

	addr           string
	rpcPath        string
	logger         logging.Logger
	metricsHandler http.Handler
	maxBodyBytes   int64
	authToken      string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPLogger sets the logger used for request logging.
func WithHTTPLogger(logger logging.Logger) HTTPOption {
	return func(t *HTTPTransport) { t.logger = logger }
}

// WithHTTPMetricsHandler mounts a metrics scrape handler at /metrics.
func WithHTTPMetricsHandler(h http.Handler) HTTPOption {
	return func(t *HTTPTransport) { t.metricsHandler = h }
}

// WithHTTPRPCPath overrides the JSON-RPC endpoint path. Default is /rpc.
func WithHTTPRPCPath(path string) HTTPOption {
	return func(t *HTTPTransport) { t.rpcPath = path }
}

// WithHTTPMaxBodyBytes caps the accepted request body size.
func WithHTTPMaxBodyBytes(n int64) HTTPOption {
	return func(t *HTTPTransport) { t.maxBodyBytes = n }
}

// WithHTTPAuthToken requires a bearer token on the RPC endpoint. The
// health and metrics endpoints stay open for probes and scrapers.
func WithHTTPAuthToken(token string) HTTPOption {
	return func(t *HTTPTransport) { t.authToken = token }
}

// NewHTTPTransport creates an HTTP transport listening on addr.
func NewHTTPTransport(addr string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		BaseTransport: NewBaseTransport(),
		addr:          addr,
		rpcPath:       "/rpc",
		logger:        logging.NewNop(),
		maxBodyBytes:  defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize binds the listener so that startup failures surface before
// the serve loop begins.
func (t *HTTPTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return mcperrors.TransportError("http", "listen", err)
	}
	t.listener = ln
	t.server = &http.Server{
		Handler:           t.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Addr returns the bound listen address. Useful when addr was ":0".
func (t *HTTPTransport) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return t.addr
	}
	return t.listener.Addr().String()
}

// Start serves HTTP until the context is cancelled or Stop is called.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	server, listener := t.server, t.listener
	t.mu.Unlock()

	if server == nil || listener == nil {
		return mcperrors.TransportNotInitialized("http")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return mcperrors.TransportError("http", "serve", err)
		}
		return nil
	}
}

// Stop shuts the server down gracefully.
func (t *HTTPTransport) Stop(ctx context.Context) error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return mcperrors.TransportError("http", "shutdown", err)
	}
	return nil
}

// SendNotification is unsupported: this transport has no server-push
// channel, so one-way messages to the client are silently dropped.
func (t *HTTPTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	return nil
}

func (t *HTTPTransport) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.HTTPMiddleware(t.logger))
	r.Use(middleware.Recoverer)

	rpc := http.Handler(http.HandlerFunc(t.handleRPC))
	if t.authToken != "" {
		rpc = t.requireBearer(rpc)
	}
	r.Method(http.MethodPost, t.rpcPath, rpc)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if t.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", t.metricsHandler)
	}
	return r
}

func (t *HTTPTransport) handleRPC(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, t.maxBodyBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > t.maxBodyBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	out, dispatchErr := t.DispatchMessage(req.Context(), body)
	if dispatchErr != nil {
		t.logger.Warn("dropping malformed frame", logging.ErrorField(dispatchErr))
		writeJSONError(w, http.StatusBadRequest, "malformed JSON-RPC message")
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

// requireBearer rejects RPC requests without the configured token.
// Comparison is constant-time so the token cannot be probed.
func (t *HTTPTransport) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		header := req.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(t.authToken)) != 1 {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
