package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptr-ai/researcher-mcp/pkg/protocol"
)

func startHTTPTransport(t *testing.T, opts ...HTTPOption) (*HTTPTransport, string, func()) {
	t.Helper()

	tr := NewHTTPTransport("127.0.0.1:0", opts...)
	require.NoError(t, tr.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Start(ctx)
	}()

	base := fmt.Sprintf("http://%s", tr.Addr())
	cleanup := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("http transport did not stop")
		}
	}
	return tr, base, cleanup
}

func postRPC(t *testing.T, url string, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHTTPRequestResponse(t *testing.T) {
	tr, base, cleanup := startHTTPTransport(t)
	defer cleanup()

	tr.RegisterRequestHandler("ping", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"pong": true}, nil
	})

	httpResp, data := postRPC(t, base, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Nil(t, resp.Error)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, true, result["pong"])
}

func TestHTTPNotificationAccepted(t *testing.T) {
	tr, base, cleanup := startHTTPTransport(t)
	defer cleanup()

	received := make(chan struct{})
	tr.RegisterNotificationHandler("notifications/initialized", func(ctx context.Context, params json.RawMessage) error {
		close(received)
		return nil
	})

	httpResp, data := postRPC(t, base, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, httpResp.StatusCode)
	assert.Empty(t, data)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestHTTPParseErrorResponse(t *testing.T) {
	_, base, cleanup := startHTTPTransport(t)
	defer cleanup()

	httpResp, data := postRPC(t, base, `this is not json`)
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ParseError, resp.Error.Code)
}

func TestHTTPHealthz(t *testing.T) {
	_, base, cleanup := startHTTPTransport(t)
	defer cleanup()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestHTTPMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	_, base, cleanup := startHTTPTransport(t, WithHTTPMetricsHandler(metrics))
	defer cleanup()

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# metrics")
}

func TestHTTPBearerAuth(t *testing.T) {
	tr, base, cleanup := startHTTPTransport(t, WithHTTPAuthToken("sekrit"))
	defer cleanup()

	tr.RegisterRequestHandler("ping", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		return map[string]interface{}{}, nil
	})

	// Missing token is rejected.
	httpResp, _ := postRPC(t, base, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusUnauthorized, httpResp.StatusCode)

	// Health stays open.
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Correct token passes.
	req, err := http.NewRequest(http.MethodPost, base+"/rpc",
		bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPBodyTooLarge(t *testing.T) {
	_, base, cleanup := startHTTPTransport(t, WithHTTPMaxBodyBytes(64))
	defer cleanup()

	big := bytes.Repeat([]byte("x"), 256)
	httpResp, _ := postRPC(t, base, string(big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpResp.StatusCode)
}
