package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInvocationCountsByOutcome(t *testing.T) {
	p, err := NewMetricsProvider(MetricsConfig{ServiceName: "test"})
	require.NoError(t, err)

	ctx := context.Background()
	p.RecordInvocation(ctx, "tool", "echo", "success", 10*time.Millisecond)
	p.RecordInvocation(ctx, "tool", "echo", "success", 20*time.Millisecond)
	p.RecordInvocation(ctx, "tool", "echo", "HandlerError", 5*time.Millisecond)

	success := testutil.ToFloat64(p.invocationTotal.WithLabelValues("tool", "echo", "success"))
	assert.Equal(t, float64(2), success)

	failed := testutil.ToFloat64(p.handlerErrors.WithLabelValues("tool", "echo"))
	assert.Equal(t, float64(1), failed)
}

func TestValidationFailuresAreNotHandlerErrors(t *testing.T) {
	p, err := NewMetricsProvider(MetricsConfig{})
	require.NoError(t, err)

	p.RecordInvocation(context.Background(), "tool", "echo", "ValidationError", time.Millisecond)

	failed := testutil.ToFloat64(p.handlerErrors.WithLabelValues("tool", "echo"))
	assert.Equal(t, float64(0), failed)
}

func TestMetricsHandlerServesScrape(t *testing.T) {
	p, err := NewMetricsProvider(MetricsConfig{ServiceName: "researcher-mcp"})
	require.NoError(t, err)
	p.RecordInvocation(context.Background(), "resource", "gpt-researcher://docs/examples", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "capserver_invocation_total"), "scrape output missing invocation counter")
}
