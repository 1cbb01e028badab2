package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/tokmz/roomcast"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(t.Context())
	})
	return rec
}

func newEngine(cfg *TracingConfig) *roomcast.Engine {
	e := roomcast.New(roomcast.WithMode("test"), roomcast.WithBanner(false))
	e.Use(Tracing(cfg))
	e.RouterGroup().GET("/views", func(c *roomcast.Context) {
		c.String(http.StatusOK, "%s", roomcast.GetContextTraceID(c))
	})
	e.RouterGroup().GET("/healthz", func(c *roomcast.Context) {
		c.String(http.StatusOK, "ok")
	})
	return e
}

func TestTracingCreatesServerSpan(t *testing.T) {
	rec := setupRecorder(t)
	e := newEngine(nil)

	w := httptest.NewRecorder()
	e.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/views", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /views", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	traceID := spans[0].SpanContext().TraceID().String()
	assert.Equal(t, traceID, w.Body.String())
	assert.Contains(t, w.Header().Get("traceparent"), traceID)
}

func TestTracingContinuesUpstreamTrace(t *testing.T) {
	rec := setupRecorder(t)
	e := newEngine(nil)

	const upstream = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/views", nil)
	req.Header.Set("traceparent", "00-"+upstream+"-00f067aa0ba902b7-01")

	w := httptest.NewRecorder()
	e.Handler().ServeHTTP(w, req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, upstream, spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

func TestTracingExcludePaths(t *testing.T) {
	rec := setupRecorder(t)
	cfg := DefaultTracingConfig()
	cfg.ExcludePaths = []string{"/healthz"}
	e := newEngine(cfg)

	w := httptest.NewRecorder()
	e.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, rec.Ended())
}
