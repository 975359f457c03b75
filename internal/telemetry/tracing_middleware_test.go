package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newTestTracerProvider returns a provider recording into memory
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

// catalogRouter mounts the traced catalog routes answering with status
func catalogRouter(tp *sdktrace.TracerProvider, status int, opts ...TracingOption) http.Handler {
	r := chi.NewRouter()
	r.Use(TracingMiddleware(tp, opts...))
	respond := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(status) }
	r.Get("/v1/items", respond)
	r.Get("/v1/sources", respond)
	r.Post("/v1/repositories/refresh", respond)
	r.Get("/health", respond)
	return r
}

func spanAttributes(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	var called bool
	handler := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/cache/cleanup", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestTracingMiddleware_CatalogRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		target     string
		status     int
		wantName   string
		wantRoute  string
		wantQuery  string
		wantStatus codes.Code
	}{
		{
			name:       "search with query",
			method:     http.MethodGet,
			target:     "/v1/items?search=postgres&tags=db&sortBy=name",
			status:     http.StatusOK,
			wantName:   "GET /v1/items",
			wantRoute:  "/v1/items",
			wantQuery:  "search=postgres&tags=db&sortBy=name",
			wantStatus: codes.Ok,
		},
		{
			name:       "invalid sort is a client error",
			method:     http.MethodGet,
			target:     "/v1/items?sortBy=size",
			status:     http.StatusBadRequest,
			wantName:   "GET /v1/items",
			wantRoute:  "/v1/items",
			wantQuery:  "sortBy=size",
			wantStatus: codes.Unset,
		},
		{
			name:       "refresh failure",
			method:     http.MethodPost,
			target:     "/v1/repositories/refresh",
			status:     http.StatusInternalServerError,
			wantName:   "POST /v1/repositories/refresh",
			wantRoute:  "/v1/repositories/refresh",
			wantStatus: codes.Error,
		},
		{
			name:       "unrouted path",
			method:     http.MethodGet,
			target:     "/v2/items",
			status:     http.StatusOK,
			wantName:   "GET " + unknownRoute,
			wantRoute:  unknownRoute,
			wantStatus: codes.Unset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", "thv-catalog-test/1.0")
			rr := httptest.NewRecorder()
			catalogRouter(tp, tt.status).ServeHTTP(rr, req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, tt.wantName, span.Name)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			attrs := spanAttributes(span)
			assert.Equal(t, tt.method, attrs[semconv.HTTPRequestMethodKey].AsString())
			assert.Equal(t, tt.wantRoute, attrs[semconv.HTTPRouteKey].AsString())
			assert.Equal(t, "thv-catalog-test/1.0", attrs[semconv.UserAgentOriginalKey].AsString())
			assert.Equal(t, int64(rr.Code), attrs[semconv.HTTPResponseStatusCodeKey].AsInt64())

			query, ok := attrs[semconv.URLQueryKey]
			if tt.wantQuery == "" {
				assert.False(t, ok, "query attribute should be absent")
			} else {
				assert.Equal(t, tt.wantQuery, query.AsString())
			}
		})
	}
}

func TestTracingMiddleware_ServerErrorDescription(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	rr := httptest.NewRecorder()
	catalogRouter(tp, http.StatusServiceUnavailable).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), spans[0].Status.Description)
}

func TestTracingMiddleware_ContinuesRemoteTrace(t *testing.T) {
	t.Parallel()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter, tp := newTestTracerProvider(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	const parentID = "00f067aa0ba902b7"
	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-"+parentID+"-01")
	catalogRouter(tp, http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, parentID, spans[0].Parent.SpanID().String())
}

func TestTracingMiddleware_UntracedPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      []TracingOption
		path      string
		wantSpans int
	}{
		{name: "health skipped by default", path: "/health", wantSpans: 0},
		{name: "items traced by default", path: "/v1/items", wantSpans: 1},
		{
			name:      "custom list replaces defaults",
			opts:      []TracingOption{WithUntracedPaths("/v1/sources")},
			path:      "/health",
			wantSpans: 1,
		},
		{
			name:      "custom path skipped",
			opts:      []TracingOption{WithUntracedPaths("/v1/sources")},
			path:      "/v1/sources",
			wantSpans: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			rr := httptest.NewRecorder()
			catalogRouter(tp, http.StatusOK, tt.opts...).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rr.Code, "handler must still run")
			assert.Len(t, exporter.GetSpans(), tt.wantSpans)
		})
	}
}

func TestTracingMiddleware_TruncatesLongValues(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/items?search="+strings.Repeat("q", 2*maxQueryLength), nil)
	req.Header.Set("User-Agent", strings.Repeat("a", MaxUserAgentLength+10))
	catalogRouter(tp, http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	attrs := spanAttributes(spans[0])
	assert.Len(t, attrs[semconv.UserAgentOriginalKey].AsString(), MaxUserAgentLength)
	assert.Len(t, attrs[semconv.URLQueryKey].AsString(), maxQueryLength)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}
