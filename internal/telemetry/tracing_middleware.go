package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the HTTP tracer
	TracerName = "github.com/stacklok/toolhive-catalog-server/http"

	// MaxUserAgentLength bounds the user agent recorded on spans
	MaxUserAgentLength = 256

	// maxQueryLength bounds the query string recorded on spans
	maxQueryLength = 512
)

// DefaultUntracedPaths are hit by orchestrators and scrapers every few seconds
var DefaultUntracedPaths = []string{"/health", "/readiness", "/metrics"}

// TracingOption configures TracingMiddleware
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	untraced map[string]bool
}

// WithUntracedPaths replaces DefaultUntracedPaths
func WithUntracedPaths(paths ...string) TracingOption {
	return func(o *tracingOptions) {
		o.untraced = make(map[string]bool, len(paths))
		for _, p := range paths {
			o.untraced[p] = true
		}
	}
}

// TracingMiddleware starts a server span per request, continuing the trace
// carried by the W3C headers. A nil provider yields a pass-through middleware.
func TracingMiddleware(provider trace.TracerProvider, opts ...TracingOption) func(http.Handler) http.Handler {
	if provider == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	o := &tracingOptions{}
	WithUntracedPaths(DefaultUntracedPaths...)(o)
	for _, opt := range opts {
		opt(o)
	}

	tracer := provider.Tracer(TracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.untraced[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// Renamed to the route pattern once chi has routed the request
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncate(r.UserAgent(), MaxUserAgentLength)),
				),
			)
			defer span.End()

			if r.URL.RawQuery != "" {
				span.SetAttributes(semconv.URLQuery(truncate(r.URL.RawQuery, maxQueryLength)))
			}

			next.ServeHTTP(ww, r.WithContext(ctx))

			route := getRoutePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(ww.Status()),
			)

			// Client errors leave the status unset on server spans
			switch status := ww.Status(); {
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			case status < http.StatusBadRequest:
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
