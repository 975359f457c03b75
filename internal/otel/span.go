// Package otel provides OpenTelemetry tracing helpers for the catalog server.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the cache, the service and the HTTP handlers
const (
	AttrSourceURL    = attribute.Key("catalog.source.url")
	AttrSourceName   = attribute.Key("catalog.source.name")
	AttrForceRefresh = attribute.Key("catalog.force_refresh")
	AttrCacheHit     = attribute.Key("catalog.cache.hit")
	AttrItemType     = attribute.Key("catalog.filter.type")
	AttrResultCount  = attribute.Key("result.count")
	AttrErrorCount   = attribute.Key("result.errors")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already in ctx (a no-op span when there is none)
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span as failed. The status
// description stays generic; the error text is kept in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
