package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	resultCtx, span := StartSpan(context.Background(), nil, "cache.GetRepositoryData")

	require.NotNil(t, resultCtx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

func TestStartSpan_KeepsParentWithoutTracer(t *testing.T) {
	t.Parallel()

	_, tp := newTestTracerProvider(t)
	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	defer parent.End()

	_, span := StartSpan(ctx, nil, "child")
	assert.Equal(t, parent.SpanContext(), span.SpanContext())
}

func TestStartSpan_ValidTracer(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "cache.GetRepositoryData",
		trace.WithAttributes(AttrSourceURL.String("https://github.com/x/y")),
	)
	require.True(t, span.SpanContext().IsValid())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "cache.GetRepositoryData", spans[0].Name)

	var found bool
	for _, attr := range spans[0].Attributes {
		if attr.Key == AttrSourceURL && attr.Value.AsString() == "https://github.com/x/y" {
			found = true
		}
	}
	assert.True(t, found, "should have source url attribute")
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
	assert.NotPanics(t, func() { RecordError(nil, nil) })

	exporter, tp := newTestTracerProvider(t)
	tracer := tp.Tracer("test")

	_, okSpan := tracer.Start(context.Background(), "ok")
	RecordError(okSpan, nil)
	okSpan.End()

	_, failedSpan := tracer.Start(context.Background(), "failed")
	RecordError(failedSpan, errors.New("clone failed"))
	failedSpan.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Empty(t, spans[0].Events)

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "operation failed", spans[1].Status.Description)
	require.NotEmpty(t, spans[1].Events)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}
