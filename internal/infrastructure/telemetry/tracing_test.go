package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperpc/marketsync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestStartSpan_AttributesAndError(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := telemetry.StartSpan(context.Background(), "scheduler.pull",
		telemetry.WithAttribute(telemetry.SpanAttrMarketplace, "paris"))
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))

	telemetry.SetAttributes(span, telemetry.SpanAttrOrders, 3, 42, "skipped")
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "scheduler.pull", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "boom", s.Status().Description)

	attrs := attrMap(s.Attributes())
	assert.Equal(t, "paris", attrs[telemetry.SpanAttrMarketplace])
	assert.Equal(t, "3", attrs[telemetry.SpanAttrOrders])
	assert.Len(t, attrs, 2)
}

func TestSetOK(t *testing.T) {
	rec := withRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "ok")
	telemetry.SetOK(span)
	telemetry.RecordError(span, nil)
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Ok, rec.Ended()[0].Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}
