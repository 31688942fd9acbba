package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/worksets/internal/tracing"
)

func TestRegistry_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	r := New[int, string](&counter{failOn: 9}, WithName("counter"), WithTracer(tp.Tracer("test")))

	require.NoError(t, r.AddWithLabel("L", 2))
	require.Error(t, r.AddWithLabel("L", 9))
	require.NoError(t, r.RemoveWithLabel("L"))
	require.NoError(t, r.RemoveWithLabel("L"), "no span for a missing label")

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	require.Equal(t, tracing.SpanRegistryAdd, spans[0].Name())
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, "counter", attrs[tracing.AttrRegistry])
	require.Equal(t, "L", attrs[tracing.AttrLabel])
	require.Equal(t, int64(2), attrs[tracing.AttrRecords])

	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, tracing.SpanRegistryRemove, spans[2].Name())
}
