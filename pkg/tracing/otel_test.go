package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	return recorder, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
}

func TestInitializeDisabled(t *testing.T) {
	tp, err := Initialize(context.Background(), DefaultConfig("vending-test"))
	require.NoError(t, err)

	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracedOperation(t *testing.T) {
	recorder, provider := newRecordingTracer()
	tracer := provider.Tracer("test")

	result, err := TracedOperation(context.Background(), tracer, "machine.vend",
		func(ctx context.Context) (int, error) {
			assert.NotEmpty(t, GetTraceID(ctx))
			return 42, nil
		},
		MachineSpanAttributes("vm-1", 3)...,
	)
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	_, err = TracedOperation(context.Background(), tracer, "machine.restock",
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
	)
	assert.EqualError(t, err, "boom")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "machine.vend", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}

func TestMachineSpanAttributes(t *testing.T) {
	assert.Len(t, MachineSpanAttributes("vm-1", 0), 2)
	assert.Len(t, MachineSpanAttributes("vm-1", -1), 1)
}

func TestGetTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}
