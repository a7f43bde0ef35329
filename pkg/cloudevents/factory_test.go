package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/logging"
)

func TestCreateEvent(t *testing.T) {
	factory := NewEventFactory(SourceMachineService, "vm-7")
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-9")

	event := factory.CreateEvent(ctx, domain.EventItemVended, SlotSubject("vm-7", 4), map[string]int{"slot": 4})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, domain.EventItemVended, event.Type)
	assert.Equal(t, SourceMachineService, event.Source)
	assert.Equal(t, "machine/vm-7/slot/4", event.Subject)
	assert.Equal(t, "application/json", event.DataContentType)
	assert.Equal(t, "vm-7", event.MachineID)
	assert.Equal(t, "corr-9", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
	assert.WithinDuration(t, time.Now(), event.Time, time.Minute)
	assert.Empty(t, event.TraceParent)

	assert.Equal(t, map[string]string{
		ExtMachineID:     "vm-7",
		ExtCorrelationID: "corr-9",
	}, event.Extensions())
}

func TestCreateEvent_UniqueIDs(t *testing.T) {
	factory := NewEventFactory(SourceMachineService, "vm-7")

	a := factory.CreateEvent(context.Background(), domain.EventMachineRestocked, MachineSubject("vm-7"), nil)
	b := factory.CreateEvent(context.Background(), domain.EventMachineRestocked, MachineSubject("vm-7"), nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "machine/vm-7", a.Subject)
}

func TestCreateEvent_InjectsTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "vend")
	defer span.End()

	event := NewEventFactory(SourceMachineService, "vm-7").CreateEvent(ctx, domain.EventItemVended, "", nil)

	require.NotEmpty(t, event.TraceParent)
	assert.Contains(t, event.TraceParent, span.SpanContext().TraceID().String())
	assert.Contains(t, event.Extensions(), ExtTraceParent)
}

func TestVendingCloudEvent_JSON(t *testing.T) {
	event := NewEventFactory(SourceMachineService, "vm-7").CreateEvent(context.Background(), domain.EventSoldOut, "", map[string]int{"capacity": 10})

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "vm-7", decoded[ExtMachineID])
	assert.NotContains(t, decoded, "subject")
	assert.NotContains(t, decoded, ExtCorrelationID)
}
