package cloudevents

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/tracing"
)

// EventFactory creates CloudEvents for one machine
type EventFactory struct {
	source    string
	machineID string
	now       func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source and machine
func NewEventFactory(source, machineID string) *EventFactory {
	return &EventFactory{
		source:    source,
		machineID: machineID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent wraps data in a new event. The correlation id and W3C trace
// context are copied from ctx when present.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType string, subject string, data interface{}) *VendingCloudEvent {
	event := &VendingCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now(),
		DataContentType: "application/json",
		Data:            data,
		MachineID:       f.machineID,
	}

	if id, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = id
	}

	carrier := make(traceCarrier)
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier["traceparent"]
	event.TraceState = carrier["tracestate"]

	return event
}

// SlotSubject is the subject used for events about a single slot
func SlotSubject(machineID string, slot int) string {
	return "machine/" + machineID + "/slot/" + strconv.Itoa(slot)
}

// MachineSubject is the subject used for machine-wide events
func MachineSubject(machineID string) string {
	return "machine/" + machineID
}

type traceCarrier map[string]string

func (c traceCarrier) Get(key string) string { return c[key] }
func (c traceCarrier) Set(key, value string) { c[key] = value }
func (c traceCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
