package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/cloudevents"
	"github.com/rjrjensen/vending-machine/pkg/contracts/asyncapi"
	"github.com/rjrjensen/vending-machine/pkg/kafka"
	"github.com/rjrjensen/vending-machine/pkg/logging"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func newPublisher(writer *fakeWriter) *EventPublisher {
	producer := kafka.NewProducerWithWriters(func(topic string) kafka.MessageWriter {
		return writer
	})
	factory := cloudevents.NewEventFactory(cloudevents.SourceMachineService, "vm-1")
	return NewEventPublisher(producer, factory, kafka.Topics.MachineEvents)
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// machineEvents drives a real machine through every event type
func machineEvents(t *testing.T) []domain.DomainEvent {
	t.Helper()
	machine, err := domain.NewVendingMachineWithCapacity("vm-1", 2, nil)
	require.NoError(t, err)

	machine.Restock(domain.MustNewItem("candy", "1.25"))
	_, err = machine.Vend(1, domain.MustParseMoney("1"))
	require.NoError(t, err)
	_, err = machine.Vend(0, domain.MustParseMoney("2"))
	require.NoError(t, err)

	events := machine.PullDomainEvents()
	require.Len(t, events, 4)
	return events
}

func TestEventPublisher_PublishAll(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newPublisher(writer)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-123")

	err := publisher.PublishAll(ctx, machineEvents(t))
	require.NoError(t, err)

	require.Len(t, writer.messages, 4)
	expectedTypes := []string{
		domain.EventMachineRestocked,
		domain.EventVendDeclined,
		domain.EventItemVended,
		domain.EventSoldOut,
	}
	for idx, msg := range writer.messages {
		assert.Equal(t, "vm-1", string(msg.Key))
		assert.Equal(t, expectedTypes[idx], header(msg, "ce-type"))
		assert.Equal(t, cloudevents.SourceMachineService, header(msg, "ce-source"))
		assert.Equal(t, "corr-123", header(msg, "ce-"+cloudevents.ExtCorrelationID))
		assert.Equal(t, "application/cloudevents+json", header(msg, "content-type"))
	}
}

func TestEventPublisher_Subjects(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newPublisher(writer)

	require.NoError(t, publisher.PublishAll(context.Background(), machineEvents(t)))

	subjects := make([]string, 0, len(writer.messages))
	for _, msg := range writer.messages {
		var envelope struct {
			Subject string `json:"subject"`
		}
		require.NoError(t, json.Unmarshal(msg.Value, &envelope))
		subjects = append(subjects, envelope.Subject)
	}

	assert.Equal(t, []string{
		"machine/vm-1",
		"machine/vm-1/slot/1",
		"machine/vm-1/slot/0",
		"machine/vm-1",
	}, subjects)
}

func TestEventPublisher_MatchesAsyncAPIContract(t *testing.T) {
	validator, err := asyncapi.NewEventValidator("../../../docs/asyncapi.yaml")
	require.NoError(t, err)

	writer := &fakeWriter{}
	publisher := newPublisher(writer)
	require.NoError(t, publisher.PublishAll(context.Background(), machineEvents(t)))

	for _, msg := range writer.messages {
		assert.NoError(t, validator.ValidateEventJSON(msg.Value), header(msg, "ce-type"))
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	writer := &fakeWriter{}
	publisher := newPublisher(writer)

	err := publisher.Publish(context.Background(), &domain.SoldOutEvent{MachineID: "vm-1", Capacity: 2})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, domain.EventSoldOut, header(writer.messages[0], "ce-type"))
	assert.Equal(t, kafka.Topics.MachineEvents, publisher.Topic())
}

func TestEventPublisher_PropagatesWriterErrors(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	publisher := newPublisher(writer)

	err := publisher.Publish(context.Background(), &domain.SoldOutEvent{MachineID: "vm-1", Capacity: 2})
	assert.ErrorContains(t, err, "broker unavailable")

	err = publisher.PublishAll(context.Background(), machineEvents(t))
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestEventPublisher_PublishAllEmpty(t *testing.T) {
	writer := &fakeWriter{err: errors.New("should not be called")}
	publisher := newPublisher(writer)

	assert.NoError(t, publisher.PublishAll(context.Background(), nil))
}
