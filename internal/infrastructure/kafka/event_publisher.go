package kafka

import (
	"context"
	"fmt"

	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/cloudevents"
	"github.com/rjrjensen/vending-machine/pkg/kafka"
)

// EventPublisher implements domain event publishing using Kafka
type EventPublisher struct {
	producer     kafka.EventProducer
	eventFactory *cloudevents.EventFactory
	topic        string
}

// NewEventPublisher creates a new Kafka-based event publisher
func NewEventPublisher(
	producer kafka.EventProducer,
	eventFactory *cloudevents.EventFactory,
	topic string,
) *EventPublisher {
	return &EventPublisher{
		producer:     producer,
		eventFactory: eventFactory,
		topic:        topic,
	}
}

// Publish publishes a single domain event to Kafka
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	ce := p.toCloudEvent(ctx, event)

	if err := p.producer.PublishEvent(ctx, p.topic, ce); err != nil {
		return fmt.Errorf("failed to publish event to kafka: %w", err)
	}

	return nil
}

// PublishAll publishes events as one batch, preserving their order
func (p *EventPublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := make([]*cloudevents.VendingCloudEvent, 0, len(events))
	for _, event := range events {
		batch = append(batch, p.toCloudEvent(ctx, event))
	}

	if err := p.producer.PublishBatch(ctx, p.topic, batch); err != nil {
		return fmt.Errorf("failed to publish %d events to kafka: %w", len(batch), err)
	}

	return nil
}

// Topic returns the topic this publisher publishes to
func (p *EventPublisher) Topic() string {
	return p.topic
}

func (p *EventPublisher) toCloudEvent(ctx context.Context, event domain.DomainEvent) *cloudevents.VendingCloudEvent {
	var subject string
	switch e := event.(type) {
	case *domain.ItemVendedEvent:
		subject = cloudevents.SlotSubject(e.MachineID, e.Slot)
	case *domain.VendDeclinedEvent:
		subject = cloudevents.SlotSubject(e.MachineID, e.Slot)
	case *domain.MachineRestockedEvent:
		subject = cloudevents.MachineSubject(e.MachineID)
	case *domain.SoldOutEvent:
		subject = cloudevents.MachineSubject(e.MachineID)
	}

	return p.eventFactory.CreateEvent(ctx, event.EventType(), subject, event)
}
