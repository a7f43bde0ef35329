// Package eventlog publishes domain events to the structured log. It stands
// in for Kafka when no brokers are configured.
package eventlog

import (
	"context"

	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/logging"
)

// Publisher writes each domain event as a business event log line
type Publisher struct {
	logger *logging.Logger
}

// NewPublisher creates a log-backed publisher
func NewPublisher(logger *logging.Logger) *Publisher {
	return &Publisher{logger: logger.WithComponent("event-log")}
}

// Publish logs a single event
func (p *Publisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	p.logger.Event(ctx, event.EventType(), map[string]any{
		"occurredAt": event.OccurredAt(),
		"payload":    event,
	})
	return nil
}

// PublishAll logs events in order
func (p *Publisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
