package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rjrjensen/vending-machine/pkg/cloudevents"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/metrics"
	"github.com/rjrjensen/vending-machine/pkg/tracing"
)

// InstrumentedProducer wraps an EventProducer with metrics, tracing and logging
type InstrumentedProducer struct {
	producer EventProducer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer. m and logger may be nil.
func NewInstrumentedProducer(producer EventProducer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent inside a producer span
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.VendingCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
			attribute.String("vending.machine.id", event.MachineID),
		),
	)
	defer span.End()

	err := p.producer.PublishEvent(ctx, topic, event)
	p.observe(ctx, span, topic, event.Type, err, time.Since(start))
	return err
}

// PublishBatch publishes events inside one producer span
func (p *InstrumentedProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.VendingCloudEvent) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish.batch",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(attribute.Int("messaging.batch_size", len(events))),
	)
	defer span.End()

	err := p.producer.PublishBatch(ctx, topic, events)
	duration := time.Since(start)

	per := duration / time.Duration(len(events))
	for _, event := range events {
		p.observe(ctx, nil, topic, event.Type, err, per)
	}
	endSpan(span, err)
	return err
}

func (p *InstrumentedProducer) observe(ctx context.Context, span trace.Span, topic, eventType string, err error, duration time.Duration) {
	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, eventType, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, eventType, success, duration)
	}
	if span != nil {
		endSpan(span, err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}
