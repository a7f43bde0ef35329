package kafka

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rjrjensen/vending-machine/pkg/cloudevents"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/metrics"
	"github.com/rjrjensen/vending-machine/pkg/resilience"
)

// CircuitBreakerProducer guards an EventProducer with a circuit breaker and
// retries transient failures while the breaker is closed
type CircuitBreakerProducer struct {
	producer       EventProducer
	circuitBreaker *resilience.CircuitBreaker
	retry          *resilience.RetryConfig
}

// ProducerBreakerConfig is the breaker configuration used for Kafka publishing
func ProducerBreakerConfig() *resilience.CircuitBreakerConfig {
	return &resilience.CircuitBreakerConfig{
		Name:                  "kafka-producer",
		MaxRequests:           5,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}
}

// NewCircuitBreakerProducer wraps producer. observer may be nil.
func NewCircuitBreakerProducer(producer EventProducer, config *resilience.CircuitBreakerConfig, logger *logging.Logger, observer resilience.StateObserver) *CircuitBreakerProducer {
	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: resilience.NewCircuitBreaker(config, logger, observer),
		retry:          resilience.DefaultRetryConfig(),
	}
}

// WithRetry replaces the retry policy
func (p *CircuitBreakerProducer) WithRetry(config *resilience.RetryConfig) *CircuitBreakerProducer {
	p.retry = config
	return p
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.VendingCloudEvent) error {
	return resilience.Retry(ctx, p.retry, func() error {
		return p.circuitBreaker.Execute(ctx, func() error {
			return p.producer.PublishEvent(ctx, topic, event)
		})
	})
}

// PublishBatch publishes multiple events with circuit breaker protection
func (p *CircuitBreakerProducer) PublishBatch(ctx context.Context, topic string, events []*cloudevents.VendingCloudEvent) error {
	return resilience.Retry(ctx, p.retry, func() error {
		return p.circuitBreaker.Execute(ctx, func() error {
			return p.producer.PublishBatch(ctx, topic, events)
		})
	})
}

// Ready reports ErrCircuitOpen while the breaker is open
func (p *CircuitBreakerProducer) Ready() error {
	if p.circuitBreaker.State() == gobreaker.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return nil
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer builds the full chain: kafka-go writer, then
// instrumentation, then the breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	instrumented := NewInstrumentedProducer(NewProducer(config), m, logger)

	var observer resilience.StateObserver
	if m != nil {
		observer = m
	}
	return NewCircuitBreakerProducer(instrumented, ProducerBreakerConfig(), logger, observer)
}
