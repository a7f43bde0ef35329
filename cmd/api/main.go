package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rjrjensen/vending-machine/internal/application"
	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/internal/infrastructure/eventlog"
	infrakafka "github.com/rjrjensen/vending-machine/internal/infrastructure/kafka"
	"github.com/rjrjensen/vending-machine/internal/infrastructure/planogram"
	"github.com/rjrjensen/vending-machine/pkg/cloudevents"
	"github.com/rjrjensen/vending-machine/pkg/kafka"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/metrics"
	"github.com/rjrjensen/vending-machine/pkg/middleware"
	"github.com/rjrjensen/vending-machine/pkg/tracing"
)

const serviceName = "vending-machine-service"

func main() {
	config := loadConfig()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logConfig.MachineID = config.MachineID
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting vending-machine-service API")

	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.ServiceVersion = getEnv("VERSION", "1.0.0")
	tracingConfig.MachineID = config.MachineID
	tracingConfig.Enabled = getEnvBool("TRACING_ENABLED", false)

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "enabled", tracingConfig.Enabled, "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	machine, err := buildMachine(config)
	if err != nil {
		logger.WithError(err).Error("Failed to build machine", "planogram", config.PlanogramPath)
		os.Exit(1)
	}
	logger.Info("Machine loaded",
		"machineId", machine.ID(),
		"capacity", machine.Capacity(),
		"filled", machine.FilledCount(),
	)

	events := newEventing(config, machine.ID(), m, logger)
	defer func() {
		if err := events.close(); err != nil {
			logger.WithError(err).Error("Failed to close event publisher")
		}
	}()

	service := application.NewVendingApplicationService(machine, events.publisher, m, logger)
	router := setupRouter(service, m, logger, events.ready)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// setupRouter builds the gin engine with the standard middleware chain and
// the machine routes
func setupRouter(service *application.VendingApplicationService, m *metrics.Metrics, logger *logging.Logger, ready func() error) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, ready))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1/machine")
	{
		api.GET("", getMachineHandler(service))
		api.POST("/restock", restockHandler(service, logger))
		api.GET("/slots/:slot", getSlotHandler(service, logger))
		api.POST("/slots/:slot/vend", vendHandler(service, logger))
	}

	return router
}

// buildMachine loads the planogram when one is configured, otherwise it
// starts an empty machine
func buildMachine(config *Config) (*domain.VendingMachine, error) {
	if config.PlanogramPath == "" {
		return domain.NewVendingMachineWithCapacity(config.MachineID, config.Capacity, nil)
	}

	p, err := planogram.Load(config.PlanogramPath)
	if err != nil {
		return nil, err
	}
	p.ApplyDefaults(config.MachineID, config.Capacity)
	return p.Build()
}

// eventing bundles the publisher with its readiness and shutdown hooks
type eventing struct {
	publisher domain.EventPublisher
	ready     func() error
	close     func() error
}

func newEventing(config *Config, machineID string, m *metrics.Metrics, logger *logging.Logger) *eventing {
	if !config.KafkaEnabled {
		logger.Info("Kafka disabled, publishing events to the log")
		return &eventing{
			publisher: eventlog.NewPublisher(logger),
			ready:     func() error { return nil },
			close:     func() error { return nil },
		}
	}

	producer := kafka.NewProductionProducer(config.Kafka, m, logger)
	factory := cloudevents.NewEventFactory(cloudevents.SourceMachineService, machineID)
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers, "topic", kafka.Topics.MachineEvents)

	return &eventing{
		publisher: infrakafka.NewEventPublisher(producer, factory, kafka.Topics.MachineEvents),
		ready:     producer.Ready,
		close:     producer.Close,
	}
}
