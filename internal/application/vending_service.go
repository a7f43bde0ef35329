package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/errors"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/metrics"
	"github.com/rjrjensen/vending-machine/pkg/tracing"
)

// VendingApplicationService handles the machine's use cases
type VendingApplicationService struct {
	machine   *domain.VendingMachine
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

// NewVendingApplicationService creates a new VendingApplicationService.
// m may be nil.
func NewVendingApplicationService(
	machine *domain.VendingMachine,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *VendingApplicationService {
	s := &VendingApplicationService{
		machine:   machine,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent("vending-service"),
		tracer:    otel.Tracer("vending-service"),
	}
	s.recordInventory()
	return s
}

// Vend dispenses the item at cmd.Slot if cmd.Cash covers its price.
// Declines are not errors; only bad input and unknown slots are.
func (s *VendingApplicationService) Vend(ctx context.Context, cmd VendCommand) (*VendResultDTO, error) {
	start := time.Now()

	cash, err := domain.ParseMoney(cmd.Cash)
	if err != nil {
		return nil, errors.ErrValidation("cash must be a non-negative amount with at most two decimal places").
			WithDetail("cash", cmd.Cash).
			Wrap(err)
	}

	result, err := tracing.TracedOperation(ctx, s.tracer, "machine.vend",
		func(ctx context.Context) (domain.VendResult, error) {
			return s.machine.Vend(cmd.Slot, cash)
		},
		tracing.MachineSpanAttributes(s.machine.ID(), cmd.Slot)...,
	)
	if err != nil {
		s.logger.WithContext(ctx).WithSlot(cmd.Slot).Warn("Vend rejected", "error", err)
		return nil, s.mapError(err, cmd.Slot)
	}

	dto := ToVendResultDTO(result)
	outcome := string(domain.OutcomeDispensed)
	if !dto.Dispensed {
		outcome = dto.Reason
	}

	if s.metrics != nil {
		s.metrics.RecordVend(outcome, result.Change().Decimal().InexactFloat64())
	}
	s.recordInventory()

	data := map[string]any{
		"slot":     cmd.Slot,
		"outcome":  outcome,
		"tendered": dto.Tendered,
		"change":   dto.Change,
	}
	if dto.Item != nil {
		data["item"] = dto.Item.Name
		data["price"] = dto.Item.Price
	}
	s.logger.Event(ctx, "vend", data)
	s.logger.Performance(ctx, "vend", time.Since(start), true)

	s.publishPending(ctx)
	return dto, nil
}

// Restock validates every offered item, then fills empty slots until the
// machine is full. Nothing is added if any item is invalid.
func (s *VendingApplicationService) Restock(ctx context.Context, cmd RestockCommand) (*RestockResultDTO, error) {
	items, err := buildItems(cmd.Items)
	if err != nil {
		return nil, err
	}

	result, _ := tracing.TracedOperation(ctx, s.tracer, "machine.restock",
		func(ctx context.Context) (domain.RestockResult, error) {
			return s.machine.Restock(items...), nil
		},
		tracing.MachineSpanAttributes(s.machine.ID(), -1)...,
	)

	if s.metrics != nil {
		s.metrics.RecordRestock(result.Added, result.Dropped)
	}
	s.recordInventory()

	logger := s.logger.WithContext(ctx)
	if result.Dropped > 0 {
		logger.Warn("Restock exceeded capacity",
			"offered", len(items),
			"dropped", result.Dropped,
			"capacity", s.machine.Capacity(),
		)
	}
	s.logger.Event(ctx, "restock", map[string]any{
		"added":   result.Added,
		"dropped": result.Dropped,
		"total":   result.Total,
	})

	s.publishPending(ctx)
	return ToRestockResultDTO(result, s.machine.Capacity()), nil
}

// GetMachine returns a snapshot of every slot
func (s *VendingApplicationService) GetMachine(ctx context.Context) *MachineDTO {
	_, span := s.tracer.Start(ctx, "machine.get", trace.WithAttributes(tracing.MachineSpanAttributes(s.machine.ID(), -1)...))
	defer span.End()

	return ToMachineDTO(s.machine)
}

// GetSlot returns a single slot
func (s *VendingApplicationService) GetSlot(ctx context.Context, query GetSlotQuery) (*SlotDTO, error) {
	_, span := s.tracer.Start(ctx, "machine.get-slot", trace.WithAttributes(tracing.MachineSpanAttributes(s.machine.ID(), query.Slot)...))
	defer span.End()

	slot, err := s.machine.SlotAt(query.Slot)
	if err != nil {
		return nil, s.mapError(err, query.Slot)
	}

	dto := ToSlotDTO(slot)
	return &dto, nil
}

func buildItems(offered []RestockItem) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(offered))
	fields := make(map[string]string)

	for idx, o := range offered {
		price, err := domain.ParseMoney(o.Price)
		if err != nil {
			fields[fmt.Sprintf("items[%d].price", idx)] = err.Error()
			continue
		}
		item, err := domain.NewItem(o.Name, price)
		if err != nil {
			fields[fmt.Sprintf("items[%d].name", idx)] = err.Error()
			continue
		}
		items = append(items, item)
	}

	if len(fields) > 0 {
		return nil, errors.ErrValidationWithFields("invalid restock items", fields)
	}
	return items, nil
}

func (s *VendingApplicationService) mapError(err error, slot int) *errors.AppError {
	return errors.MapDomainError(err, errors.Mapping{
		Target: domain.ErrSlotOutOfRange,
		Build: func(error) *errors.AppError {
			return errors.ErrSlotOutOfRange(slot, s.machine.Capacity())
		},
	})
}

// publishPending drains the machine's events. Publish failures are logged
// and never undo the transaction that produced the events.
func (s *VendingApplicationService) publishPending(ctx context.Context) {
	events := s.machine.PullDomainEvents()
	if len(events) == 0 {
		return
	}

	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish domain events", "count", len(events))
	}
}

func (s *VendingApplicationService) recordInventory() {
	if s.metrics != nil {
		s.metrics.SetInventory(s.machine.FilledCount(), s.machine.Capacity())
	}
}
