package domain

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is the number of slots in a standard machine
const DefaultCapacity = 10

// Errors
var (
	ErrSlotOutOfRange   = errors.New("slot out of range")
	ErrInvalidCapacity  = errors.New("capacity must be at least 1")
	ErrCapacityExceeded = errors.New("initial inventory exceeds capacity")
	ErrMissingMachineID = errors.New("machine ID is required")
)

// Slot is a point-in-time view of one slot
type Slot struct {
	Coordinate int
	Item       *Item
}

// IsEmpty returns true if the slot holds no item
func (s Slot) IsEmpty() bool {
	return s.Item == nil
}

// VendingMachine is the aggregate root owning the slot ledger.
//
// Slots are addressed by a stable zero-based coordinate in [0, capacity).
// Vending a slot leaves it empty in place; later slots never shift.
// All methods are safe for concurrent use.
type VendingMachine struct {
	mu           sync.Mutex
	id           string
	capacity     int
	slots        []*Item
	filled       int
	domainEvents []DomainEvent
}

// NewVendingMachine creates a machine with DefaultCapacity, filling slots
// from coordinate 0 in order.
func NewVendingMachine(id string, items ...Item) (*VendingMachine, error) {
	slots := make([]*Item, len(items))
	for idx := range items {
		slots[idx] = &items[idx]
	}
	return NewVendingMachineWithCapacity(id, DefaultCapacity, slots)
}

// NewVendingMachineWithCapacity creates a machine from an explicit slot layout.
// A nil entry is an empty slot; coordinates past the layout start empty.
func NewVendingMachineWithCapacity(id string, capacity int, layout []*Item) (*VendingMachine, error) {
	if id == "" {
		return nil, ErrMissingMachineID
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if len(layout) > capacity {
		return nil, fmt.Errorf("%w: %d slots for capacity %d", ErrCapacityExceeded, len(layout), capacity)
	}
	for idx, item := range layout {
		if item != nil && item.IsZero() {
			return nil, fmt.Errorf("slot %d: %w", idx, ErrInvalidItemName)
		}
	}

	m := &VendingMachine{
		id:           id,
		capacity:     capacity,
		slots:        make([]*Item, capacity),
		domainEvents: make([]DomainEvent, 0),
	}
	for idx, item := range layout {
		if item == nil {
			continue
		}
		stored := *item
		m.slots[idx] = &stored
		m.filled++
	}

	return m, nil
}

// ID returns the machine identifier
func (m *VendingMachine) ID() string {
	return m.id
}

// Capacity returns the maximum number of filled slots
func (m *VendingMachine) Capacity() int {
	return m.capacity
}

// FilledCount returns the number of slots currently holding an item
func (m *VendingMachine) FilledCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filled
}

// Slots returns a snapshot of every slot
func (m *VendingMachine) Slots() []Slot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Slot, len(m.slots))
	for idx, item := range m.slots {
		out[idx] = Slot{Coordinate: idx, Item: cloneItem(item)}
	}
	return out
}

// SlotAt returns a snapshot of a single slot
func (m *VendingMachine) SlotAt(coordinate int) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCoordinate(coordinate); err != nil {
		return Slot{}, err
	}
	return Slot{Coordinate: coordinate, Item: cloneItem(m.slots[coordinate])}, nil
}

// Vend attempts to dispense the item at coordinate against the tendered cash.
//
// An empty slot or a price above the tendered cash is not an error: the result
// is NotDispensed and the full amount comes back as change. Only an
// out-of-range coordinate returns an error. The slot is emptied only when the
// item is dispensed.
func (m *VendingMachine) Vend(coordinate int, tendered Money) (VendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkCoordinate(coordinate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := m.slots[coordinate]

	if item == nil {
		return m.decline(coordinate, ReasonSlotEmpty, tendered, now), nil
	}
	if item.Price().GreaterThan(tendered) {
		return m.decline(coordinate, ReasonInsufficientFunds, tendered, now), nil
	}

	change, err := tendered.Subtract(item.Price())
	if err != nil {
		return nil, err
	}

	m.slots[coordinate] = nil
	m.filled--

	m.addDomainEvent(&ItemVendedEvent{
		MachineID: m.id,
		Slot:      coordinate,
		ItemName:  item.Name(),
		Price:     item.Price(),
		Tendered:  tendered,
		Change:    change,
		VendedAt:  now,
	})
	if m.filled == 0 {
		m.addDomainEvent(&SoldOutEvent{
			MachineID: m.id,
			Capacity:  m.capacity,
			SoldOutAt: now,
		})
	}

	return Dispensed{
		Slot:     coordinate,
		Item:     *item,
		Tendered: tendered,
		Amount:   change,
	}, nil
}

// Restock adds items from the front of the input until the machine is full.
// Vacated slots are refilled lowest coordinate first. Items that do not fit
// are dropped and counted in the result, as are zero Items that were never
// built with NewItem.
func (m *VendingMachine) Restock(items ...Item) RestockResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.IsZero() {
			valid = append(valid, item)
		}
	}

	available := m.capacity - m.filled
	toAdd := min(available, len(valid))

	next := 0
	for idx := 0; idx < toAdd; idx++ {
		for m.slots[next] != nil {
			next++
		}
		stored := valid[idx]
		m.slots[next] = &stored
		m.filled++
	}

	result := RestockResult{
		Added:   toAdd,
		Dropped: len(items) - toAdd,
		Total:   m.filled,
	}

	m.addDomainEvent(&MachineRestockedEvent{
		MachineID:   m.id,
		Added:       result.Added,
		Dropped:     result.Dropped,
		Total:       result.Total,
		Capacity:    m.capacity,
		RestockedAt: time.Now().UTC(),
	})

	return result
}

// PullDomainEvents returns the pending domain events and clears them
func (m *VendingMachine) PullDomainEvents() []DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.domainEvents
	m.domainEvents = make([]DomainEvent, 0)
	return events
}

func (m *VendingMachine) decline(coordinate int, reason DeclineReason, tendered Money, at time.Time) NotDispensed {
	m.addDomainEvent(&VendDeclinedEvent{
		MachineID:  m.id,
		Slot:       coordinate,
		Reason:     reason,
		Tendered:   tendered,
		DeclinedAt: at,
	})

	return NotDispensed{
		Slot:     coordinate,
		Reason:   reason,
		Tendered: tendered,
	}
}

func (m *VendingMachine) checkCoordinate(coordinate int) error {
	if coordinate < 0 || coordinate >= len(m.slots) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrSlotOutOfRange, coordinate, len(m.slots))
	}
	return nil
}

func (m *VendingMachine) addDomainEvent(event DomainEvent) {
	m.domainEvents = append(m.domainEvents, event)
}

func cloneItem(item *Item) *Item {
	if item == nil {
		return nil
	}
	c := *item
	return &c
}
