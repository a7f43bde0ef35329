package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// Event type names
const (
	EventItemVended       = "vending.machine.item-vended"
	EventVendDeclined     = "vending.machine.vend-declined"
	EventMachineRestocked = "vending.machine.restocked"
	EventSoldOut          = "vending.machine.sold-out"
)

// ItemVendedEvent is published when an item is dispensed
type ItemVendedEvent struct {
	MachineID string    `json:"machineId"`
	Slot      int       `json:"slot"`
	ItemName  string    `json:"itemName"`
	Price     Money     `json:"price"`
	Tendered  Money     `json:"tendered"`
	Change    Money     `json:"change"`
	VendedAt  time.Time `json:"vendedAt"`
}

func (e *ItemVendedEvent) EventType() string     { return EventItemVended }
func (e *ItemVendedEvent) OccurredAt() time.Time { return e.VendedAt }

// VendDeclinedEvent is published when a vend returns the cash untouched
type VendDeclinedEvent struct {
	MachineID  string        `json:"machineId"`
	Slot       int           `json:"slot"`
	Reason     DeclineReason `json:"reason"`
	Tendered   Money         `json:"tendered"`
	DeclinedAt time.Time     `json:"declinedAt"`
}

func (e *VendDeclinedEvent) EventType() string     { return EventVendDeclined }
func (e *VendDeclinedEvent) OccurredAt() time.Time { return e.DeclinedAt }

// MachineRestockedEvent is published after every restock, including no-op ones
type MachineRestockedEvent struct {
	MachineID   string    `json:"machineId"`
	Added       int       `json:"added"`
	Dropped     int       `json:"dropped"`
	Total       int       `json:"total"`
	Capacity    int       `json:"capacity"`
	RestockedAt time.Time `json:"restockedAt"`
}

func (e *MachineRestockedEvent) EventType() string     { return EventMachineRestocked }
func (e *MachineRestockedEvent) OccurredAt() time.Time { return e.RestockedAt }

// SoldOutEvent is published when a vend empties the last filled slot
type SoldOutEvent struct {
	MachineID string    `json:"machineId"`
	Capacity  int       `json:"capacity"`
	SoldOutAt time.Time `json:"soldOutAt"`
}

func (e *SoldOutEvent) EventType() string     { return EventSoldOut }
func (e *SoldOutEvent) OccurredAt() time.Time { return e.SoldOutAt }
