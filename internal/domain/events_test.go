package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainEvents_Metadata(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		eventType string
		event     DomainEvent
	}{
		{
			name:      "item_vended",
			eventType: "vending.machine.item-vended",
			event:     &ItemVendedEvent{VendedAt: now},
		},
		{
			name:      "vend_declined",
			eventType: "vending.machine.vend-declined",
			event:     &VendDeclinedEvent{DeclinedAt: now},
		},
		{
			name:      "restocked",
			eventType: "vending.machine.restocked",
			event:     &MachineRestockedEvent{RestockedAt: now},
		},
		{
			name:      "sold_out",
			eventType: "vending.machine.sold-out",
			event:     &SoldOutEvent{SoldOutAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eventType, tt.event.EventType())
			assert.Equal(t, now, tt.event.OccurredAt())
		})
	}
}

func TestItemVendedEvent_JSON(t *testing.T) {
	event := &ItemVendedEvent{
		MachineID: "vm-001",
		Slot:      2,
		ItemName:  "candy",
		Price:     MustParseMoney("1"),
		Tendered:  MustParseMoney("5"),
		Change:    MustParseMoney("4"),
		VendedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "vm-001", decoded["machineId"])
	assert.Equal(t, float64(2), decoded["slot"])
	assert.Equal(t, "1.00", decoded["price"])
	assert.Equal(t, "4.00", decoded["change"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["vendedAt"])
}

func TestDeclineReason_IsValid(t *testing.T) {
	assert.True(t, ReasonSlotEmpty.IsValid())
	assert.True(t, ReasonInsufficientFunds.IsValid())
	assert.False(t, DeclineReason("jammed").IsValid())
}
