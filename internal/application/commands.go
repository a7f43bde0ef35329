package application

// VendCommand asks the machine to dispense the item at Slot against Cash
type VendCommand struct {
	Slot int
	Cash string
}

// RestockItem is one item offered to a restock
type RestockItem struct {
	Name  string
	Price string
}

// RestockCommand offers items to the machine; items past capacity are dropped
type RestockCommand struct {
	Items []RestockItem
}

// GetSlotQuery looks up a single slot
type GetSlotQuery struct {
	Slot int
}
