package application

// ItemDTO represents an item in responses
type ItemDTO struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// SlotDTO represents one slot of the machine
type SlotDTO struct {
	Slot  int      `json:"slot"`
	Empty bool     `json:"empty"`
	Item  *ItemDTO `json:"item,omitempty"`
}

// MachineDTO is a snapshot of the whole machine
type MachineDTO struct {
	MachineID string    `json:"machineId"`
	Capacity  int       `json:"capacity"`
	Filled    int       `json:"filled"`
	Slots     []SlotDTO `json:"slots"`
}

// VendResultDTO reports the outcome of a vend. Change is always present.
type VendResultDTO struct {
	Dispensed bool     `json:"dispensed"`
	Slot      int      `json:"slot"`
	Item      *ItemDTO `json:"item,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Tendered  string   `json:"tendered"`
	Change    string   `json:"change"`
}

// RestockResultDTO reports what a restock did with its input
type RestockResultDTO struct {
	Added    int `json:"added"`
	Dropped  int `json:"dropped"`
	Total    int `json:"total"`
	Capacity int `json:"capacity"`
}
