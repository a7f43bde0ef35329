package application

import "github.com/rjrjensen/vending-machine/internal/domain"

// ToItemDTO converts a domain Item to ItemDTO
func ToItemDTO(item *domain.Item) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		Name:  item.Name(),
		Price: item.Price().String(),
	}
}

// ToSlotDTO converts a slot snapshot to SlotDTO
func ToSlotDTO(slot domain.Slot) SlotDTO {
	return SlotDTO{
		Slot:  slot.Coordinate,
		Empty: slot.IsEmpty(),
		Item:  ToItemDTO(slot.Item),
	}
}

// ToMachineDTO converts the machine to MachineDTO
func ToMachineDTO(machine *domain.VendingMachine) *MachineDTO {
	if machine == nil {
		return nil
	}

	slots := machine.Slots()
	dtos := make([]SlotDTO, 0, len(slots))
	filled := 0
	for _, slot := range slots {
		if !slot.IsEmpty() {
			filled++
		}
		dtos = append(dtos, ToSlotDTO(slot))
	}

	return &MachineDTO{
		MachineID: machine.ID(),
		Capacity:  machine.Capacity(),
		Filled:    filled,
		Slots:     dtos,
	}
}

// ToVendResultDTO converts a VendResult to VendResultDTO
func ToVendResultDTO(result domain.VendResult) *VendResultDTO {
	switch r := result.(type) {
	case domain.Dispensed:
		item := r.Item
		return &VendResultDTO{
			Dispensed: true,
			Slot:      r.Slot,
			Item:      ToItemDTO(&item),
			Tendered:  r.Tendered.String(),
			Change:    r.Change().String(),
		}
	case domain.NotDispensed:
		return &VendResultDTO{
			Dispensed: false,
			Slot:      r.Slot,
			Reason:    string(r.Reason),
			Tendered:  r.Tendered.String(),
			Change:    r.Change().String(),
		}
	default:
		return nil
	}
}

// ToRestockResultDTO converts a RestockResult to RestockResultDTO
func ToRestockResultDTO(result domain.RestockResult, capacity int) *RestockResultDTO {
	return &RestockResultDTO{
		Added:    result.Added,
		Dropped:  result.Dropped,
		Total:    result.Total,
		Capacity: capacity,
	}
}
