// Package planogram loads a machine's initial slot layout from YAML.
//
//	machineId: vm-001
//	capacity: 10
//	slots:
//	  - name: candy
//	    price: "1.00"
//	  - empty: true
//	  - ~
//
// Slots are listed by coordinate. Null entries and entries marked empty are
// empty slots.
package planogram

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rjrjensen/vending-machine/internal/domain"
)

// ErrEmptyPlanogram is returned when the document has no content
var ErrEmptyPlanogram = errors.New("planogram is empty")

// Planogram is the parsed document
type Planogram struct {
	MachineID string  `yaml:"machineId"`
	Capacity  int     `yaml:"capacity"`
	Slots     []*Slot `yaml:"slots"`
}

// Slot is one entry of the layout
type Slot struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Empty bool   `yaml:"empty"`
}

// Load reads and parses a planogram file
func Load(path string) (*Planogram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read planogram: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a planogram document
func Parse(data []byte) (*Planogram, error) {
	var p Planogram
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse planogram: %w", err)
	}
	if p.MachineID == "" && p.Capacity == 0 && p.Slots == nil {
		return nil, ErrEmptyPlanogram
	}
	return &p, nil
}

// ApplyDefaults fills in the machine id and capacity when the document
// leaves them out
func (p *Planogram) ApplyDefaults(machineID string, capacity int) {
	if p.MachineID == "" {
		p.MachineID = machineID
	}
	if p.Capacity == 0 {
		p.Capacity = capacity
	}
}

// Items converts the layout into domain items. A nil entry is an empty slot.
func (p *Planogram) Items() ([]*domain.Item, error) {
	items := make([]*domain.Item, len(p.Slots))

	for idx, slot := range p.Slots {
		if slot == nil || slot.Empty {
			continue
		}

		price, err := domain.ParseMoney(slot.Price)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", idx, err)
		}
		item, err := domain.NewItem(slot.Name, price)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", idx, err)
		}
		items[idx] = &item
	}

	return items, nil
}

// Build creates the machine described by the planogram
func (p *Planogram) Build() (*domain.VendingMachine, error) {
	capacity := p.Capacity
	if capacity == 0 {
		capacity = domain.DefaultCapacity
	}

	items, err := p.Items()
	if err != nil {
		return nil, err
	}

	return domain.NewVendingMachineWithCapacity(p.MachineID, capacity, items)
}
