package domain

import (
	"errors"
	"strings"
)

// ErrInvalidItemName is returned when an item is created without a name
var ErrInvalidItemName = errors.New("item name is required")

// Item is one purchasable unit. Items have no identity beyond name and price,
// and several slots may hold items with the same name.
type Item struct {
	name  string
	price Money
}

// NewItem creates a new Item value
func NewItem(name string, price Money) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrInvalidItemName
	}

	return Item{name: name, price: price}, nil
}

// MustNewItem builds an item from a decimal price string and panics on error
func MustNewItem(name, price string) Item {
	item, err := NewItem(name, MustParseMoney(price))
	if err != nil {
		panic(err)
	}
	return item
}

// Name returns the item label
func (i Item) Name() string {
	return i.name
}

// Price returns the item price
func (i Item) Price() Money {
	return i.price
}

// IsZero reports whether the item is the zero value rather than one built by NewItem
func (i Item) IsZero() bool {
	return i.name == ""
}

// Equals reports structural equality
func (i Item) Equals(other Item) bool {
	return i.name == other.name && i.price.Equals(other.price)
}
