package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a non-negative cash amount with at most two fraction
// digits. Amounts are exact decimals so change calculation never drifts.
type Money struct {
	amount decimal.Decimal
}

// Errors
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNegativeMoney = errors.New("money amount cannot be negative")
	ErrTooPrecise    = errors.New("money amount has more than two decimal places")
)

// MaxFractionDigits is the precision every amount is kept and rendered at
const MaxFractionDigits = 2

// NewMoney creates a new Money value object
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrNegativeMoney
	}
	if amount.Exponent() < -MaxFractionDigits {
		return Money{}, fmt.Errorf("%w: %s", ErrTooPrecise, amount.String())
	}

	return Money{amount: amount}, nil
}

// ParseMoney parses a decimal string such as "1.25"
func ParseMoney(value string) (Money, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Money{}, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}

	return NewMoney(amount)
}

// MustParseMoney is ParseMoney for fixtures; it panics on invalid input
func MustParseMoney(value string) Money {
	m, err := ParseMoney(value)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero money value
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Decimal returns the underlying decimal amount
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Add adds two money values
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract subtracts other from this money
func (m Money) Subtract(other Money) (Money, error) {
	if m.amount.LessThan(other.amount) {
		return Money{}, ErrNegativeMoney
	}

	return Money{amount: m.amount.Sub(other.amount)}, nil
}

// Equals compares amounts numerically, so 1 equals 1.00
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// GreaterThan checks if this money is greater than other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// LessThan checks if this money is less than other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// String returns the amount with two fixed decimals
func (m Money) String() string {
	return m.amount.StringFixed(MaxFractionDigits)
}

// MarshalJSON encodes money as a decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
