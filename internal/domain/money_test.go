package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		expectError error
	}{
		{name: "valid money", amount: decimal.NewFromFloat(10.5)},
		{name: "zero amount is valid", amount: decimal.Zero},
		{name: "negative amount", amount: decimal.NewFromInt(-1), expectError: ErrNegativeMoney},
		{name: "sub-cent amount", amount: decimal.RequireFromString("0.005"), expectError: ErrTooPrecise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := NewMoney(tt.amount)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.True(t, money.Decimal().Equal(tt.amount))
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError error
	}{
		{name: "integer", input: "10", expected: "10.00"},
		{name: "two decimals", input: "1.25", expected: "1.25"},
		{name: "surrounding whitespace", input: "  3.5 ", expected: "3.50"},
		{name: "empty", input: "", expectError: ErrInvalidAmount},
		{name: "not a number", input: "ten", expectError: ErrInvalidAmount},
		{name: "negative", input: "-0.01", expectError: ErrNegativeMoney},
		{name: "three decimals", input: "0.005", expectError: ErrTooPrecise},
		{name: "trailing zero past cents", input: "1.250", expectError: ErrTooPrecise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := ParseMoney(tt.input)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, money.String())
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustParseMoney("1.00")
	b := MustParseMoney("0.35")

	assert.Equal(t, "1.35", a.Add(b).String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "0.65", diff.String())

	_, err = b.Subtract(a)
	assert.ErrorIs(t, err, ErrNegativeMoney)

	zero, err := a.Subtract(a)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.True(t, zero.Equals(Zero()))
}

func TestMoney_Comparison(t *testing.T) {
	one := MustParseMoney("1")
	onePointZero := MustParseMoney("1.00")
	two := MustParseMoney("2")

	assert.True(t, one.Equals(onePointZero))
	assert.True(t, two.GreaterThan(one))
	assert.False(t, one.GreaterThan(onePointZero))
	assert.True(t, one.LessThan(two))
	assert.False(t, two.LessThan(one))
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustParseMoney("9"))
	require.NoError(t, err)
	assert.Equal(t, `"9.00"`, string(data))

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"2.75"`), &fromString))
	assert.Equal(t, "2.75", fromString.String())

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`4.1`), &fromNumber))
	assert.Equal(t, "4.10", fromNumber.String())

	var invalid Money
	assert.ErrorIs(t, json.Unmarshal([]byte(`"abc"`), &invalid), ErrInvalidAmount)
}

func TestMustParseMoney_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseMoney("nope") })
}
