package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money renders an amount held in minor units as a fixed two-decimal string
// ("472.50") in JSON payloads.
type Money int64

// Cents returns the raw minor-unit amount.
func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON renders the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number in
// major units. More than two fractional digits is rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money amount: %w", err)
	}
	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return fmt.Errorf("money amount %s has more than two decimal places", d.String())
	}
	*m = Money(cents.IntPart())
	return nil
}

// ParseMoney parses a major-unit decimal string into Money.
func ParseMoney(value string) (Money, error) {
	var m Money
	if err := m.UnmarshalJSON([]byte(`"` + value + `"`)); err != nil {
		return 0, err
	}
	return m, nil
}
