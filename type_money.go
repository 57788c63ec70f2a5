package microcap

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the journal's reporting currency. The journal tracks a single
// cash account in USD, like the brokerage account it mirrors.
const Currency = "USD"

// Money represents a monetary value in the reporting currency.
type Money struct {
	value decimal.Decimal
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

// ParseMoney parses a decimal string like "87.50" into a Money.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d}, nil
}

// currency returns the full reporting currency definition.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, Currency).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Mul(n Quantity) Money            { return Money{value: m.value.Mul(n.value)} }
func (m Money) Div(n Quantity) Money            { return Money{value: m.value.Div(n.value)} }

// InexactFloat64 converts to float64 for statistics; everything else stays exact.
func (m Money) InexactFloat64() float64 { return m.value.InexactFloat64() }

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON implements the json.Marshaler interface for Money.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Money.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.value.UnmarshalJSON(b)
}
