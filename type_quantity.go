package microcap

import "github.com/shopspring/decimal"

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Quantity represents a number of shares.
type Quantity struct {
	value decimal.Decimal
}

func Q[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: newDecimal(value)}
}

// ParseQuantity parses a decimal string like "10" or "2.5" into a Quantity.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: d}, nil
}

func (q Quantity) Equal(p Quantity) bool          { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool       { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool    { return q.value.GreaterThan(p.value) }
func (q Quantity) Add(p Quantity) Quantity        { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity        { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) IsNegative() bool               { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool               { return q.value.IsPositive() }
func (q Quantity) IsZero() bool                   { return q.value.IsZero() }
func (q Quantity) String() string                 { return q.value.String() }

// MulPrice returns the value of q shares at the given unit price.
func (q Quantity) MulPrice(price Money) Money { return price.Mul(q) }

// MarshalJSON implements the json.Marshaler interface for Quantity.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return q.value.MarshalJSON()
}
func (q *Quantity) UnmarshalJSON(decimalBytes []byte) error {
	return q.value.UnmarshalJSON(decimalBytes)
}
