package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// displayPlaces is the scale used whenever an amount leaves the engine
// (JSON, display strings, the database). Intermediate arithmetic is exact.
const displayPlaces = 2

// ErrInvalidAmount indicates an input that cannot be parsed to an exact
// decimal amount, or that is negative where a non-negative amount is required.
var ErrInvalidAmount = fmt.Errorf("invalid amount")

// Money is a fixed-precision currency amount backed by an exact decimal.
// The zero value is zero money.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// FromDecimal wraps an exact decimal as Money.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Parse converts an external decimal string into Money.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{d: d}, nil
}

// ParseNonNegative is Parse with a non-negativity requirement, for inputs
// like principals and payment components where a negative amount is
// meaningless.
func ParseNonNegative(s string) (Money, error) {
	m, err := Parse(s)
	if err != nil {
		return Money{}, err
	}
	if m.IsNegative() {
		return Money{}, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return m, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other. The result may be negative; callers decide whether
// that is an error.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// MulRatio returns m scaled by an exact rational factor, without rounding.
func (m Money) MulRatio(factor decimal.Decimal) Money {
	return Money{d: m.d.Mul(factor)}
}

// Round2 rounds to two decimal places, half away from zero.
func (m Money) Round2() Money {
	return Money{d: m.d.Round(displayPlaces)}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// Decimal exposes the exact underlying value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Display renders the amount rounded half-up to two places, e.g. "600.00".
func (m Money) Display() string {
	return m.d.StringFixed(displayPlaces)
}

// String is the exact representation, used for logs and debugging.
func (m Money) String() string {
	return m.d.String()
}

// MarshalJSON emits the amount as an exact decimal string; amounts never
// cross the wire as binary floating point.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Display() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value persists the amount as TEXT so no precision is lost in the database.
func (m Money) Value() (driver.Value, error) {
	return m.Display(), nil
}

// Scan reads an amount back from its TEXT representation.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T into Money", ErrInvalidAmount, src)
	}
}
