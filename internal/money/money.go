// Package money provides the fixed-point value types used by the ledger.
//
// Money is stored as an int64 count of cents and Rate as an int64 scaled by
// 10 000. Conversions from decimal sources round half away from zero, so no
// binary floating point value ever reaches a balance.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	// MoneyPrecision is the number of decimal places carried by Money.
	MoneyPrecision = 2
	// MoneyScale is the factor between a Money value and its backing integer.
	MoneyScale = 100

	// Currency is the display currency for all balances.
	Currency = gomoney.USD
)

// ErrOverflow is returned when an amount leaves the range of Money.
var ErrOverflow = errors.New("amount out of range")

// The range is symmetric so Neg and Abs never overflow.
var (
	minScaled = decimal.NewFromInt(-math.MaxInt64)
	maxScaled = decimal.NewFromInt(math.MaxInt64)
)

// Money is an immutable amount of currency with two decimal places.
type Money struct {
	cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// FromCents wraps an already scaled integer amount.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromDecimal rounds d half away from zero to two decimal places.
func FromDecimal(d decimal.Decimal) (Money, error) {
	scaled, err := toScaled(d, MoneyPrecision)
	if err != nil {
		return Zero, err
	}
	return Money{cents: scaled}, nil
}

// MustFromDecimal is FromDecimal for values known to be in range.
func MustFromDecimal(d decimal.Decimal) Money {
	m, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a float literal, rounding half away from zero.
// Only intended for configuration and tests; arithmetic never uses floats.
func FromFloat(f float64) Money {
	return MustFromDecimal(decimal.NewFromFloat(f))
}

// Parse reads a decimal string such as "12.345" or "-3".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return FromDecimal(d)
}

// Cents returns the backing scaled integer.
func (m Money) Cents() int64 { return m.cents }

// Decimal returns the exact decimal value.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -MoneyPrecision) }

func (m Money) Add(n Money) Money { return Money{cents: m.cents + n.cents} }
func (m Money) Sub(n Money) Money { return Money{cents: m.cents - n.cents} }
func (m Money) Neg() Money        { return Money{cents: -m.cents} }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.cents < 0 {
		return m.Neg()
	}
	return m
}

// CheckedAdd returns m + n, or ErrOverflow when the sum leaves the range of Money.
func (m Money) CheckedAdd(n Money) (Money, error) {
	sum := m.cents + n.cents
	if (n.cents > 0 && sum < m.cents) || (n.cents < 0 && sum > m.cents) || sum == math.MinInt64 {
		return Zero, fmt.Errorf("%w: %s + %s", ErrOverflow, m, n)
	}
	return Money{cents: sum}, nil
}

// MulInt multiplies by a whole quantity, or returns ErrOverflow when the
// product leaves the range of Money.
func (m Money) MulInt(n int64) (Money, error) {
	if m.cents == 0 || n == 0 {
		return Zero, nil
	}
	if n == math.MinInt64 || m.cents == math.MinInt64 {
		return Zero, fmt.Errorf("%w: %s × %d", ErrOverflow, m, n)
	}
	product := m.cents * n
	if product/n != m.cents || product == math.MinInt64 {
		return Zero, fmt.Errorf("%w: %s × %d", ErrOverflow, m, n)
	}
	return Money{cents: product}, nil
}

// MulRate scales m by r and rounds the result half away from zero to the cent.
func (m Money) MulRate(r Rate) Money {
	product := decimal.New(m.cents, 0).Mul(decimal.New(r.scaled, 0)).Shift(-RatePrecision)
	return Money{cents: product.Round(0).IntPart()}
}

func (m Money) Cmp(n Money) int {
	switch {
	case m.cents < n.cents:
		return -1
	case m.cents > n.cents:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(n Money) bool       { return m.cents == n.cents }
func (m Money) LessThan(n Money) bool    { return m.cents < n.cents }
func (m Money) GreaterThan(n Money) bool { return m.cents > n.cents }
func (m Money) IsZero() bool             { return m.cents == 0 }
func (m Money) IsPositive() bool         { return m.cents > 0 }
func (m Money) IsNegative() bool         { return m.cents < 0 }

// String formats the amount for display, e.g. "$1,234.50".
func (m Money) String() string {
	return gomoney.New(m.cents, Currency).Display()
}

// MarshalJSON writes the amount as a fixed two-place JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(MoneyPrecision)), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*m = Zero
		return nil
	}
	parsed, err := Parse(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores the scaled integer.
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan reads a scaled integer column.
func (m *Money) Scan(src any) error {
	scaled, err := scanScaled(src)
	if err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.cents = scaled
	return nil
}

func toScaled(d decimal.Decimal, places int32) (int64, error) {
	scaled := d.Shift(places).Round(0)
	if scaled.LessThan(minScaled) || scaled.GreaterThan(maxScaled) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return scaled.IntPart(), nil
}

func scanScaled(src any) (int64, error) {
	switch v := src.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", src)
	}
}
