package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// RatePrecision is the number of decimal places carried by Rate.
	RatePrecision = 4
	// RateScale is the factor between a Rate and its backing integer.
	RateScale = 10_000
)

// Rate is an immutable fraction with four decimal places; 0.05 is five percent.
type Rate struct {
	scaled int64
}

// RateFromScaled wraps an already scaled integer rate.
func RateFromScaled(scaled int64) Rate {
	return Rate{scaled: scaled}
}

// RateFromDecimal rounds d half away from zero to four decimal places.
func RateFromDecimal(d decimal.Decimal) (Rate, error) {
	scaled, err := toScaled(d, RatePrecision)
	if err != nil {
		return Rate{}, err
	}
	return Rate{scaled: scaled}, nil
}

// ParseRate reads a decimal fraction string such as "0.05".
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate value %q: %w", s, err)
	}
	return RateFromDecimal(d)
}

// Percent builds a rate from a percentage, Percent(5) == 0.05.
func Percent(p int64) Rate {
	return Rate{scaled: p * RateScale / 100}
}

func (r Rate) Scaled() int64            { return r.scaled }
func (r Rate) Decimal() decimal.Decimal { return decimal.New(r.scaled, -RatePrecision) }
func (r Rate) IsZero() bool             { return r.scaled == 0 }
func (r Rate) IsNegative() bool         { return r.scaled < 0 }
func (r Rate) Equal(o Rate) bool        { return r.scaled == o.scaled }
func (r Rate) String() string           { return r.Decimal().Shift(2).StringFixed(RatePrecision-2) + "%" }

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.Decimal().StringFixed(RatePrecision)), nil
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*r = Rate{}
		return nil
	}
	parsed, err := ParseRate(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Rate) Value() (driver.Value, error) {
	return r.scaled, nil
}

func (r *Rate) Scan(src any) error {
	scaled, err := scanScaled(src)
	if err != nil {
		return fmt.Errorf("scan rate: %w", err)
	}
	r.scaled = scaled
	return nil
}
