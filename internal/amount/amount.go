// Package amount provides the exact decimal money type used by the ledger.
//
// Values are normalized to Scale fractional digits with round-half-to-even
// when they enter the system and when they are rendered. Arithmetic between
// normalized values is exact, so reversals (resolve, chargeback) give back
// precisely what a dispute took.
package amount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale int32 = 4

var (
	// ErrInvalid is returned when text cannot be read as a decimal number.
	ErrInvalid = errors.New("invalid decimal amount")
	// ErrNegative is returned by ParseNonNegative for values below zero.
	ErrNegative = errors.New("negative amount")
)

// Amount is an exact decimal value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// Parse reads a decimal from text, trimming surrounding whitespace, and
// normalizes it to Scale places. Exponent notation is rejected.
func Parse(text string) (Amount, error) {
	d, err := parseRaw(text)
	if err != nil {
		return Zero, err
	}
	return FromDecimal(d), nil
}

// ParseNonNegative is Parse for values that must not be below zero. The sign
// is checked before rounding, so -0.00001 fails with ErrNegative instead of
// becoming 0.0000.
func ParseNonNegative(text string) (Amount, error) {
	d, err := parseRaw(text)
	if err != nil {
		return Zero, err
	}
	if d.IsNegative() {
		return Zero, fmt.Errorf("%w: %s", ErrNegative, d.String())
	}
	return FromDecimal(d), nil
}

func parseRaw(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	// decimal accepts 1e30000000, which rounding would expand digit by digit.
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: exponent notation %q", ErrInvalid, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal wraps d, normalizing it to Scale places.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(Scale)}
}

// Normalize rounds a to Scale places using round-half-to-even.
func (a Amount) Normalize() Amount {
	return Amount{d: a.d.RoundBank(Scale)}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Decimal exposes the underlying value for encoders that need it.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount with exactly Scale fractional digits.
func (a Amount) String() string {
	return a.d.StringFixedBank(Scale)
}
