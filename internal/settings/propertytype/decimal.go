package propertytype

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// maxDecimalExponent bounds the exponent accepted by ParseDecimal.
const maxDecimalExponent = 10000

// Decimal is an arbitrary precision decimal number that keeps its scale:
// "1.50" and "1.5" are different values. The zero value is 0.
type Decimal struct {
	text string
}

// ParseDecimal parses a plain ("-12.340") or exponent ("1.2E+3") decimal.
func ParseDecimal(s string) (Decimal, error) {
	str := strings.TrimSpace(s)
	mantissa, exp := str, 0
	if i := strings.IndexAny(str, "eE"); i >= 0 {
		e, err := strconv.Atoi(str[i+1:])
		if err != nil || e > maxDecimalExponent || e < -maxDecimalExponent {
			return Decimal{}, fmt.Errorf("%w: decimal %q", ErrMalformedValue, s)
		}
		mantissa, exp = str[:i], e
	}

	neg := false
	switch {
	case strings.HasPrefix(mantissa, "-"):
		neg = true
		mantissa = mantissa[1:]
	case strings.HasPrefix(mantissa, "+"):
		mantissa = mantissa[1:]
	}

	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	digits := intPart + fracPart
	if digits == "" {
		return Decimal{}, fmt.Errorf("%w: decimal %q", ErrMalformedValue, s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("%w: decimal %q", ErrMalformedValue, s)
		}
	}

	unscaled, _ := new(big.Int).SetString(digits, 10)
	if neg {
		unscaled.Neg(unscaled)
	}
	return newDecimal(unscaled, len(fracPart)-exp), nil
}

// MustParseDecimal is like ParseDecimal but panics on error.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromFloat64 returns the exact decimal expansion of f, so 1.234
// becomes 1.2339999999999999857891452847979962825775146484375.
func DecimalFromFloat64(f float64) (Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}, fmt.Errorf("%w: decimal from %v", ErrMalformedValue, f)
	}
	r := new(big.Rat).SetFloat64(f)
	// The denominator is a power of two, 2^k needs exactly k fraction digits.
	return ParseDecimal(r.FloatString(r.Denom().BitLen() - 1))
}

// DecimalFromInt returns an integral decimal.
func DecimalFromInt(i int64) Decimal {
	return newDecimal(big.NewInt(i), 0)
}

func newDecimal(unscaled *big.Int, scale int) Decimal {
	if scale < 0 {
		pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil)
		unscaled = new(big.Int).Mul(unscaled, pow)
		scale = 0
	}

	s := new(big.Int).Abs(unscaled).String()
	if scale > 0 {
		if len(s) <= scale {
			s = strings.Repeat("0", scale-len(s)+1) + s
		}
		s = s[:len(s)-scale] + "." + s[len(s)-scale:]
	}
	if unscaled.Sign() < 0 {
		s = "-" + s
	}
	if s == "0" {
		return Decimal{}
	}
	return Decimal{text: s}
}

// Rat returns the exact rational value of d.
func (d Decimal) Rat() *big.Rat {
	r, ok := new(big.Rat).SetString(d.String())
	if !ok {
		return new(big.Rat)
	}
	return r
}

// Scale returns the number of digits after the decimal point.
func (d Decimal) Scale() int {
	_, frac, ok := strings.Cut(d.text, ".")
	if !ok {
		return 0
	}
	return len(frac)
}

// Cmp compares the numeric values of d and other, ignoring scale.
func (d Decimal) Cmp(other Decimal) int {
	return d.Rat().Cmp(other.Rat())
}

// String returns the plain canonical form.
func (d Decimal) String() string {
	if d.text == "" {
		return "0"
	}
	return d.text
}
