package propertytype

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// RegisterBuiltins registers boolean, int, long, float, double, string,
// color, locale and decimal.
func (r *Registry) RegisterBuiltins() {
	r.MustRegister(builtin(BoolType,
		func(v Bool) string { return v.String() },
		func(s string) (Bool, error) {
			b, err := strconv.ParseBool(s)
			return Bool(b), err
		}))

	r.MustRegister(builtin(IntType,
		func(v Int) string { return v.String() },
		func(s string) (Int, error) {
			i, err := strconv.ParseInt(s, 10, 32)
			return Int(i), err
		}))

	r.MustRegister(builtin(LongType,
		func(v Long) string { return v.String() },
		func(s string) (Long, error) {
			i, err := strconv.ParseInt(s, 10, 64)
			return Long(i), err
		}))

	r.MustRegister(builtin(FloatType,
		func(v Float) string { return v.String() },
		func(s string) (Float, error) {
			f, err := strconv.ParseFloat(s, 32)
			return Float(f), err
		}))

	r.MustRegister(builtin(DoubleType,
		func(v Double) string { return v.String() },
		func(s string) (Double, error) {
			f, err := strconv.ParseFloat(s, 64)
			return Double(f), err
		}))

	r.MustRegister(PropertyType{
		Name: StringType,
		Encode: func(v Value) (string, error) {
			t, ok := v.(String)
			if !ok {
				return "", &TypeError{Expected: StringType, Actual: fmt.Sprintf("%T", v)}
			}
			// State files and payloads are UTF-8 documents.
			if !utf8.ValidString(string(t)) {
				return "", fmt.Errorf("%w: string is not valid UTF-8", ErrUnencodable)
			}
			return string(t), nil
		},
		Decode: func(s string) (Value, error) { return String(s), nil },
	})

	r.MustRegister(builtin(ColorType,
		func(v Color) string { return strconv.FormatInt(int64(v.Packed()), 10) },
		func(s string) (Color, error) {
			i, err := strconv.ParseInt(s, 10, 32)
			return ColorFromPacked(int32(i)), err
		}))

	r.MustRegister(builtin(LocaleType,
		func(v Locale) string { return v.String() },
		ParseLocale))

	r.MustRegister(builtin(DecimalType,
		func(v Decimal) string { return v.String() },
		ParseDecimal))
}

// builtin adapts typed encode/decode functions to a PropertyType.
func builtin[T Value](name string, encode func(T) string, decode func(string) (T, error)) PropertyType {
	return PropertyType{
		Name: name,
		Encode: func(v Value) (string, error) {
			t, ok := v.(T)
			if !ok {
				return "", &TypeError{Expected: name, Actual: fmt.Sprintf("%T", v)}
			}
			return encode(t), nil
		},
		Decode: func(s string) (Value, error) {
			t, err := decode(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedValue, err)
			}
			return t, nil
		},
	}
}

// formatFloat returns the shortest representation that round-trips, with a
// trailing ".0" for integral values ("1234567.0").
func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}
