// Package propertytype provides the closed set of persistable property value
// types and the registry that converts them to and from their tagged string
// form.
//
// Every persisted property value is stored as
//
//	<canonicalTypeName>|<serializedValue>
//
// The canonical type name selects the (encode, decode) pair registered for the
// type. Names written by older plugin versions are resolved through a legacy
// alias table and a package prefix rewrite table before lookup.
package propertytype

import (
	"fmt"
	"strconv"
)

// Value is a persistable property value. The set of implementations is
// closed: Bool, Int, Long, Float, Double, String, Enum, Color, Locale and
// Decimal. All implementations are comparable with ==.
type Value interface {
	// TypeName returns the canonical type name the value is tagged with.
	TypeName() string
	fmt.Stringer

	sealed()
}

// Canonical names of the built-in types.
const (
	BoolType    = "boolean"
	IntType     = "int"
	LongType    = "long"
	FloatType   = "float"
	DoubleType  = "double"
	StringType  = "string"
	ColorType   = "color"
	LocaleType  = "locale"
	DecimalType = "decimal"
)

// Bool is a boolean value.
type Bool bool

// Int is a 32-bit integer value.
type Int int32

// Long is a 64-bit integer value.
type Long int64

// Float is a 32-bit floating point value.
type Float float32

// Double is a 64-bit floating point value.
type Double float64

// String is a text value.
type String string

// Enum references one constant of a registered enum type.
type Enum struct {
	// Type is the canonical name of the enum type.
	Type string
	// Name is the constant name.
	Name string
}

func (Bool) TypeName() string    { return BoolType }
func (Int) TypeName() string     { return IntType }
func (Long) TypeName() string    { return LongType }
func (Float) TypeName() string   { return FloatType }
func (Double) TypeName() string  { return DoubleType }
func (String) TypeName() string  { return StringType }
func (e Enum) TypeName() string  { return e.Type }
func (Color) TypeName() string   { return ColorType }
func (Locale) TypeName() string  { return LocaleType }
func (Decimal) TypeName() string { return DecimalType }

func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v Int) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return formatFloat(float64(v), 32) }
func (v Double) String() string { return formatFloat(float64(v), 64) }
func (v String) String() string { return string(v) }
func (e Enum) String() string   { return e.Name }

func (Bool) sealed()    {}
func (Int) sealed()     {}
func (Long) sealed()    {}
func (Float) sealed()   {}
func (Double) sealed()  {}
func (String) sealed()  {}
func (Enum) sealed()    {}
func (Color) sealed()   {}
func (Locale) sealed()  {}
func (Decimal) sealed() {}

// Comparable constrains type parameters to Value types usable with ==.
type Comparable interface {
	Value
	comparable
}
