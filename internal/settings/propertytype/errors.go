package propertytype

import (
	"errors"
	"fmt"
)

// Errors returned by registry operations.
var (
	// ErrUnknownType indicates a type name or value type that is not registered.
	ErrUnknownType = errors.New("unknown property type")

	// ErrDuplicateType indicates a canonical name registered twice.
	ErrDuplicateType = errors.New("property type already registered")

	// ErrInvalidTypeName indicates an empty name or one containing the delimiter.
	ErrInvalidTypeName = errors.New("invalid property type name")

	// ErrMalformedValue indicates a serialized value that cannot be decoded.
	ErrMalformedValue = errors.New("malformed property value")

	// ErrUnknownConstant indicates an enum constant that no longer exists.
	ErrUnknownConstant = errors.New("unknown enum constant")

	// ErrUnencodable indicates a value of a registered type that the
	// persisted form cannot carry, such as a string that is not valid UTF-8.
	ErrUnencodable = errors.New("value cannot be persisted")
)

// DecodeError describes a tagged value that could not be restored.
type DecodeError struct {
	// Tagged is the full persisted string.
	Tagged string
	// TypeName is the type name as found in the persisted string.
	TypeName string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %q as %s: %v", e.Tagged, e.TypeName, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TypeError is returned when an encoder receives a value of another type.
type TypeError struct {
	// Expected is the canonical name the encoder serves.
	Expected string
	// Actual is the Go type of the value received.
	Actual string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %s", e.Expected, e.Actual)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrUnknownType
}
