package toolconfig

import "errors"

// Errors returned by property registration.
var (
	// ErrUnregisteredType indicates a default value the property type
	// registry cannot serialize: an unknown type or enum constant.
	ErrUnregisteredType = errors.New("property value type not registered")

	// ErrTypeMismatch indicates a key registered again with another value type.
	ErrTypeMismatch = errors.New("property registered with another type")

	// ErrInvalidKey indicates an empty property key.
	ErrInvalidKey = errors.New("invalid property key")

	// ErrUnknownPolicy indicates an unrecognized save policy name.
	ErrUnknownPolicy = errors.New("unknown save policy")
)
