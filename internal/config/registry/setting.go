// Package registry defines the general developer tools settings: their keys,
// types, defaults and validation.
package registry

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Setting defines one general setting.
type Setting struct {
	// Key is the flat setting key (e.g. "saveInputs").
	Key string

	// Type is the setting's data type.
	Type SettingType

	// Default is the default value.
	Default any

	// Description is human-readable documentation.
	Description string

	// Enum lists allowed values for string settings (empty means any).
	Enum []string

	// Legacy is the field name used for this setting in legacy documents,
	// if it differs from Key.
	Legacy string
}

// Validate checks if a value is valid for this setting.
func (s *Setting) Validate(value any) error {
	switch s.Type {
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Key: s.Key, Value: value, Message: fmt.Sprintf("expected boolean, got %T", value)}
		}
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return &ValidationError{Key: s.Key, Value: value, Message: fmt.Sprintf("expected string, got %T", value)}
		}
		if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
			return &ValidationError{Key: s.Key, Value: value, Message: fmt.Sprintf("must be one of %v", s.Enum)}
		}
	default:
		return &ValidationError{Key: s.Key, Value: value, Message: "unsupported setting type"}
	}
	return nil
}

// Parse converts a textual value (environment variable, command line) into
// the setting's type and validates it.
func (s *Setting) Parse(text string) (any, error) {
	var value any
	switch s.Type {
	case TypeBool:
		b, err := parseBool(text)
		if err != nil {
			return nil, &ValidationError{Key: s.Key, Value: text, Message: "expected boolean"}
		}
		value = b
	default:
		value = text
	}
	if err := s.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(text))
}

// SettingType represents the data type of a setting.
type SettingType uint8

const (
	// TypeBool represents a boolean value.
	TypeBool SettingType = iota
	// TypeString represents a string value.
	TypeString
)

// String returns the string representation of the type.
func (t SettingType) String() string {
	switch t {
	case TypeBool:
		return "boolean"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// ValidationError describes a value rejected by a setting.
type ValidationError struct {
	Key     string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Key, e.Message, e.Value)
}

// Is matches ErrInvalidValue.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValue
}
