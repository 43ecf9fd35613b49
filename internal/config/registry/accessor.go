package registry

import (
	"fmt"
)

// Accessor provides type-safe access to setting values. It reads from a
// value store and falls back to registry defaults.
type Accessor struct {
	registry *Registry
	values   ValueStore
}

// ValueStore is the interface for accessing raw setting values.
type ValueStore interface {
	// GetValue returns the value for key, or nil, false if it is unset.
	GetValue(key string) (any, bool)
}

// MapValueStore wraps a flat map as a ValueStore.
type MapValueStore map[string]any

// GetValue returns the value for key.
func (m MapValueStore) GetValue(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// NewAccessor creates a new type-safe accessor.
func NewAccessor(registry *Registry, values ValueStore) *Accessor {
	return &Accessor{
		registry: registry,
		values:   values,
	}
}

// Get returns the value for key, or its default if unset.
// Returns ErrSettingNotFound if the setting is not registered.
func (a *Accessor) Get(key string) (any, error) {
	setting := a.registry.Get(key)
	if setting == nil {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}

	if val, ok := a.values.GetValue(key); ok {
		return val, nil
	}
	return setting.Default, nil
}

// GetBool returns a boolean value for key.
func (a *Accessor) GetBool(key string) (bool, error) {
	val, err := a.Get(key)
	if err != nil {
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, &TypeError{Key: key, Expected: "boolean", Actual: fmt.Sprintf("%T", val)}
	}
	return b, nil
}

// BoolOr returns the boolean value for key, or fallback on any error.
func (a *Accessor) BoolOr(key string, fallback bool) bool {
	b, err := a.GetBool(key)
	if err != nil {
		return fallback
	}
	return b
}

// TypeError is returned when a stored value has the wrong type.
type TypeError struct {
	Key      string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error for %s: expected %s, got %s", e.Key, e.Expected, e.Actual)
}

// Is matches ErrInvalidValue.
func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidValue
}
