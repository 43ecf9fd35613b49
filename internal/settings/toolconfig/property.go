package toolconfig

import (
	"sync"

	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
)

// Container is the type-erased view of a Property used by a Configuration.
type Container interface {
	Key() string
	Policy() SavePolicy
	Value() propertytype.Value
	ValueChanged() bool
	Reset(loadExamples bool)
}

// Property is one named, typed, mutable setting of a tool configuration.
// Get and Set may be called from the UI goroutine while a save reads the
// value from another goroutine.
type Property[T propertytype.Comparable] struct {
	key        string
	policy     SavePolicy
	def        T
	example    T
	hasExample bool

	mu    sync.RWMutex
	value T
}

// PropertyOption configures a Property at registration.
type PropertyOption[T propertytype.Comparable] func(*Property[T])

// WithExample sets the example value shown to new users when examples are
// loaded. A value equal to the example is never persisted.
func WithExample[T propertytype.Comparable](example T) PropertyOption[T] {
	return func(p *Property[T]) {
		p.example = example
		p.hasExample = true
	}
}

// Key returns the property key.
func (p *Property[T]) Key() string { return p.key }

// Policy returns the save policy.
func (p *Property[T]) Policy() SavePolicy { return p.policy }

// Default returns the default value.
func (p *Property[T]) Default() T { return p.def }

// Example returns the example value, if any.
func (p *Property[T]) Example() (T, bool) { return p.example, p.hasExample }

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set replaces the current value.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()
}

// Value returns the current value as a propertytype.Value.
func (p *Property[T]) Value() propertytype.Value {
	return p.Get()
}

// ValueChanged reports whether the current value differs from both the
// default and the example. Matching the example always counts as unchanged,
// whatever the current "load examples" preference.
func (p *Property[T]) ValueChanged() bool {
	v := p.Get()
	if v == p.def {
		return false
	}
	return !p.hasExample || v != p.example
}

// Reset sets the value back to the example if loadExamples is true and an
// example exists, else to the default.
func (p *Property[T]) Reset(loadExamples bool) {
	p.Set(p.initial(loadExamples))
}

func (p *Property[T]) initial(loadExamples bool) T {
	if loadExamples && p.hasExample {
		return p.example
	}
	return p.def
}
