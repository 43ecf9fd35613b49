package toolconfig

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
)

// PersistentProperty is a property value loaded from storage.
type PersistentProperty struct {
	Key    string
	Value  propertytype.Value
	Policy SavePolicy
}

// Configuration is the ordered set of properties of one tool instance.
type Configuration struct {
	id       uuid.UUID
	registry *propertytype.Registry
	flags    Flags
	logger   *zap.SugaredLogger

	mu         sync.RWMutex
	name       string
	keys       []string
	properties map[string]Container
	persistent map[string]PersistentProperty
}

// Option configures a Configuration.
type Option func(*Configuration)

// WithID sets the configuration id. Without it a fresh random id is minted.
func WithID(id uuid.UUID) Option {
	return func(c *Configuration) {
		c.id = id
	}
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(c *Configuration) {
		c.name = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Configuration) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPersistentProperties seeds the unclaimed persistent properties.
// Later entries win on duplicate keys.
func WithPersistentProperties(props ...PersistentProperty) Option {
	return func(c *Configuration) {
		for _, p := range props {
			c.persistent[p.Key] = p
		}
	}
}

// New creates an empty configuration.
func New(registry *propertytype.Registry, flags Flags, opts ...Option) *Configuration {
	c := &Configuration{
		id:         uuid.New(),
		registry:   registry,
		flags:      flags,
		logger:     zap.NewNop().Sugar(),
		name:       "Workbench",
		properties: make(map[string]Container),
		persistent: make(map[string]PersistentProperty),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ID returns the configuration id.
func (c *Configuration) ID() uuid.UUID {
	return c.id
}

// Name returns the display name.
func (c *Configuration) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Rename changes the display name.
func (c *Configuration) Rename(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Register registers a property on c, or returns the existing property if key
// is already registered with the same value type.
//
// The initial value of a new property is, in order of preference: the
// unclaimed persistent value for key, the example (when examples are loaded),
// the default. A persistent value of another type is dropped with a warning.
//
// A default whose type is unknown to the registry, or a key already
// registered with another type, is a programming error.
func Register[T propertytype.Comparable](c *Configuration, key string, def T, policy SavePolicy, opts ...PropertyOption[T]) (*Property[T], error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if _, err := c.registry.ToPersistent(def); err != nil {
		return nil, fmt.Errorf("%w: %s (%T) for %s: %v", ErrUnregisteredType, def.TypeName(), def, key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.properties[key]; ok {
		p, ok := existing.(*Property[T])
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, not %T", ErrTypeMismatch, key, existing.Value(), def)
		}
		return p, nil
	}

	p := &Property[T]{key: key, policy: policy, def: def}
	for _, opt := range opts {
		opt(p)
	}
	p.value = p.initial(c.flags.LoadExamples())

	if pp, ok := c.persistent[key]; ok {
		delete(c.persistent, key)
		// Enums share one Go type, so the type name decides.
		if v, ok := pp.Value.(T); ok && v.TypeName() == def.TypeName() {
			p.value = v
		} else {
			c.logger.Warnw("Dropping persisted property of another type",
				"configurationId", c.id,
				"key", key,
				"persistedType", pp.Value.TypeName(),
				"registeredType", def.TypeName())
		}
	}

	c.properties[key] = p
	c.keys = append(c.keys, key)
	return p, nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T propertytype.Comparable](c *Configuration, key string, def T, policy SavePolicy, opts ...PropertyOption[T]) *Property[T] {
	p, err := Register(c, key, def, policy, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the registered property for key if it has value type T.
func Lookup[T propertytype.Comparable](c *Configuration, key string) (*Property[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.properties[key].(*Property[T])
	return p, ok
}

// Property returns the registered property for key.
func (c *Configuration) Property(key string) (Container, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.properties[key]
	return p, ok
}

// Keys returns the registered keys in registration order.
func (c *Configuration) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]string, len(c.keys))
	copy(result, c.keys)
	return result
}

// Consumed reports whether any property has been registered.
func (c *Configuration) Consumed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys) > 0
}

// PersistentProperties returns the unclaimed persistent properties sorted by key.
func (c *Configuration) PersistentProperties() []PersistentProperty {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedPersistentLocked()
}

// IsModified reports whether any property changed or any persistent property
// is still unclaimed.
func (c *Configuration) IsModified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.persistent) > 0 {
		return true
	}
	for _, key := range c.keys {
		if c.properties[key].ValueChanged() {
			return true
		}
	}
	return false
}

// Changes returns the keys of changed properties in registration order.
func (c *Configuration) Changes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []string
	for _, key := range c.keys {
		if c.properties[key].ValueChanged() {
			result = append(result, key)
		}
	}
	return result
}

// Snapshot returns the properties worth persisting: changed properties in
// registration order followed by unclaimed persistent properties sorted by
// key. Save policies are not applied.
func (c *Configuration) Snapshot() []PersistentProperty {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]PersistentProperty, 0, len(c.keys)+len(c.persistent))
	for _, key := range c.keys {
		p := c.properties[key]
		if !p.ValueChanged() {
			continue
		}
		result = append(result, PersistentProperty{
			Key:    key,
			Value:  p.Value(),
			Policy: p.Policy(),
		})
	}
	return append(result, c.sortedPersistentLocked()...)
}

// Reset sets every registered property back to its initial value and drops
// the unclaimed persistent properties.
func (c *Configuration) Reset(loadExamples bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.keys {
		c.properties[key].Reset(loadExamples)
	}
	clear(c.persistent)
}

func (c *Configuration) sortedPersistentLocked() []PersistentProperty {
	result := make([]PersistentProperty, 0, len(c.persistent))
	for _, p := range c.persistent {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}
