package propertytype

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Delimiter separates the type name from the serialized value. Type names
// never contain it, so the value part may.
const Delimiter = "|"

// PropertyType converts the values of one type to and from strings.
// Decode(Encode(v)) must equal v for every valid v.
type PropertyType struct {
	// Name is the canonical type name.
	Name string

	// Encode serializes a value. It receives only values whose TypeName
	// equals Name.
	Encode func(Value) (string, error)

	// Decode restores a value from its serialized form.
	Decode func(string) (Value, error)
}

// Registry maps canonical type names, legacy aliases and legacy package
// prefixes to property types. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]*PropertyType
	enums    map[string][]string
	aliases  map[string]string
	rewrites []PrefixRewrite
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:   make(map[string]*PropertyType),
		enums:   make(map[string][]string),
		aliases: make(map[string]string),
	}
}

// NewWithDefaults creates a registry with the built-in types, their legacy
// aliases and the legacy package prefix rewrites.
func NewWithDefaults() *Registry {
	r := New()
	r.RegisterBuiltins()
	r.RegisterLegacyAliases()
	return r
}

// Register adds a property type. It fails on an invalid or duplicate name.
func (r *Registry) Register(t PropertyType) error {
	if err := validateName(t.Name); err != nil {
		return err
	}
	if t.Encode == nil || t.Decode == nil {
		return fmt.Errorf("%w: %s has no encoder or decoder", ErrInvalidTypeName, t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
	}
	if _, exists := r.aliases[t.Name]; exists {
		return fmt.Errorf("%w: %s is a legacy alias", ErrDuplicateType, t.Name)
	}

	pt := t
	r.types[t.Name] = &pt
	return nil
}

// MustRegister registers a property type and panics on error.
// Useful for registering types at init time.
func (r *Registry) MustRegister(t PropertyType) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// RegisterEnum registers an enum type with its constants. Values of the type
// are Enum{Type: name, Name: constant} and serialize as the constant name.
func (r *Registry) RegisterEnum(name string, constants ...string) error {
	if len(constants) == 0 {
		return fmt.Errorf("%w: enum %s has no constants", ErrInvalidTypeName, name)
	}
	known := slices.Clone(constants)

	err := r.Register(PropertyType{
		Name: name,
		Encode: func(v Value) (string, error) {
			e, ok := v.(Enum)
			if !ok {
				return "", &TypeError{Expected: name, Actual: fmt.Sprintf("%T", v)}
			}
			if !slices.Contains(known, e.Name) {
				return "", fmt.Errorf("%w: %s.%s", ErrUnknownConstant, name, e.Name)
			}
			return e.Name, nil
		},
		Decode: func(s string) (Value, error) {
			if !slices.Contains(known, s) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownConstant, name, s)
			}
			return Enum{Type: name, Name: s}, nil
		},
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.enums[name] = known
	r.mu.Unlock()
	return nil
}

// MustRegisterEnum registers an enum type and panics on error.
func (r *Registry) MustRegisterEnum(name string, constants ...string) {
	if err := r.RegisterEnum(name, constants...); err != nil {
		panic(err)
	}
}

// EnumConstants returns the constants of an enum type, or nil if name is not
// a registered enum.
func (r *Registry) EnumConstants(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.enums[name])
}

// Names returns all canonical type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.types))
	for name := range r.types {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Resolve returns the property type for a canonical name, a legacy alias or a
// name under a legacy package prefix.
func (r *Registry) Resolve(name string) (*PropertyType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(name)
}

func (r *Registry) resolveLocked(name string) (*PropertyType, bool) {
	if pt, ok := r.lookupLocked(name); ok {
		return pt, true
	}
	if rewritten := rewriteName(r.rewrites, name); rewritten != name {
		return r.lookupLocked(rewritten)
	}
	return nil, false
}

func (r *Registry) lookupLocked(name string) (*PropertyType, bool) {
	if pt, ok := r.types[name]; ok {
		return pt, true
	}
	if canonical, ok := r.aliases[name]; ok {
		pt, ok := r.types[canonical]
		return pt, ok
	}
	return nil, false
}

// ToPersistent serializes v as "<canonicalName>|<value>". An unregistered
// value type is a programming error and yields ErrUnknownType.
func (r *Registry) ToPersistent(v Value) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: nil value", ErrUnknownType)
	}

	r.mu.RLock()
	pt, ok := r.types[v.TypeName()]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s (%T)", ErrUnknownType, v.TypeName(), v)
	}

	s, err := pt.Encode(v)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", pt.Name, err)
	}
	return pt.Name + Delimiter + s, nil
}

// MustToPersistent is like ToPersistent but panics on error.
func (r *Registry) MustToPersistent(v Value) string {
	s, err := r.ToPersistent(v)
	if err != nil {
		panic(err)
	}
	return s
}

// FromPersistent restores a value written by ToPersistent, including values
// written with legacy type names. The returned error is a *DecodeError
// wrapping ErrUnknownType, ErrUnknownConstant or ErrMalformedValue; callers
// drop the property in all three cases.
func (r *Registry) FromPersistent(tagged string) (Value, error) {
	name, raw, ok := strings.Cut(tagged, Delimiter)
	if !ok {
		return nil, &DecodeError{Tagged: tagged, TypeName: name, Err: ErrMalformedValue}
	}

	r.mu.RLock()
	pt, ok := r.resolveLocked(name)
	r.mu.RUnlock()
	if !ok {
		return nil, &DecodeError{Tagged: tagged, TypeName: name, Err: ErrUnknownType}
	}

	v, err := pt.Decode(raw)
	if err != nil {
		return nil, &DecodeError{Tagged: tagged, TypeName: name, Err: err}
	}
	return v, nil
}

// TypeNameOf returns the type name part of a tagged value as written, without
// resolving it.
func TypeNameOf(tagged string) string {
	name, _, _ := strings.Cut(tagged, Delimiter)
	return name
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTypeName)
	}
	if strings.Contains(name, Delimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidTypeName, name, Delimiter)
	}
	return nil
}
