package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Keys of the built-in general settings.
const (
	KeySaveConfigurations       = "saveConfigurations"
	KeySaveInputs               = "saveInputs"
	KeySaveSensitiveInputs      = "saveSensitiveInputs"
	KeyLoadExamples             = "loadExamples"
	KeyDialogIsModal            = "dialogIsModal"
	KeyShowInternalTools        = "showInternalTools"
	KeyAutoDetectActionHandling = "autoDetectActionHandling"
)

var (
	// ErrSettingAlreadyRegistered is returned when registering a duplicate key.
	ErrSettingAlreadyRegistered = errors.New("setting already registered")

	// ErrSettingNotFound is returned for keys that are not registered.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrInvalidValue is returned when a value fails validation.
	ErrInvalidValue = errors.New("invalid setting value")
)

// Registry maintains all known setting definitions.
type Registry struct {
	mu       sync.RWMutex
	settings map[string]*Setting
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		settings: make(map[string]*Setting),
	}
}

// NewWithDefaults creates a registry with the built-in general settings.
func NewWithDefaults() *Registry {
	r := New()
	r.RegisterDefaults()
	return r
}

// Register adds a setting definition to the registry.
func (r *Registry) Register(setting Setting) error {
	if setting.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidValue)
	}
	if err := setting.Validate(setting.Default); err != nil {
		return fmt.Errorf("default of %s: %w", setting.Key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.settings[setting.Key]; exists {
		return fmt.Errorf("%w: %s", ErrSettingAlreadyRegistered, setting.Key)
	}

	s := setting
	r.settings[setting.Key] = &s
	return nil
}

// MustRegister registers a setting and panics on error.
func (r *Registry) MustRegister(setting Setting) {
	if err := r.Register(setting); err != nil {
		panic(err)
	}
}

// Get returns the setting definition for key, or nil.
func (r *Registry) Get(key string) *Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings[key]
}

// Has checks if a setting is registered.
func (r *Registry) Has(key string) bool {
	return r.Get(key) != nil
}

// All returns all registered settings sorted by key.
func (r *Registry) All() []*Setting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Setting, 0, len(r.settings))
	for _, s := range r.settings {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns all registered keys sorted.
func (r *Registry) Keys() []string {
	all := r.All()
	keys := make([]string, len(all))
	for i, s := range all {
		keys[i] = s.Key
	}
	return keys
}

// Default returns the default value for a setting, or nil.
func (r *Registry) Default(key string) any {
	if s := r.Get(key); s != nil {
		return s.Default
	}
	return nil
}

// Defaults returns a map of all default values.
func (r *Registry) Defaults() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]any, len(r.settings))
	for key, s := range r.settings {
		result[key] = s.Default
	}
	return result
}

// Validate checks value against the setting registered under key.
func (r *Registry) Validate(key string, value any) error {
	s := r.Get(key)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return s.Validate(value)
}

// Parse converts text to the type of the setting registered under key.
func (r *Registry) Parse(key, text string) (any, error) {
	s := r.Get(key)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return s.Parse(text)
}

// RegisterDefaults registers the built-in general settings.
func (r *Registry) RegisterDefaults() {
	r.MustRegister(Setting{
		Key:         KeySaveConfigurations,
		Type:        TypeBool,
		Default:     true,
		Description: "Remember tool configurations between sessions",
	})

	r.MustRegister(Setting{
		Key:         KeySaveInputs,
		Type:        TypeBool,
		Default:     true,
		Description: "Remember the inputs entered into tools",
	})

	r.MustRegister(Setting{
		Key:         KeySaveSensitiveInputs,
		Type:        TypeBool,
		Default:     false,
		Description: "Remember inputs that may contain secrets",
	})

	r.MustRegister(Setting{
		Key:         KeyLoadExamples,
		Type:        TypeBool,
		Default:     true,
		Description: "Fill new tool configurations with example values",
	})

	r.MustRegister(Setting{
		Key:         KeyDialogIsModal,
		Type:        TypeBool,
		Default:     true,
		Description: "Open the developer tools dialog as a modal window",
	})

	r.MustRegister(Setting{
		Key:         KeyShowInternalTools,
		Type:        TypeBool,
		Default:     false,
		Description: "Show tools meant for plugin development",
	})

	r.MustRegister(Setting{
		Key:         KeyAutoDetectActionHandling,
		Type:        TypeBool,
		Default:     true,
		Description: "Detect editor selections that a tool can handle",
		Legacy:      "autoDetectActionHandlingEnabled",
	})
}
