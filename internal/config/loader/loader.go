// Package loader reads general settings from the settings file and the
// environment.
package loader

// Loader reads flat settings from one source.
type Loader interface {
	// Load returns the values keyed by setting key.
	// Returns nil, nil if the source doesn't exist.
	Load() (map[string]any, error)
}

var (
	_ Loader = (*TOMLLoader)(nil)
	_ Loader = (*EnvLoader)(nil)
)
