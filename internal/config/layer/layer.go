// Package layer stacks general settings sources by priority.
//
// Settings keys are flat, so a layer is a single map. A value in a higher
// priority layer hides the same key in every lower one.
package layer

import (
	"maps"
	"time"
)

// Layer is one source of setting values.
type Layer struct {
	// Name identifies the layer (e.g. "defaults", "file").
	Name string

	// Priority determines lookup order (higher wins).
	Priority int

	// Source indicates where this layer came from.
	Source Source

	// Path is the file path, if loaded from a file.
	Path string

	// Data holds the values by key.
	Data map[string]any

	// ModTime is when the layer was last replaced.
	ModTime time.Time

	// ReadOnly prevents Manager.Set and Manager.Delete on this layer.
	ReadOnly bool
}

// NewLayer creates an empty layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return NewLayerWithData(name, source, priority, nil)
}

// NewLayerWithData creates a layer holding a copy of data.
func NewLayerWithData(name string, source Source, priority int, data map[string]any) *Layer {
	l := &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     make(map[string]any, len(data)),
		ModTime:  time.Now(),
	}
	maps.Copy(l.Data, data)
	return l
}

// Clone returns a copy of the layer.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Data = maps.Clone(l.Data)
	return &c
}

// Source indicates where a layer came from.
type Source uint8

const (
	// SourceBuiltin is the registry defaults.
	SourceBuiltin Source = iota
	// SourceFile is the general settings file.
	SourceFile
	// SourceEnv is DEVSETTINGS_* environment variables.
	SourceEnv
	// SourceSession is values set at runtime.
	SourceSession
)

// Standard priorities. Session values win over the environment so a user
// toggling a flag in a running host sees it take effect.
const (
	PriorityBuiltin = 0
	PriorityFile    = 100
	PriorityEnv     = 500
	PrioritySession = 1000
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}
