package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// Backend stores the persisted state of each scope. Read returns nil and no
// error for a scope that was never written.
type Backend interface {
	Read(ctx context.Context, scope store.Scope) (*store.InstanceState, error)
	Write(ctx context.Context, scope store.Scope, state *store.InstanceState) error
}

// Quarantiner is implemented by backends that can move unreadable state out
// of the way, so the next write does not destroy it. Quarantine returns where
// the state went.
type Quarantiner interface {
	Quarantine(ctx context.Context, scope store.Scope) (string, error)
}

// QuarantineSuffix is appended to the location of set-aside state.
const QuarantineSuffix = ".corrupt"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the named backend rooted at dir.
func Open(name, dir string) (Backend, error) {
	switch name {
	case BackendFile, "":
		return NewFileBackend(dir), nil
	case BackendSQLite:
		return NewSQLiteBackend(SQLitePath(dir))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// MemoryBackend keeps states in memory. Written states are stored by
// reference; callers must not mutate them afterwards.
type MemoryBackend struct {
	mu     sync.Mutex
	states map[store.Scope]*store.InstanceState
	writes int
}

// NewMemoryBackend creates an empty memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{states: make(map[store.Scope]*store.InstanceState)}
}

// Read implements Backend.
func (b *MemoryBackend) Read(_ context.Context, scope store.Scope) (*store.InstanceState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[scope], nil
}

// Write implements Backend.
func (b *MemoryBackend) Write(_ context.Context, scope store.Scope, state *store.InstanceState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[scope] = state
	b.writes++
	return nil
}

// Writes returns the number of writes so far.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
