package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/devtoolsettings/internal/config/loader"
	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// FileBackend stores each scope in <dir>/<scope>.toml.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend in dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the file holding scope.
func (b *FileBackend) Path(scope store.Scope) string {
	return filepath.Join(b.dir, string(scope)+".toml")
}

// Read implements Backend.
func (b *FileBackend) Read(_ context.Context, scope store.Scope) (*store.InstanceState, error) {
	data, err := os.ReadFile(b.Path(scope))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &BackendError{Op: "read", Scope: scope, Err: err}
	}

	var state store.InstanceState
	if err := toml.Unmarshal(data, &state); err != nil {
		return nil, &BackendError{Op: "read", Scope: scope, Err: fmt.Errorf("decode %s: %w", b.Path(scope), err)}
	}
	return &state, nil
}

// Write implements Backend. An empty state removes the file.
func (b *FileBackend) Write(_ context.Context, scope store.Scope, state *store.InstanceState) error {
	path := b.Path(scope)
	if state.Empty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &BackendError{Op: "write", Scope: scope, Err: err}
		}
		return nil
	}

	data, err := toml.Marshal(state)
	if err != nil {
		return &BackendError{Op: "write", Scope: scope, Err: err}
	}
	if err := os.MkdirAll(b.dir, 0o750); err != nil {
		return &BackendError{Op: "write", Scope: scope, Err: err}
	}
	if err := loader.WriteFileAtomic(path, data, 0o600); err != nil {
		return &BackendError{Op: "write", Scope: scope, Err: err}
	}
	return nil
}

// Quarantine implements Quarantiner by renaming the scope file.
func (b *FileBackend) Quarantine(_ context.Context, scope store.Scope) (string, error) {
	path := b.Path(scope)
	target := path + QuarantineSuffix
	if err := os.Rename(path, target); err != nil {
		return "", &BackendError{Op: "quarantine", Scope: scope, Err: err}
	}
	return target, nil
}
