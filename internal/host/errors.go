package host

import (
	"errors"
	"fmt"

	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// Host errors.
var (
	// ErrAlreadyRunning indicates Start was called twice.
	ErrAlreadyRunning = errors.New("host already running")

	// ErrNotRunning indicates the host has not been started.
	ErrNotRunning = errors.New("host not running")

	// ErrUnknownScope indicates a scope the host does not manage.
	ErrUnknownScope = errors.New("unknown scope")

	// ErrUnknownBackend indicates an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown backend")
)

// BackendError reports a failed read or write of one scope.
type BackendError struct {
	Op    string // "read", "write" or "quarantine"
	Scope store.Scope
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Scope, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
