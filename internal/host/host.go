// Package host owns the lifecycle of the settings stores. It loads the
// general settings and every scope at startup, imports the legacy document
// the first time it runs, and writes the scopes back on Flush and Close.
package host

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/config"
	"github.com/dshills/devtoolsettings/internal/config/notify"
	"github.com/dshills/devtoolsettings/internal/settings/legacy"
	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// LegacyFileName is the document written by releases before the split into
// per-scope state.
const LegacyFileName = "developer-tools.json"

// MigratedSuffix is appended to the legacy document once imported.
const MigratedSuffix = ".migrated"

// Host ties the general settings, the stores and a backend together.
type Host struct {
	cfg      *config.Config
	backend  Backend
	registry *propertytype.Registry
	notifier *notify.Notifier
	logger   *zap.SugaredLogger

	legacyPath string
	scopes     []store.Scope
	stores     map[store.Scope]*store.Store

	mu      sync.Mutex
	running bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRegistry sets the property type registry shared by all stores.
func WithRegistry(r *propertytype.Registry) Option {
	return func(h *Host) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithNotifier publishes store changes.
func WithNotifier(n *notify.Notifier) Option {
	return func(h *Host) {
		h.notifier = n
	}
}

// WithLegacyFile sets the legacy document imported on first start. An empty
// path disables the import.
func WithLegacyFile(path string) Option {
	return func(h *Host) {
		h.legacyPath = path
	}
}

// WithScopes limits the managed scopes.
func WithScopes(scopes ...store.Scope) Option {
	return func(h *Host) {
		if len(scopes) > 0 {
			h.scopes = scopes
		}
	}
}

// New creates a host. The general settings cfg also supply the save policy
// flags of every store.
func New(cfg *config.Config, backend Backend, opts ...Option) *Host {
	h := &Host{
		cfg:      cfg,
		backend:  backend,
		registry: propertytype.NewWithDefaults(),
		logger:   zap.NewNop().Sugar(),
		scopes:   store.Scopes(),

		legacyPath: filepath.Join(filepath.Dir(cfg.Path()), LegacyFileName),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.stores = make(map[store.Scope]*store.Store, len(h.scopes))
	for _, scope := range h.scopes {
		h.stores[scope] = store.New(scope, h.registry, cfg,
			store.WithLogger(h.logger),
			store.WithNotifier(h.notifier))
	}
	return h
}

// Config returns the general settings.
func (h *Host) Config() *config.Config {
	return h.cfg
}

// Registry returns the property type registry.
func (h *Host) Registry() *propertytype.Registry {
	return h.registry
}

// Scopes returns the managed scopes.
func (h *Host) Scopes() []store.Scope {
	return append([]store.Scope(nil), h.scopes...)
}

// Store returns the store of scope.
func (h *Host) Store(scope store.Scope) (*store.Store, error) {
	s, ok := h.stores[scope]
	if !ok {
		return nil, ErrUnknownScope
	}
	return s, nil
}

// Start loads the general settings and every scope. A scope the backend
// cannot read starts empty; its state is moved aside when the backend
// supports it. When no scope has any persisted state and a legacy document
// exists, the document is imported into the dialog scope, written out in the
// current format and renamed.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrAlreadyRunning
	}

	if err := h.cfg.Load(ctx); err != nil {
		return err
	}

	states := make(map[store.Scope]*store.InstanceState, len(h.scopes))
	unreadable := false
	for _, scope := range h.scopes {
		state, err := h.backend.Read(ctx, scope)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// One unreadable scope must not keep the others from loading.
			h.logger.Warnw("Discarding unreadable settings state", "scope", string(scope), "error", err)
			h.quarantine(ctx, scope)
			unreadable = true
			continue
		}
		states[scope] = state
	}

	for _, scope := range h.scopes {
		h.stores[scope].LoadState(states[scope])
	}
	h.running = true

	if !unreadable && !h.hasState(states) {
		if err := h.importLegacyLocked(ctx); err != nil {
			h.logger.Warnw("Legacy import failed", "path", h.legacyPath, "error", err)
		}
	}

	h.logger.Infow("Settings host started", "scopes", len(h.scopes))
	return nil
}

func (h *Host) quarantine(ctx context.Context, scope store.Scope) {
	q, ok := h.backend.(Quarantiner)
	if !ok {
		return
	}
	target, err := q.Quarantine(ctx, scope)
	if err != nil {
		h.logger.Warnw("Cannot set aside unreadable settings state", "scope", string(scope), "error", err)
		return
	}
	h.logger.Warnw("Moved unreadable settings state aside", "scope", string(scope), "path", target)
}

func (h *Host) hasState(states map[store.Scope]*store.InstanceState) bool {
	for _, state := range states {
		if !state.Empty() {
			return true
		}
	}
	return false
}

func (h *Host) importLegacyLocked(ctx context.Context) error {
	if h.legacyPath == "" {
		return nil
	}
	if _, err := os.Stat(h.legacyPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	target, ok := h.stores[store.ScopeDialog]
	if !ok {
		target = h.stores[h.scopes[0]]
	}

	importer := legacy.NewImporter(h.cfg, target, legacy.WithLogger(h.logger))
	if _, err := importer.ImportFile(h.legacyPath); err != nil {
		return err
	}

	if err := h.cfg.Save(); err != nil {
		return err
	}
	if err := h.flushLocked(ctx); err != nil {
		return err
	}
	return os.Rename(h.legacyPath, h.legacyPath+MigratedSuffix)
}

// Flush writes every scope to the backend.
func (h *Host) Flush(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return ErrNotRunning
	}
	return h.flushLocked(ctx)
}

func (h *Host) flushLocked(ctx context.Context) error {
	var errs []error
	for _, scope := range h.scopes {
		if err := h.backend.Write(ctx, scope, h.stores[scope].GetState()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes every scope, stops the general settings watcher and closes
// the backend. Closing a host that was never started only closes resources.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	if h.running {
		errs = append(errs, h.flushLocked(ctx))
		h.running = false
	}
	h.cfg.Close()
	if c, ok := h.backend.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
