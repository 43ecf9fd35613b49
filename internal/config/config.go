package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/config/layer"
	"github.com/dshills/devtoolsettings/internal/config/loader"
	"github.com/dshills/devtoolsettings/internal/config/notify"
	"github.com/dshills/devtoolsettings/internal/config/registry"
	"github.com/dshills/devtoolsettings/internal/config/watcher"
	"github.com/dshills/devtoolsettings/internal/settings/toolconfig"
)

// FileName is the name of the general settings file.
const FileName = "settings.toml"

// PathPrefix is the notification path of general settings.
const PathPrefix = "general"

const (
	layerDefaults = "defaults"
	layerFile     = "file"
	layerEnv      = "environment"
	layerSession  = "session"
)

// Config provides live access to the general settings.
type Config struct {
	mu sync.Mutex

	registry *registry.Registry
	layers   *layer.Manager
	values   *registry.Accessor
	notifier *notify.Notifier
	watcher  *watcher.Watcher
	logger   *zap.SugaredLogger

	dir           string
	environ       []string
	enableWatcher bool
	ownsNotifier  bool
}

var _ toolconfig.Flags = (*Config)(nil)

// Option configures a Config instance.
type Option func(*Config)

// WithDir sets the directory holding the settings file.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.dir = dir
	}
}

// WithWatcher enables reloading the settings file when it changes.
func WithWatcher(enable bool) Option {
	return func(c *Config) {
		c.enableWatcher = enable
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotifier publishes changes through n instead of a private notifier.
// The caller keeps ownership of n.
func WithNotifier(n *notify.Notifier) Option {
	return func(c *Config) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithEnviron reads overrides from environ instead of the process
// environment.
func WithEnviron(environ []string) Option {
	return func(c *Config) {
		c.environ = environ
	}
}

// New creates a Config holding only defaults. Call Load to read the settings
// file and the environment.
func New(opts ...Option) *Config {
	c := &Config{
		registry: registry.NewWithDefaults(),
		layers:   layer.NewManager(),
		logger:   zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.notifier == nil {
		c.notifier = notify.New()
		c.ownsNotifier = true
	}
	if c.dir == "" {
		c.dir = DefaultDir()
	}

	defaults := layer.NewLayerWithData(layerDefaults, layer.SourceBuiltin, layer.PriorityBuiltin, c.registry.Defaults())
	defaults.ReadOnly = true
	c.layers.AddLayer(defaults)
	c.layers.AddLayer(layer.NewLayer(layerSession, layer.SourceSession, layer.PrioritySession))
	c.values = registry.NewAccessor(c.registry, c.layers)

	return c
}

// Path returns the settings file path.
func (c *Config) Path() string {
	return filepath.Join(c.dir, FileName)
}

// Registry returns the setting definitions.
func (c *Config) Registry() *registry.Registry {
	return c.registry
}

// Load reads the settings file and the environment overrides, then starts
// the watcher if enabled. A missing file leaves the defaults in effect.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadFileLocked(); err != nil {
		return err
	}
	if err := c.loadEnvironmentLocked(); err != nil {
		return err
	}

	if c.enableWatcher && c.watcher == nil {
		w, err := watcher.New(watcher.WithLogger(c.logger))
		if err != nil {
			return fmt.Errorf("creating settings watcher: %w", err)
		}
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			w.Stop()
			return fmt.Errorf("creating %s: %w", c.dir, err)
		}
		if err := w.Watch(c.Path()); err != nil {
			w.Stop()
			return fmt.Errorf("watching %s: %w", c.Path(), err)
		}
		w.OnChange(c.handleFileChange)
		w.Start()
		c.watcher = w
	}

	return nil
}

// Close stops the watcher and the notifier if the Config created it.
func (c *Config) Close() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if c.ownsNotifier {
		c.notifier.Close()
	}
}

// Get returns the effective value of key.
func (c *Config) Get(key string) (any, error) {
	return c.values.Get(key)
}

// GetBool returns the effective boolean value of key.
func (c *Config) GetBool(key string) (bool, error) {
	return c.values.GetBool(key)
}

// Origin returns the name of the layer that provides key.
func (c *Config) Origin(key string) string {
	return c.layers.WhichLayer(key)
}

// Values returns the effective value of every registered setting.
func (c *Config) Values() map[string]any {
	merged := c.layers.Merge()
	result := make(map[string]any, len(merged))
	for _, key := range c.registry.Keys() {
		result[key] = merged[key]
	}
	return result
}

// Set validates value and sets it for the running session.
func (c *Config) Set(key string, value any) error {
	if err := c.registry.Validate(key, value); err != nil {
		return err
	}

	c.mu.Lock()
	old, _ := c.layers.GetValue(key)
	if err := c.layers.Set(layerSession, key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if old != value {
		c.notifier.NotifySet(notifyPath(key), old, value, layer.SourceSession.String())
	}
	return nil
}

// Reset removes the saved and session values of key, so the environment or
// the default applies again. Call Save to persist the removal.
func (c *Config) Reset(key string) error {
	if c.registry.Get(key) == nil {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}

	c.mu.Lock()
	old, _ := c.layers.GetValue(key)
	for _, name := range []string{layerSession, layerFile} {
		if _, ok := c.layers.LayerData(name); !ok {
			continue
		}
		if err := c.layers.Delete(name, key); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	value, _ := c.layers.GetValue(key)
	c.mu.Unlock()

	if old != value {
		c.notifier.NotifySet(notifyPath(key), old, value, layer.SourceSession.String())
	}
	return nil
}

// SetString parses text for the setting's type and sets it.
func (c *Config) SetString(key, text string) error {
	value, err := c.registry.Parse(key, text)
	if err != nil {
		return err
	}
	return c.Set(key, value)
}

// Apply sets several values at once, as carried over from another source.
// Unknown keys and invalid values are skipped with a warning. Changes are
// published together after all values are applied.
func (c *Config) Apply(values map[string]any, source string) int {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	batch := c.notifier.NewBatch()
	applied := 0

	c.mu.Lock()
	for _, key := range keys {
		value, err := c.normalize(key, values[key])
		if err != nil {
			c.logger.Warnw("Ignoring setting", "key", key, "source", source, "error", err)
			continue
		}
		old, _ := c.layers.GetValue(key)
		if err := c.layers.Set(layerSession, key, value); err != nil {
			c.logger.Warnw("Ignoring setting", "key", key, "source", source, "error", err)
			continue
		}
		applied++
		if old != value {
			batch.Set(notifyPath(key), old, value, source)
		}
	}
	c.mu.Unlock()

	batch.Commit()
	return applied
}

// Save writes the values set in the file and session layers to the settings
// file. Defaults and environment overrides are not written.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, _ := c.layers.LayerData(layerFile)
	if values == nil {
		values = make(map[string]any)
	}
	session, _ := c.layers.LayerData(layerSession)
	for key, value := range session {
		values[key] = value
	}

	if err := loader.WriteTOML(c.Path(), values); err != nil {
		return err
	}

	l := layer.NewLayerWithData(layerFile, layer.SourceFile, layer.PriorityFile, values)
	l.Path = c.Path()
	c.layers.AddLayer(l)
	return nil
}

// Subscribe registers an observer for all general settings changes.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(PathPrefix, observer)
}

// Layers returns the names of the value layers, highest precedence first.
func (c *Config) Layers() []string {
	layers := c.layers.Layers()
	names := make([]string, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		names = append(names, layers[i].Name)
	}
	return names
}

// EnvName returns the environment variable that overrides key.
func (c *Config) EnvName(key string) string {
	return loader.DefaultEnvPrefix + loader.KeyToEnv(key)
}

// SaveConfigurations reports whether tool configurations are persisted.
func (c *Config) SaveConfigurations() bool {
	return c.flag(registry.KeySaveConfigurations)
}

// SaveInputs reports whether tool inputs are persisted.
func (c *Config) SaveInputs() bool {
	return c.flag(registry.KeySaveInputs)
}

// SaveSensitiveInputs reports whether sensitive tool inputs are persisted.
func (c *Config) SaveSensitiveInputs() bool {
	return c.flag(registry.KeySaveSensitiveInputs)
}

// LoadExamples reports whether new properties start from their example.
func (c *Config) LoadExamples() bool {
	return c.flag(registry.KeyLoadExamples)
}

// DialogIsModal reports whether the tools dialog is modal.
func (c *Config) DialogIsModal() bool {
	return c.flag(registry.KeyDialogIsModal)
}

// ShowInternalTools reports whether internal tools are listed.
func (c *Config) ShowInternalTools() bool {
	return c.flag(registry.KeyShowInternalTools)
}

// AutoDetectActionHandling reports whether editor selections are offered to
// tools.
func (c *Config) AutoDetectActionHandling() bool {
	return c.flag(registry.KeyAutoDetectActionHandling)
}

func (c *Config) flag(key string) bool {
	fallback, _ := c.registry.Default(key).(bool)
	return c.values.BoolOr(key, fallback)
}

func (c *Config) loadFileLocked() error {
	values, err := c.read(loader.NewTOMLLoader(c.Path()), layer.SourceFile)
	if err != nil {
		return err
	}

	fileLayer := layer.NewLayerWithData(layerFile, layer.SourceFile, layer.PriorityFile, values)
	fileLayer.Path = c.Path()
	c.layers.AddLayer(fileLayer)
	return nil
}

func (c *Config) loadEnvironmentLocked() error {
	l := loader.NewEnvLoader(loader.DefaultEnvPrefix)
	if c.environ != nil {
		l = loader.NewEnvLoaderWithEnviron(loader.DefaultEnvPrefix, c.environ)
	}
	values, err := c.read(l, layer.SourceEnv)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		c.layers.RemoveLayer(layerEnv)
		return nil
	}
	c.layers.AddLayer(layer.NewLayerWithData(layerEnv, layer.SourceEnv, layer.PriorityEnv, values))
	return nil
}

func (c *Config) read(l loader.Loader, source layer.Source) (map[string]any, error) {
	raw, err := l.Load()
	if err != nil {
		return nil, err
	}
	return c.normalizeAll(raw, source.String()), nil
}

// normalizeAll converts raw values to their setting types, dropping unknown
// keys and invalid values with a warning.
func (c *Config) normalizeAll(raw map[string]any, source string) map[string]any {
	values := make(map[string]any, len(raw))
	for key, v := range raw {
		value, err := c.normalize(key, v)
		if err != nil {
			c.logger.Warnw("Ignoring setting", "key", key, "source", source, "error", err)
			continue
		}
		values[key] = value
	}
	return values
}

func (c *Config) normalize(key string, value any) (any, error) {
	s := c.registry.Get(key)
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if text, ok := value.(string); ok && s.Type != registry.TypeString {
		return s.Parse(text)
	}
	if err := s.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// handleFileChange reloads the file layer after an external edit.
func (c *Config) handleFileChange(event watcher.Event) {
	c.mu.Lock()
	before := c.layers.Merge()

	if event.Op == watcher.OpRemove {
		c.layers.RemoveLayer(layerFile)
	} else if err := c.loadFileLocked(); err != nil {
		c.mu.Unlock()
		c.logger.Warnw("Keeping previous settings, file cannot be read", "path", event.Path, "error", err)
		return
	}

	after := c.layers.Merge()
	c.mu.Unlock()

	c.logger.Debugw("Reloaded settings file", "path", event.Path, "op", event.Op.String())

	batch := c.notifier.NewBatch()
	for _, key := range c.registry.Keys() {
		if before[key] != after[key] {
			batch.Set(notifyPath(key), before[key], after[key], layer.SourceFile.String())
		}
	}
	batch.Commit()
	c.notifier.NotifyReload(PathPrefix, layer.SourceFile.String())
}

func notifyPath(key string) string {
	return PathPrefix + "." + key
}

// DefaultDir returns the default state directory.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devtoolsettings")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "devtoolsettings")
}
