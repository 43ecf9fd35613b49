// Package config provides the general developer tools settings: whether
// tool configurations, inputs and sensitive inputs are persisted, whether
// examples are loaded, and a few presentation flags.
//
// # Architecture
//
// Values are resolved through layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Session                 │  ← Set, SetString, Apply
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← DEVSETTINGS_SAVE_INPUTS=false
//	├─────────────────────────────┤
//	│  2. Settings File           │  ← <dir>/settings.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← registry.RegisterDefaults
//	└─────────────────────────────┘
//
// Config implements toolconfig.Flags. Every call reads the current value, so
// an instance store consulting it at save or load time sees edits made a
// moment earlier, including edits to the settings file picked up by the
// watcher.
//
// # Sub-packages
//
//   - registry: setting definitions, validation and typed access
//   - layer: priority-ordered value layers
//   - loader: settings file and environment loading
//   - watcher: fsnotify-based reload of the settings file
//   - notify: change notification
//
// # Usage
//
//	cfg := config.New(config.WithDir(dir), config.WithWatcher(true))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	sub := cfg.Subscribe(func(c notify.Change) {
//	    log.Printf("%s: %v -> %v", c.Path, c.OldValue, c.NewValue)
//	})
//	defer sub.Unsubscribe()
//	_ = cfg.Set(registry.KeySaveSensitiveInputs, true)
//	_ = cfg.Save()
package config
