// Package legacy imports the flat settings document written by earlier
// releases.
//
// The old document held the general settings flags and every tool
// configuration in one JSON object. Import migrates it to the newest legacy
// format, applies the flags to the general settings, reshapes the rest into a
// store.InstanceState and hands it to the ordinary Store.LoadState path.
// Nothing is ever written back in the legacy format.
package legacy

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/config/registry"
	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// Source is the notification source of settings applied by an import.
const Source = "legacy"

// Settings receives the general settings flags of a legacy document.
type Settings interface {
	Registry() *registry.Registry
	Apply(values map[string]any, source string) int
}

// Target receives the reshaped tool configurations.
type Target interface {
	LoadState(state *store.InstanceState)
}

// Report summarizes an import.
type Report struct {
	// Version is the document version before migration.
	Version *semver.Version

	// Migrations lists the applied migration steps.
	Migrations []Result

	// Settings is the number of general settings applied.
	Settings int

	// Configurations is the number of configuration blocks handed to the
	// target. Blocks the target rejects are still counted.
	Configurations int
}

// Importer imports legacy documents.
type Importer struct {
	settings Settings
	target   Target
	migrator *Migrator
	logger   *zap.SugaredLogger
}

// Option configures an Importer.
type Option func(*Importer)

// WithMigrator replaces the default migrator.
func WithMigrator(m *Migrator) Option {
	return func(i *Importer) {
		if m != nil {
			i.migrator = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewImporter creates an importer applying flags to settings and
// configurations to target.
func NewImporter(settings Settings, target Target, opts ...Option) *Importer {
	i := &Importer{
		settings: settings,
		target:   target,
		migrator: DefaultMigrator(),
		logger:   zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// GetState always returns nil: the legacy document is read once and never
// written again.
func (i *Importer) GetState() *store.InstanceState {
	return nil
}

// ImportFile imports the document at path.
func (i *Importer) ImportFile(path string) (*Report, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading legacy document: %w", err)
	}
	return i.Import(doc)
}

// Import migrates doc, applies its general settings and loads its tool
// configurations into the target. Importing the same document again yields
// the same target state.
func (i *Importer) Import(doc []byte) (*Report, error) {
	version, err := i.migrator.Version(doc)
	if err != nil {
		return nil, err
	}

	migrated, results, err := i.migrator.Migrate(doc)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		i.logger.Infow("Migrated legacy document",
			"from", r.From.String(),
			"to", r.To.String(),
			"step", r.Description)
	}

	flags := Flags(i.settings.Registry(), migrated)
	state := Reshape(migrated)

	report := &Report{
		Version:        version,
		Migrations:     results,
		Settings:       i.settings.Apply(flags, Source),
		Configurations: len(state.DeveloperToolsConfigurations),
	}

	i.target.LoadState(state)

	i.logger.Infow("Imported legacy settings",
		"version", version.String(),
		"settings", report.Settings,
		"configurations", report.Configurations)
	return report, nil
}

// Flags extracts the general settings flags of a migrated document, keyed by
// setting key. A setting is looked up under its legacy field name when it
// has one.
func Flags(r *registry.Registry, doc []byte) map[string]any {
	values := make(map[string]any)
	for _, s := range r.All() {
		field := s.Key
		if s.Legacy != "" {
			field = s.Legacy
		}

		value := gjson.GetBytes(doc, field)
		switch value.Type {
		case gjson.True, gjson.False:
			values[s.Key] = value.Bool()
		case gjson.String:
			values[s.Key] = value.Str
		case gjson.Null:
		default:
			values[s.Key] = value.Value()
		}
	}
	return values
}

// Reshape converts a migrated document into the current persisted shape.
// Missing fields stay nil so Store.LoadState can skip incomplete blocks.
func Reshape(doc []byte) *store.InstanceState {
	state := &store.InstanceState{
		DeveloperToolsConfigurations: []store.DeveloperToolConfigurationState{},
	}

	state.LastSelectedContentNodeID = optionalString(gjson.GetBytes(doc, "lastSelectedContentNodeId"))
	state.ExpandedGroupNodeIDs = splitIDs(gjson.GetBytes(doc, "expandedGroupNodeIds"))

	gjson.GetBytes(doc, "configurations").ForEach(func(_, c gjson.Result) bool {
		state.DeveloperToolsConfigurations = append(state.DeveloperToolsConfigurations, reshapeConfiguration(c))
		return true
	})

	return state
}

func reshapeConfiguration(c gjson.Result) store.DeveloperToolConfigurationState {
	cs := store.DeveloperToolConfigurationState{
		DeveloperToolID: optionalString(c.Get("toolId")),
		ID:              optionalString(c.Get("configurationId")),
		Name:            optionalString(c.Get("name")),
	}

	properties := c.Get("properties")
	if !properties.IsArray() {
		return cs
	}
	cs.Properties = []store.PropertyState{}
	properties.ForEach(func(_, p gjson.Result) bool {
		cs.Properties = append(cs.Properties, store.PropertyState{
			Key:   p.Get("key").String(),
			Value: p.Get("value").String(),
			Type:  p.Get("kind").String(),
		})
		return true
	})
	return cs
}

// splitIDs accepts the legacy comma-separated form and a JSON array.
func splitIDs(v gjson.Result) []string {
	var raw []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			raw = append(raw, item.String())
		}
	case v.Type == gjson.String:
		raw = strings.Split(v.Str, ",")
	default:
		return nil
	}

	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func optionalString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	s := v.Str
	return &s
}
