// Package store owns the tool configurations of one persistence scope and
// converts them to and from their persisted form.
//
// GetState and LoadState are the only save and load entry points; a host
// calls them at its lifecycle points. Save policy flags are read live on both
// paths, so properties of a policy that was disabled are dropped on the next
// save or load and never come back.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/devtoolsettings/internal/config/notify"
	"github.com/dshills/devtoolsettings/internal/settings/propertytype"
	"github.com/dshills/devtoolsettings/internal/settings/toolconfig"
)

// Scope names an independently persisted store.
type Scope string

const (
	// ScopeDialog is the store of the modal developer tools dialog.
	ScopeDialog Scope = "dialog"
	// ScopeToolWindow is the store of the per-project tool window.
	ScopeToolWindow Scope = "toolwindow"
)

// Scopes returns all known scopes.
func Scopes() []Scope {
	return []Scope{ScopeDialog, ScopeToolWindow}
}

// Store holds the tool configurations of one scope, keyed by tool id.
type Store struct {
	scope    Scope
	registry *propertytype.Registry
	flags    toolconfig.Flags
	logger   *zap.SugaredLogger
	notifier *notify.Notifier

	mu                        sync.RWMutex
	configurations            map[string][]*toolconfig.Configuration
	lastSelectedContentNodeID *string
	expandedGroupNodeIDs      []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier publishes configuration creation, removal and reloads.
func WithNotifier(n *notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// New creates an empty store for scope.
func New(scope Scope, registry *propertytype.Registry, flags toolconfig.Flags, opts ...Option) *Store {
	s := &Store{
		scope:          scope,
		registry:       registry,
		flags:          flags,
		logger:         zap.NewNop().Sugar(),
		configurations: make(map[string][]*toolconfig.Configuration),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("scope", string(scope))

	return s
}

// Scope returns the store scope.
func (s *Store) Scope() Scope {
	return s.scope
}

// Registry returns the property type registry used for persistence.
func (s *Store) Registry() *propertytype.Registry {
	return s.registry
}

// CreateConfiguration appends a new configuration with a fresh id for toolID.
func (s *Store) CreateConfiguration(toolID string, opts ...toolconfig.Option) *toolconfig.Configuration {
	opts = append([]toolconfig.Option{toolconfig.WithLogger(s.logger)}, opts...)
	opts = append(opts, toolconfig.WithID(uuid.New()))
	c := toolconfig.New(s.registry, s.flags, opts...)

	s.mu.Lock()
	s.configurations[toolID] = append(slices.Clip(s.configurations[toolID]), c)
	s.mu.Unlock()

	s.publish(func(n *notify.Notifier) {
		n.NotifyCreate(s.path(toolID), c.ID().String(), "store")
	})
	return c
}

// Configurations returns a snapshot of the configurations of toolID in
// creation order.
func (s *Store) Configurations(toolID string) []*toolconfig.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.configurations[toolID])
}

// Configuration returns the configuration of toolID with the given id.
func (s *Store) Configuration(toolID string, id uuid.UUID) (*toolconfig.Configuration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.configurations[toolID] {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// RemoveConfiguration removes c from toolID by identity. It reports whether
// c was found.
func (s *Store) RemoveConfiguration(toolID string, c *toolconfig.Configuration) bool {
	s.mu.Lock()
	current := s.configurations[toolID]
	i := slices.Index(current, c)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	// Build a new slice so snapshots handed out earlier stay intact.
	remaining := slices.Delete(slices.Clone(current), i, i+1)
	if len(remaining) == 0 {
		delete(s.configurations, toolID)
	} else {
		s.configurations[toolID] = remaining
	}
	s.mu.Unlock()

	s.publish(func(n *notify.Notifier) {
		n.NotifyDelete(s.path(toolID), c.ID().String(), "store")
	})
	return true
}

// ToolIDs returns the ids of all tools with configurations, sorted.
func (s *Store) ToolIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedToolIDsLocked()
}

// LastSelectedContentNodeID returns the id of the last selected tree node.
func (s *Store) LastSelectedContentNodeID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSelectedContentNodeID == nil {
		return "", false
	}
	return *s.lastSelectedContentNodeID, true
}

// SetLastSelectedContentNodeID records the last selected tree node.
func (s *Store) SetLastSelectedContentNodeID(id string) {
	s.mu.Lock()
	s.lastSelectedContentNodeID = &id
	s.mu.Unlock()
}

// ExpandedGroupNodeIDs returns the ids of expanded tree groups, or nil if
// they were never recorded.
func (s *Store) ExpandedGroupNodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expandedGroupNodeIDs)
}

// SetExpandedGroupNodeIDs records the expanded tree groups.
func (s *Store) SetExpandedGroupNodeIDs(ids []string) {
	s.mu.Lock()
	s.expandedGroupNodeIDs = slices.Clone(ids)
	s.mu.Unlock()
}

// GetState returns the persisted form of the store. Only modified
// configurations are included, each with its changed properties and its
// unclaimed persistent properties whose save policy is currently enabled.
// Configurations left without properties are omitted.
func (s *Store) GetState() *InstanceState {
	s.mu.RLock()
	toolIDs := s.sortedToolIDsLocked()
	configurations := make(map[string][]*toolconfig.Configuration, len(toolIDs))
	for _, toolID := range toolIDs {
		configurations[toolID] = slices.Clone(s.configurations[toolID])
	}
	state := &InstanceState{
		DeveloperToolsConfigurations: []DeveloperToolConfigurationState{},
		ExpandedGroupNodeIDs:         slices.Clone(s.expandedGroupNodeIDs),
	}
	if s.lastSelectedContentNodeID != nil {
		state.LastSelectedContentNodeID = ptr(*s.lastSelectedContentNodeID)
	}
	s.mu.RUnlock()

	for _, toolID := range toolIDs {
		for _, c := range configurations[toolID] {
			if !c.IsModified() {
				continue
			}
			properties := s.persistProperties(toolID, c)
			if len(properties) == 0 {
				continue
			}
			state.DeveloperToolsConfigurations = append(state.DeveloperToolsConfigurations, DeveloperToolConfigurationState{
				DeveloperToolID: ptr(toolID),
				ID:              ptr(c.ID().String()),
				Name:            ptr(c.Name()),
				Properties:      properties,
			})
		}
	}

	return state
}

func (s *Store) persistProperties(toolID string, c *toolconfig.Configuration) []PropertyState {
	var result []PropertyState
	for _, p := range c.Snapshot() {
		if !toolconfig.Allowed(s.flags, p.Policy) {
			continue
		}
		value, err := s.registry.ToPersistent(p.Value)
		if errors.Is(err, propertytype.ErrUnencodable) {
			s.logger.Warnw("Dropping property that cannot be persisted",
				"toolId", toolID,
				"configurationId", c.ID(),
				"key", p.Key,
				"error", err)
			continue
		}
		if err != nil {
			// Unknown types and enum constants only come from code.
			panic(fmt.Errorf("persisting %s property %s: %w", toolID, p.Key, err))
		}
		result = append(result, PropertyState{
			Key:   p.Key,
			Value: value,
			Type:  p.Policy.String(),
		})
	}
	return result
}

// LoadState replaces all configurations with those in state. Incomplete
// configuration blocks are skipped. Properties whose save policy is disabled
// or whose value cannot be restored are dropped; everything else waits as
// unclaimed persistent properties until tools register them. A nil state
// clears the store.
func (s *Store) LoadState(state *InstanceState) {
	loaded := make(map[string][]*toolconfig.Configuration)
	var lastSelected *string
	var expanded []string

	if state != nil {
		for i, cs := range state.DeveloperToolsConfigurations {
			c, toolID, ok := s.restoreConfiguration(i, cs)
			if !ok {
				continue
			}
			loaded[toolID] = append(loaded[toolID], c)
		}
		if state.LastSelectedContentNodeID != nil {
			lastSelected = ptr(*state.LastSelectedContentNodeID)
		}
		expanded = slices.Clone(state.ExpandedGroupNodeIDs)
	}

	s.mu.Lock()
	s.configurations = loaded
	s.lastSelectedContentNodeID = lastSelected
	s.expandedGroupNodeIDs = expanded
	s.mu.Unlock()

	s.publish(func(n *notify.Notifier) {
		n.NotifyReload(string(s.scope), "store")
	})
}

func (s *Store) restoreConfiguration(index int, cs DeveloperToolConfigurationState) (*toolconfig.Configuration, string, bool) {
	if cs.DeveloperToolID == nil || cs.ID == nil || cs.Name == nil || cs.Properties == nil {
		s.logger.Warnw("Skipping incomplete configuration", "index", index)
		return nil, "", false
	}

	toolID := *cs.DeveloperToolID
	id, err := uuid.Parse(*cs.ID)
	if err != nil {
		s.logger.Warnw("Skipping configuration with invalid id",
			"toolId", toolID,
			"configurationId", *cs.ID,
			"error", err)
		return nil, "", false
	}

	var properties []toolconfig.PersistentProperty
	for _, ps := range cs.Properties {
		if p, ok := s.restoreProperty(toolID, id, ps); ok {
			properties = append(properties, p)
		}
	}

	c := toolconfig.New(s.registry, s.flags,
		toolconfig.WithID(id),
		toolconfig.WithName(*cs.Name),
		toolconfig.WithLogger(s.logger),
		toolconfig.WithPersistentProperties(properties...))
	return c, toolID, true
}

func (s *Store) restoreProperty(toolID string, id uuid.UUID, ps PropertyState) (toolconfig.PersistentProperty, bool) {
	log := s.logger.With("toolId", toolID, "configurationId", id, "key", ps.Key)

	if ps.Key == "" {
		log.Warnw("Dropping property without key")
		return toolconfig.PersistentProperty{}, false
	}

	policy, err := toolconfig.ParseSavePolicy(ps.Type)
	if err != nil {
		log.Warnw("Dropping property with unknown save policy", "type", ps.Type)
		return toolconfig.PersistentProperty{}, false
	}
	if !toolconfig.Allowed(s.flags, policy) {
		log.Warnw("Dropping property of disabled save policy", "type", ps.Type)
		return toolconfig.PersistentProperty{}, false
	}

	value, err := s.registry.FromPersistent(ps.Value)
	if err != nil {
		log.Warnw("Dropping property that cannot be restored",
			"typeName", propertytype.TypeNameOf(ps.Value),
			"error", err)
		return toolconfig.PersistentProperty{}, false
	}

	return toolconfig.PersistentProperty{Key: ps.Key, Value: value, Policy: policy}, true
}

func (s *Store) sortedToolIDsLocked() []string {
	result := make([]string, 0, len(s.configurations))
	for toolID := range s.configurations {
		result = append(result, toolID)
	}
	sort.Strings(result)
	return result
}

func (s *Store) path(toolID string) string {
	return string(s.scope) + "." + toolID
}

func (s *Store) publish(fn func(n *notify.Notifier)) {
	if s.notifier != nil {
		fn(s.notifier)
	}
}
