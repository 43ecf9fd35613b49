package layer

import (
	"fmt"
	"maps"
	"sort"
	"sync"
)

// Manager holds the layers and answers lookups across them.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer // sorted by priority, ascending
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddLayer adds a layer, replacing any layer with the same name.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexLocked(layer.Name); i >= 0 {
		m.layers = append(m.layers[:i], m.layers[i+1:]...)
	}
	m.layers = append(m.layers, layer)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}

// RemoveLayer removes a layer by name. Returns true if it was present.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(name)
	if i < 0 {
		return false
	}
	m.layers = append(m.layers[:i], m.layers[i+1:]...)
	return true
}

// Layers returns copies of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	for i, l := range m.layers {
		result[i] = l.Clone()
	}
	return result
}

// Get returns the effective value for key and the name of the layer that
// provides it.
func (m *Manager) Get(key string) (any, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		if v, ok := m.layers[i].Data[key]; ok {
			return v, m.layers[i].Name, true
		}
	}
	return nil, "", false
}

// GetValue returns the effective value for key.
func (m *Manager) GetValue(key string) (any, bool) {
	v, _, ok := m.Get(key)
	return v, ok
}

// WhichLayer returns the name of the layer that provides key, or "".
func (m *Manager) WhichLayer(key string) string {
	_, name, _ := m.Get(key)
	return name
}

// Merge returns the effective values of all keys.
func (m *Manager) Merge() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any)
	for _, l := range m.layers {
		maps.Copy(result, l.Data)
	}
	return result
}

// Set sets key in the named layer.
func (m *Manager) Set(layerName, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writableLocked(layerName)
	if err != nil {
		return err
	}
	l.Data[key] = value
	return nil
}

// Delete removes key from the named layer.
func (m *Manager) Delete(layerName, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writableLocked(layerName)
	if err != nil {
		return err
	}
	delete(l.Data, key)
	return nil
}

// LayerData returns a copy of the named layer's values.
func (m *Manager) LayerData(name string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexLocked(name)
	if i < 0 {
		return nil, false
	}
	return maps.Clone(m.layers[i].Data), true
}

func (m *Manager) writableLocked(name string) (*Layer, error) {
	i := m.indexLocked(name)
	if i < 0 {
		return nil, fmt.Errorf("layer not found: %s", name)
	}
	l := m.layers[i]
	if l.ReadOnly {
		return nil, fmt.Errorf("layer is read-only: %s", name)
	}
	if l.Data == nil {
		l.Data = make(map[string]any)
	}
	return l, nil
}

func (m *Manager) indexLocked(name string) int {
	for i, l := range m.layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}
