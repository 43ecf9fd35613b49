// Package notify delivers settings change events to subscribers.
//
// Paths are dot-separated. General settings publish under "general"
// (e.g. "general.saveInputs"); instance stores publish under their scope and
// tool id (e.g. "dialog.base64-encoder"). Subscribing to a path also receives
// changes to its children.
package notify

import (
	"sync"
)

// ChangeType represents the kind of change.
type ChangeType int

const (
	// ChangeSet indicates a value was set or updated.
	ChangeSet ChangeType = iota

	// ChangeCreate indicates a tool configuration was created.
	ChangeCreate

	// ChangeDelete indicates a value or tool configuration was removed.
	ChangeDelete

	// ChangeReload indicates a whole store or settings file was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeCreate:
		return "create"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one settings change.
type Change struct {
	// Path is the dot-separated path of the change. Empty for a global reload.
	Path string

	// Type is the kind of change.
	Type ChangeType

	// OldValue is the previous value (may be nil).
	OldValue any

	// NewValue is the new value (may be nil).
	NewValue any

	// Source identifies where the change came from ("file", "env", "cli", …).
	Source string
}

// Observer is called for every matching change.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages subscriptions and delivers changes.
type Notifier struct {
	mu sync.RWMutex

	globalObservers map[uint64]Observer
	pathObservers   map[string]map[uint64]Observer
	nextID          uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers changes on a background goroutine through a buffer of
// the given size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers: make(map[uint64]Observer),
		pathObservers:   make(map[string]map[uint64]Observer),
		done:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribePath registers an observer for path and its children.
// Subscribing to "general" receives "general.saveInputs".
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.pathObservers[path] == nil {
		n.pathObservers[path] = make(map[uint64]Observer)
	}
	n.pathObservers[path][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify delivers change to all matching observers. It is a no-op after Close.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliverChange(change)
}

// NotifySet publishes a set change.
func (n *Notifier) NotifySet(path string, oldValue, newValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// NotifyCreate publishes a create change.
func (n *Notifier) NotifyCreate(path string, newValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeCreate, NewValue: newValue, Source: source})
}

// NotifyDelete publishes a delete change.
func (n *Notifier) NotifyDelete(path string, oldValue any, source string) {
	n.Notify(Change{Path: path, Type: ChangeDelete, OldValue: oldValue, Source: source})
}

// NotifyReload publishes a reload of everything under path.
func (n *Notifier) NotifyReload(path, source string) {
	n.Notify(Change{Path: path, Type: ChangeReload, Source: source})
}

// Close shuts down the notifier, delivering buffered changes first. It is
// safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for path, observers := range n.pathObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.pathObservers, path)
		}
	}
}

func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}

	for path, pathObs := range n.pathObservers {
		// A reload of a parent reaches observers of its children too.
		matches := path == change.Path || isParentPath(path, change.Path) ||
			(change.Type == ChangeReload && isParentPath(change.Path, path))
		if !matches {
			continue
		}
		for _, obs := range pathObs {
			observers = append(observers, obs)
		}
	}

	n.mu.RUnlock()

	// Observers run outside the lock so they may subscribe or unsubscribe.
	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliverChange(change)
		case <-n.done:
			for {
				select {
				case change := <-n.buffer:
					n.deliverChange(change)
				default:
					return
				}
			}
		}
	}
}

// isParentPath reports whether parent is a strict ancestor of child.
// The empty path is the ancestor of everything.
func isParentPath(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	if parent == "" {
		return true
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}

// Batch collects changes and publishes them together.
type Batch struct {
	notifier *Notifier
	mu       sync.Mutex
	changes  []Change
}

// NewBatch creates an empty batch.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Set adds a set change to the batch.
func (b *Batch) Set(path string, oldValue, newValue any, source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, Change{Path: path, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// Commit publishes the collected changes in order and empties the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}
