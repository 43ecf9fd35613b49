// Package watcher reports changes to the general settings file so it can be
// reloaded while the host runs.
//
// Files are watched through their parent directory. Editors and the atomic
// writer in package loader replace the file by renaming a temporary file over
// it, which a watch on the file itself would not survive.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherClosed is returned when watching after Stop.
var ErrWatcherClosed = errors.New("watcher closed")

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event occurred.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created or renamed into place.
	OpCreate

	// OpRemove indicates the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors files for changes.
type Watcher struct {
	mu sync.RWMutex

	fsw    *fsnotify.Watcher
	logger *zap.SugaredLogger

	// watched files and their directories
	files map[string]bool
	dirs  map[string]bool

	handlers []Handler

	debounce     time.Duration
	pendingMu    sync.Mutex
	pendingFiles map[string]*pendingEvent

	running bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

type pendingEvent struct {
	op    Operation
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a file watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:          fsw,
		logger:       zap.NewNop().Sugar(),
		files:        make(map[string]bool),
		dirs:         make(map[string]bool),
		debounce:     100 * time.Millisecond,
		pendingFiles: make(map[string]*pendingEvent),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch adds a file to the watch list. The file need not exist yet; its
// creation is reported as OpCreate. The parent directory must exist.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[absPath] = true
	return nil
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins delivering events. It is a no-op if already running or
// stopped.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop()
}

// Stop stops the watcher and releases its resources. Pending debounced
// events are discarded. A stopped watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.running = false
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()

	w.pendingMu.Lock()
	for path, p := range w.pendingFiles {
		p.timer.Stop()
		delete(w.pendingFiles, path)
	}
	w.pendingMu.Unlock()

	if err := w.fsw.Close(); err != nil {
		w.logger.Debugw("Closing file watcher", "error", err)
	}
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	path := filepath.Clean(fsEvent.Name)

	w.mu.RLock()
	watched := w.files[path]
	w.mu.RUnlock()
	if !watched {
		return
	}

	op, ok := convertOp(fsEvent.Op)
	if !ok {
		return
	}

	event := Event{Path: path, Op: op, Time: time.Now()}
	if w.debounce > 0 {
		w.queueEvent(event)
	} else {
		w.emitEvent(event)
	}
}

func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

// queueEvent delays an event until its file has been quiet for the debounce
// period. Events for the same file coalesce:
// a write after a create or remove keeps the earlier operation, and a
// create after a remove becomes a write since the file was replaced.
func (w *Watcher) queueEvent(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	p, exists := w.pendingFiles[event.Path]
	if !exists {
		p = &pendingEvent{op: event.Op}
		w.pendingFiles[event.Path] = p
		p.timer = time.AfterFunc(w.debounce, func() { w.flushPending(event.Path) })
		return
	}

	switch {
	case event.Op == OpRemove:
		p.op = OpRemove
	case event.Op == OpCreate && p.op == OpRemove:
		p.op = OpWrite
	case event.Op == OpCreate:
		p.op = OpCreate
	}
	p.timer.Reset(w.debounce)
}

func (w *Watcher) flushPending(path string) {
	w.pendingMu.Lock()
	p, ok := w.pendingFiles[path]
	if ok {
		delete(w.pendingFiles, path)
	}
	w.pendingMu.Unlock()

	if !ok {
		return
	}

	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return
	}

	w.emitEvent(Event{Path: path, Op: p.op, Time: time.Now()})
}

// emitEvent calls all handlers with the event.
func (w *Watcher) emitEvent(event Event) {
	w.mu.RLock()
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		w.safeCallHandler(handler, event)
	}
}

// safeCallHandler keeps a panicking handler from killing the watcher.
func (w *Watcher) safeCallHandler(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("Settings file handler panicked", "path", event.Path, "panic", r)
		}
	}()
	handler(event)
}
