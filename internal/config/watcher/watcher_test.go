package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newWatcher(t *testing.T, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(w.Stop)
	w.debounce = debounce
	return w
}

// collect records delivered events.
type collect struct {
	mu     sync.Mutex
	events []Event
}

func (c *collect) handle(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collect) waitFor(t *testing.T, op Operation) Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, e := range c.events {
			if e.Op == op {
				c.mu.Unlock()
				return e
			}
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no %s event received", op)
	return Event{}
}

func TestNew_Defaults(t *testing.T) {
	w, err := New(WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if w.debounce != 100*time.Millisecond {
		t.Errorf("default debounce = %v, want 100ms", w.debounce)
	}
	if w.logger == nil {
		t.Error("nil logger option replaced the default")
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		in     fsnotify.Op
		want   Operation
		wantOK bool
	}{
		{fsnotify.Write, OpWrite, true},
		{fsnotify.Create, OpCreate, true},
		{fsnotify.Create | fsnotify.Write, OpCreate, true},
		{fsnotify.Remove, OpRemove, true},
		{fsnotify.Rename, OpRemove, true},
		{fsnotify.Chmod, 0, false},
	}

	for _, tt := range tests {
		got, ok := convertOp(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("convertOp(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	w := newWatcher(t, 0)

	if err := w.Watch(filepath.Join(dir, "settings.toml")); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := w.Watch(filepath.Join(dir, "settings.toml")); err != nil {
		t.Fatalf("second Watch() error = %v", err)
	}
	if err := w.Watch(filepath.Join(dir, "other.toml")); err != nil {
		t.Fatalf("Watch(other) error = %v", err)
	}
	if len(w.files) != 2 || len(w.dirs) != 1 {
		t.Errorf("watching %d files in %d dirs, want 2 in 1", len(w.files), len(w.dirs))
	}

	if err := w.Watch(filepath.Join(dir, "missing", "settings.toml")); err == nil {
		t.Error("Watch() in a missing directory should fail")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := newWatcher(t, 0)

	w.Start()
	w.Start()
	w.Stop()
	w.Stop()
	w.Start()
	if w.running {
		t.Error("Start() after Stop() restarted the watcher")
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "x.toml")); err != ErrWatcherClosed {
		t.Errorf("Watch() after Stop = %v, want ErrWatcherClosed", err)
	}
}

func TestWatcher_DetectsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")

	w := newWatcher(t, 0)
	var got collect
	w.OnChange(got.handle)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("saveInputs = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := got.waitFor(t, OpCreate)
	if e.Path != path {
		t.Errorf("event path = %q, want %q", e.Path, path)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	got.waitFor(t, OpRemove)

	got.mu.Lock()
	defer got.mu.Unlock()
	for _, e := range got.events {
		if e.Path != path {
			t.Errorf("unexpected event for %s", e.Path)
		}
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	w := newWatcher(t, time.Hour)
	path := "/tmp/settings.toml"

	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{"create then write", []Operation{OpCreate, OpWrite}, OpCreate},
		{"write then write", []Operation{OpWrite, OpWrite}, OpWrite},
		{"write then remove", []Operation{OpWrite, OpRemove}, OpRemove},
		{"remove then create", []Operation{OpRemove, OpCreate}, OpWrite},
		{"write then create", []Operation{OpWrite, OpCreate}, OpCreate},
	}

	for _, tt := range tests {
		for _, op := range tt.ops {
			w.queueEvent(Event{Path: path, Op: op, Time: time.Now()})
		}

		w.pendingMu.Lock()
		p := w.pendingFiles[path]
		got := p.op
		p.timer.Stop()
		delete(w.pendingFiles, path)
		w.pendingMu.Unlock()

		if got != tt.want {
			t.Errorf("%s: pending op = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWatcher_DebouncedDelivery(t *testing.T) {
	w := newWatcher(t, 20*time.Millisecond)
	var got collect
	w.OnChange(got.handle)

	w.queueEvent(Event{Path: "/tmp/settings.toml", Op: OpWrite})
	w.queueEvent(Event{Path: "/tmp/settings.toml", Op: OpWrite})
	got.waitFor(t, OpWrite)

	time.Sleep(50 * time.Millisecond)
	got.mu.Lock()
	defer got.mu.Unlock()
	if len(got.events) != 1 {
		t.Errorf("delivered %d events, want 1", len(got.events))
	}
}

func TestWatcher_HandlerPanicIsContained(t *testing.T) {
	w := newWatcher(t, 0)
	var got collect
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(got.handle)

	w.emitEvent(Event{Path: "/tmp/settings.toml", Op: OpWrite})

	got.mu.Lock()
	defer got.mu.Unlock()
	if len(got.events) != 1 {
		t.Error("handler after a panicking one was not called")
	}
}
