package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeCreate, "create"},
		{ChangeDelete, "delete"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Int32
	sub := n.Subscribe(func(change Change) {
		received.Add(1)
	})

	n.NotifySet("general.saveInputs", true, false, "file")
	if received.Load() != 1 {
		t.Fatalf("received = %d, want 1", received.Load())
	}

	sub.Unsubscribe()
	n.NotifySet("general.saveInputs", false, true, "file")
	if received.Load() != 1 {
		t.Error("observer called after Unsubscribe")
	}
}

func TestNotifier_SubscribePath(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.SubscribePath("dialog", func(change Change) {
		got = append(got, change)
	})

	n.NotifyCreate("dialog.base64-encoder", "id-1", "store")
	n.NotifyCreate("toolwindow.base64-encoder", "id-2", "store")
	n.NotifyDelete("dialog.base64-encoder", "id-1", "store")
	n.NotifySet("dialogue.x", nil, 1, "store")

	if len(got) != 2 {
		t.Fatalf("got %d changes, want 2: %v", len(got), got)
	}
	if got[0].Type != ChangeCreate || got[0].NewValue != "id-1" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Type != ChangeDelete || got[1].OldValue != "id-1" {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestNotifier_ReloadReachesChildren(t *testing.T) {
	n := New()
	defer n.Close()

	var childCalls, otherCalls atomic.Int32
	n.SubscribePath("dialog.uuid-generator", func(Change) { childCalls.Add(1) })
	n.SubscribePath("toolwindow", func(Change) { otherCalls.Add(1) })

	n.NotifyReload("dialog", "host")
	if childCalls.Load() != 1 {
		t.Errorf("child observer calls = %d, want 1", childCalls.Load())
	}
	if otherCalls.Load() != 0 {
		t.Errorf("unrelated observer calls = %d, want 0", otherCalls.Load())
	}

	n.NotifyReload("", "host")
	if childCalls.Load() != 2 || otherCalls.Load() != 1 {
		t.Errorf("global reload: child = %d, other = %d", childCalls.Load(), otherCalls.Load())
	}
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(10))

	var wg sync.WaitGroup
	wg.Add(3)
	n.Subscribe(func(Change) { wg.Done() })

	for i := 0; i < 3; i++ {
		n.NotifySet("general.loadExamples", nil, i, "test")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async delivery")
	}
	n.Close()
}

func TestNotifier_NotifyAfterClose(t *testing.T) {
	n := New()
	var calls atomic.Int32
	n.Subscribe(func(Change) { calls.Add(1) })

	n.Close()
	n.Close()
	n.NotifySet("general.saveInputs", nil, true, "test")

	if calls.Load() != 0 {
		t.Error("observer called after Close")
	}
}

func TestBatch(t *testing.T) {
	n := New()
	defer n.Close()

	var paths []string
	n.Subscribe(func(c Change) { paths = append(paths, c.Path) })

	b := n.NewBatch()
	b.Set("general.saveInputs", true, false, "file")
	b.Set("general.loadExamples", true, false, "file")
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if len(paths) != 0 {
		t.Fatal("batch delivered before Commit")
	}

	b.Commit()
	if len(paths) != 2 || paths[0] != "general.saveInputs" {
		t.Errorf("paths = %v", paths)
	}
	if b.Len() != 0 {
		t.Error("batch not emptied by Commit")
	}
}

func TestIsParentPath(t *testing.T) {
	tests := []struct {
		parent, child string
		want          bool
	}{
		{"general", "general.saveInputs", true},
		{"", "general", true},
		{"general", "general", false},
		{"gen", "general.saveInputs", false},
		{"general.saveInputs", "general", false},
	}

	for _, tt := range tests {
		if got := isParentPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("isParentPath(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}
