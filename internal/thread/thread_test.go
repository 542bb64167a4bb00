package thread

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-sync/api"
)

type recorder struct {
	mu      sync.Mutex
	started []api.ThreadID
	exited  []api.ThreadID
}

func (r *recorder) ThreadStarted(t *Thread) {
	r.mu.Lock()
	r.started = append(r.started, t.ID())
	r.mu.Unlock()
}

func (r *recorder) ThreadExited(t *Thread) {
	r.mu.Lock()
	r.exited = append(r.exited, t.ID())
	r.mu.Unlock()
}

type holdable struct {
	by []api.ThreadID
}

func (h *holdable) Abandon(t *Thread) { h.by = append(h.by, t.ID()) }

func TestSpawnAssignsDistinctIDs(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(rec)

	a := reg.Spawn(1)
	b := reg.Spawn(1)
	if a.ID() == b.ID() {
		t.Fatalf("Spawn() returned duplicate id %d", a.ID())
	}
	if a.ID() < firstSyntheticID {
		t.Fatalf("Spawn() id = %#x, want >= %#x", a.ID(), firstSyntheticID)
	}
	if got, ok := reg.Lookup(a.ID()); !ok || got != a {
		t.Fatalf("Lookup(%d) = %v, %v; want thread, true", a.ID(), got, ok)
	}
	if len(rec.started) != 2 {
		t.Fatalf("observer saw %d starts, want 2", len(rec.started))
	}
}

func TestExitAbandonsHeldObjects(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry(rec)
	th := reg.Spawn(7)

	kept := &holdable{}
	dropped := &holdable{}
	if !th.Hold(kept) || !th.Hold(dropped) {
		t.Fatal("Hold() on live thread = false, want true")
	}
	th.Drop(dropped)
	th.Exit()
	th.Exit()

	if len(kept.by) != 1 || kept.by[0] != th.ID() {
		t.Fatalf("kept abandoned by %v, want [%d]", kept.by, th.ID())
	}
	if len(dropped.by) != 0 {
		t.Fatalf("dropped abandoned by %v, want none", dropped.by)
	}
	if _, ok := reg.Lookup(th.ID()); ok {
		t.Fatal("Lookup() found exited thread")
	}
	if len(rec.exited) != 1 {
		t.Fatalf("observer saw %d exits, want 1", len(rec.exited))
	}
	select {
	case <-th.Done():
	default:
		t.Fatal("Done() not closed after Exit")
	}
	if th.Hold(kept) {
		t.Fatal("Hold() on exited thread = true, want false")
	}
}

func TestAttachIsIdempotentPerOSThread(t *testing.T) {
	if _, _, ok := currentOSThread(); !ok {
		t.Skip("no OS thread identity on this platform")
	}
	reg := NewRegistry()
	done := make(chan struct{})
	go func() {
		defer close(done)
		a := reg.Attach()
		b := reg.Attach()
		if a != b {
			t.Errorf("Attach() twice returned different threads %d and %d", a.ID(), b.ID())
		}
		if reg.Len() != 1 {
			t.Errorf("Len() = %d, want 1", reg.Len())
		}
		a.Exit()
	}()
	<-done
	if reg.Len() != 0 {
		t.Fatalf("Len() after exit = %d, want 0", reg.Len())
	}
}
