package syncobj

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-sync/api"
)

func TestNewEventRejectsUnknownMode(t *testing.T) {
	if _, err := NewEvent(api.ResetMode(2), false); !errors.Is(err, api.ErrInvalidParameter) {
		t.Fatalf("NewEvent(2) err = %v, want ErrInvalidParameter", err)
	}
	ev, err := NewEvent(api.ManualReset, false)
	if err != nil {
		t.Fatalf("NewEvent() err = %v", err)
	}
	if info := ev.Query(); info.Mode != api.ManualReset || info.Signaled {
		t.Fatalf("Query() = %+v, want manual/unsignaled", info)
	}
}

func TestAutoEventStateTransitions(t *testing.T) {
	ev, _ := NewEvent(api.AutoReset, false)

	steps := []struct {
		name     string
		op       func() bool
		prev     bool
		signaled bool
	}{
		{"pulse", ev.Pulse, false, false},
		{"set", ev.Set, false, true},
		{"set again", ev.Set, true, true},
		{"reset", ev.Reset, true, false},
		{"reset again", ev.Reset, false, false},
		{"pulse unsignaled", ev.Pulse, false, false},
		{"set", ev.Set, false, true},
		{"pulse signaled", ev.Pulse, true, false},
	}
	for _, s := range steps {
		if prev := s.op(); prev != s.prev {
			t.Fatalf("%s: previous state = %v, want %v", s.name, prev, s.prev)
		}
		if got := ev.Query().Signaled; got != s.signaled {
			t.Fatalf("%s: signaled = %v, want %v", s.name, got, s.signaled)
		}
	}
}

func TestAutoEventSetWakesExactlyOne(t *testing.T) {
	ev, _ := NewEvent(api.AutoReset, false)

	var woken atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			if st, _ := ev.Wait(context.Background(), nil, api.After(300*time.Millisecond)); st == api.WaitSuccess {
				woken.Add(1)
			}
			return nil
		})
	}
	waitUntil(t, func() bool { return ev.Waiters() == 2 })

	ev.Set()
	time.Sleep(50 * time.Millisecond)
	if got := woken.Load(); got != 1 {
		t.Fatalf("woken after one Set = %d, want 1", got)
	}
	if ev.Query().Signaled {
		t.Fatal("auto event stayed signaled after releasing a waiter")
	}
	if ev.Waiters() != 1 {
		t.Fatalf("Waiters() = %d, want 1 still blocked", ev.Waiters())
	}
	_ = g.Wait()
}

func TestManualEventSetWakesAllAndStays(t *testing.T) {
	ev, _ := NewEvent(api.ManualReset, false)

	var g errgroup.Group
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			st, err := ev.Wait(context.Background(), nil, api.After(time.Second))
			if err != nil {
				return err
			}
			if st != api.WaitSuccess {
				return errors.New("waiter not released: " + st.String())
			}
			return nil
		})
	}
	waitUntil(t, func() bool { return ev.Waiters() == 3 })

	ev.Set()
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if !ev.Query().Signaled {
		t.Fatal("manual event not signaled after Set")
	}
	if st, _ := ev.Wait(context.Background(), nil, api.Poll); st != api.WaitSuccess {
		t.Fatalf("Wait() on signaled manual event = %v, want success", st)
	}
}

func TestPulseWithoutWaitersLeavesNoTrace(t *testing.T) {
	for _, mode := range []api.ResetMode{api.ManualReset, api.AutoReset} {
		ev, _ := NewEvent(mode, false)
		ev.Pulse()
		if st, _ := ev.Wait(context.Background(), nil, api.Poll); st != api.WaitTimeout {
			t.Fatalf("%v: Wait() after lone Pulse = %v, want timeout", mode, st)
		}
	}
}

func TestManualPulseReleasesCurrentWaiters(t *testing.T) {
	ev, _ := NewEvent(api.ManualReset, false)

	var woken atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			if st, _ := ev.Wait(context.Background(), nil, api.After(time.Second)); st == api.WaitSuccess {
				woken.Add(1)
			}
			return nil
		})
	}
	waitUntil(t, func() bool { return ev.Waiters() == 2 })

	if prev := ev.Pulse(); prev {
		t.Fatal("Pulse() previous state = true, want false")
	}
	_ = g.Wait()
	if got := woken.Load(); got != 2 {
		t.Fatalf("woken by Pulse = %d, want 2", got)
	}
	if ev.Query().Signaled {
		t.Fatal("event signaled after Pulse")
	}
}

func TestEventCloseAbandonsWaiters(t *testing.T) {
	ev, _ := NewEvent(api.ManualReset, false)
	done := make(chan api.WaitStatus, 1)
	go func() {
		st, _ := ev.Wait(context.Background(), nil, api.Infinite)
		done <- st
	}()
	waitUntil(t, func() bool { return ev.Waiters() == 1 })

	ev.Closed()
	if st := <-done; st != api.WaitAbandoned {
		t.Fatalf("Wait() after Closed = %v, want abandoned", st)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}
