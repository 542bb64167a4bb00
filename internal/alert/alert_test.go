package alert_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/alert"
	"github.com/momentics/hioload-sync/internal/thread"
)

func newEnv() (*alert.Table, *thread.Registry) {
	tb := alert.NewTable()
	return tb, thread.NewRegistry(tb)
}

func TestAlertSelfThenConsume(t *testing.T) {
	tb, reg := newEnv()
	self := reg.Spawn(1)

	if st, err := tb.Wait(context.Background(), self, 0x123, api.Poll); err != nil || st != api.WaitTimeout {
		t.Fatalf("Wait() = %v, %v; want timeout", st, err)
	}

	if err := tb.Alert(self, 0); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("Alert(0) err = %v, want ErrInvalidTarget", err)
	}
	if err := tb.Alert(self, 0xdeadbeef); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("Alert(0xdeadbeef) err = %v, want ErrInvalidTarget", err)
	}

	for i := 0; i < 2; i++ {
		if err := tb.Alert(self, self.ID()); err != nil {
			t.Fatalf("Alert(self) #%d err = %v", i, err)
		}
	}

	if st, _ := tb.Wait(context.Background(), self, 0x123, api.Poll); st != api.WaitAlerted {
		t.Fatalf("Wait() = %v, want alerted", st)
	}
	if st, _ := tb.Wait(context.Background(), self, 0x123, api.Poll); st != api.WaitTimeout {
		t.Fatalf("second Wait() = %v, want timeout", st)
	}
	if st, _ := tb.Wait(context.Background(), self, 0x321, api.Poll); st != api.WaitTimeout {
		t.Fatalf("Wait() with other token = %v, want timeout", st)
	}
}

func TestAlertFromOtherThreadWakesWaiter(t *testing.T) {
	tb, reg := newEnv()
	target := reg.Spawn(1)
	helper := reg.Spawn(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		if err := tb.Alert(helper, target.ID()); err != nil {
			t.Errorf("Alert() err = %v", err)
		}
	}()

	st, err := tb.Wait(context.Background(), target, 0x123, api.After(time.Second))
	if err != nil || st != api.WaitAlerted {
		t.Fatalf("Wait() = %v, %v; want alerted", st, err)
	}
	if tb.Pending(target.ID()) {
		t.Fatal("Pending() after consumed alert = true, want false")
	}
}

func TestAlertTokenDoesNotFilter(t *testing.T) {
	tb, reg := newEnv()
	self := reg.Spawn(1)

	if err := tb.Alert(self, self.ID()); err != nil {
		t.Fatalf("Alert() err = %v", err)
	}
	if st, _ := tb.Wait(context.Background(), self, 0x999, api.Poll); st != api.WaitAlerted {
		t.Fatalf("Wait() = %v, want alerted regardless of token", st)
	}
}

func TestAlertAcrossProcessesIsRejected(t *testing.T) {
	tb, reg := newEnv()
	local := reg.Spawn(1)
	remote := reg.Spawn(2)

	if err := tb.Alert(local, remote.ID()); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("Alert(remote) err = %v, want ErrInvalidTarget", err)
	}
	if tb.Pending(remote.ID()) {
		t.Fatal("rejected alert left pending flag set")
	}
}

func TestExitedThreadIsInvalidTarget(t *testing.T) {
	tb, reg := newEnv()
	a := reg.Spawn(1)
	b := reg.Spawn(1)
	b.Exit()

	if err := tb.Alert(a, b.ID()); !errors.Is(err, api.ErrInvalidTarget) {
		t.Fatalf("Alert(exited) err = %v, want ErrInvalidTarget", err)
	}
	if tb.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tb.Len())
	}
}
