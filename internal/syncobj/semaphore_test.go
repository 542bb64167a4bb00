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

func TestNewSemaphoreValidation(t *testing.T) {
	cases := []struct {
		initial, max int32
		ok           bool
	}{
		{2, 1, false},
		{-1, 1, false},
		{0, 0, false},
		{1, 2, true},
		{0, 1, true},
	}
	for _, c := range cases {
		_, err := NewSemaphore(c.initial, c.max)
		if (err == nil) != c.ok {
			t.Fatalf("NewSemaphore(%d, %d) err = %v, want ok=%v", c.initial, c.max, err, c.ok)
		}
	}
}

func TestSemaphoreReleaseLimits(t *testing.T) {
	s, _ := NewSemaphore(1, 2)
	if info := s.Query(); info.CurrentCount != 1 || info.MaximumCount != 2 {
		t.Fatalf("Query() = %+v, want 1/2", info)
	}
	if st := s.Acquire(context.Background(), api.Poll); st != api.WaitSuccess {
		t.Fatalf("Acquire() = %v, want success", st)
	}

	if _, err := s.Release(3); !errors.Is(err, api.ErrLimitExceeded) {
		t.Fatalf("Release(3) err = %v, want ErrLimitExceeded", err)
	}
	if got := s.Query().CurrentCount; got != 0 {
		t.Fatalf("count after rejected release = %d, want 0", got)
	}
	for _, want := range []uint32{0, 1} {
		prev, err := s.Release(1)
		if err != nil || prev != want {
			t.Fatalf("Release(1) = %d, %v; want %d", prev, err, want)
		}
	}
	if _, err := s.Release(1); !errors.Is(err, api.ErrLimitExceeded) {
		t.Fatalf("Release(1) at max err = %v, want ErrLimitExceeded", err)
	}
	if got := s.Query().CurrentCount; got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	if _, err := s.Release(0); !errors.Is(err, api.ErrInvalidParameter) {
		t.Fatalf("Release(0) err = %v, want ErrInvalidParameter", err)
	}
}

func TestSemaphoreReleaseWakesUpToN(t *testing.T) {
	s, _ := NewSemaphore(0, 10)

	var woken atomic.Int32
	var g errgroup.Group
	for i := 0; i < 3; i++ {
		g.Go(func() error {
			if s.Acquire(context.Background(), api.After(300*time.Millisecond)) == api.WaitSuccess {
				woken.Add(1)
			}
			return nil
		})
	}
	waitUntil(t, func() bool { return s.Waiters() == 3 })

	if prev, err := s.Release(2); err != nil || prev != 0 {
		t.Fatalf("Release(2) = %d, %v; want 0", prev, err)
	}
	_ = g.Wait()
	if got := woken.Load(); got != 2 {
		t.Fatalf("woken = %d, want 2", got)
	}
	if got := s.Query().CurrentCount; got != 0 {
		t.Fatalf("count after handoff = %d, want 0", got)
	}
}

func TestSemaphoreConcurrentReleasesNoLostUpdates(t *testing.T) {
	const releases = 1000
	s, _ := NewSemaphore(0, releases)

	var g errgroup.Group
	for i := 0; i < releases; i++ {
		g.Go(func() error {
			_, err := s.Release(1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Release() err = %v", err)
	}
	if got := s.Query().CurrentCount; got != releases {
		t.Fatalf("count = %d, want %d", got, releases)
	}
	if _, err := s.Release(1); !errors.Is(err, api.ErrLimitExceeded) {
		t.Fatalf("Release() beyond max err = %v, want ErrLimitExceeded", err)
	}
}
