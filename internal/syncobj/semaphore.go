// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncobj

import (
	"context"
	"math"
	"sync"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// Semaphore is a counting signal bounded by a maximum.
type Semaphore struct {
	mu      sync.Mutex
	count   uint32
	max     uint32
	closed  bool
	waiters *waitqueue.Queue
}

// NewSemaphore validates 0 <= initial <= max and 1 <= max.
func NewSemaphore(initial, max int32) (*Semaphore, error) {
	if max <= 0 || initial < 0 || initial > max {
		return nil, api.ErrInvalidParameter.WithContext("initial", initial).WithContext("max", max)
	}
	return &Semaphore{count: uint32(initial), max: uint32(max), waiters: waitqueue.New()}, nil
}

// Kind implements Object.
func (s *Semaphore) Kind() api.ObjectKind { return api.KindSemaphore }

// Acquire takes one unit, blocking while the count is zero.
func (s *Semaphore) Acquire(ctx context.Context, timeout api.Timeout) api.WaitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return api.WaitAbandoned
	}
	if s.count > 0 {
		s.count--
		return api.WaitSuccess
	}
	return s.waiters.Enqueue(ctx, &s.mu, waitqueue.NewWaiter(nil), timeout)
}

// Wait implements Waitable.
func (s *Semaphore) Wait(ctx context.Context, _ *thread.Thread, timeout api.Timeout) (api.WaitStatus, error) {
	return s.Acquire(ctx, timeout), nil
}

// Release adds n units and returns the previous count. A release that would
// exceed the maximum is rejected whole with api.ErrLimitExceeded. Released
// units are handed to waiters in FIFO order.
func (s *Semaphore) Release(n uint32) (uint32, error) {
	if n == 0 || n > math.MaxInt32 {
		return 0, api.ErrInvalidParameter.WithContext("count", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(s.count)+uint64(n) > uint64(s.max) {
		return 0, api.ErrLimitExceeded.WithContext("count", s.count).WithContext("release", n)
	}
	prev := s.count
	s.count += n
	for s.count > 0 && s.waiters.WakeOne(api.WaitSuccess) != nil {
		s.count--
	}
	return prev, nil
}

// Query returns the current and maximum count.
func (s *Semaphore) Query() api.SemaphoreInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return api.SemaphoreInfo{CurrentCount: s.count, MaximumCount: s.max}
}

// Waiters returns the number of blocked callers.
func (s *Semaphore) Waiters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

// Closed implements Object. Later acquires report api.WaitAbandoned.
func (s *Semaphore) Closed() {
	s.mu.Lock()
	s.closed = true
	s.waiters.WakeAll(api.WaitAbandoned)
	s.mu.Unlock()
}
