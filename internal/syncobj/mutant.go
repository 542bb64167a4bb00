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

// Mutant is a recursive single-owner lock with abandonment tracking.
//
// abandoned is the flag reported by Query. It is raised when the owner
// exits while holding the lock, survives the acquisition that reports the
// abandonment, and is cleared by the next fresh acquisition.
type Mutant struct {
	mu            sync.Mutex
	owner         *thread.Thread
	recursion     uint32
	abandoned     bool
	reportAbandon bool
	closed        bool
	waiters       *waitqueue.Queue
}

// NewMutant creates a mutant, owned once by initialOwner when non-nil.
func NewMutant(initialOwner *thread.Thread) *Mutant {
	m := &Mutant{waiters: waitqueue.New()}
	if initialOwner != nil {
		m.mu.Lock()
		m.take(initialOwner)
		m.mu.Unlock()
	}
	return m
}

// Kind implements Object.
func (m *Mutant) Kind() api.ObjectKind { return api.KindMutant }

// Acquire takes ownership for caller, recursively if it already owns the
// mutant. The returned status is WaitAbandoned when ownership was inherited
// from a thread that exited while holding it.
func (m *Mutant) Acquire(ctx context.Context, caller *thread.Thread, timeout api.Timeout) (api.WaitStatus, error) {
	if caller == nil {
		return api.WaitTimeout, api.ErrInvalidParameter
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return api.WaitAbandoned, nil
	}
	switch m.owner {
	case nil:
		st, ok := m.take(caller)
		if !ok {
			return api.WaitTimeout, api.ErrInvalidTarget.WithContext("tid", caller.ID())
		}
		return st, nil
	case caller:
		if m.recursion == math.MaxInt32 {
			return api.WaitTimeout, api.ErrLimitExceeded.WithContext("recursion", m.recursion)
		}
		m.recursion++
		return api.WaitSuccess, nil
	}
	return m.waiters.Enqueue(ctx, &m.mu, waitqueue.NewWaiter(caller), timeout), nil
}

// Wait implements Waitable.
func (m *Mutant) Wait(ctx context.Context, caller *thread.Thread, timeout api.Timeout) (api.WaitStatus, error) {
	return m.Acquire(ctx, caller, timeout)
}

// Release drops one level of caller's ownership and returns the count before
// the release (1 minus the recursion depth). At depth zero the oldest waiter
// becomes the owner. Non-owners fail with api.ErrMutantNotOwned.
func (m *Mutant) Release(caller *thread.Thread) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller == nil || m.owner != caller {
		return 0, api.ErrMutantNotOwned
	}
	prev := 1 - int32(m.recursion)
	m.recursion--
	if m.recursion == 0 {
		m.owner = nil
		caller.Drop(m)
		m.handoff()
	}
	return prev, nil
}

// Query reports the count, caller ownership and abandoned flag.
func (m *Mutant) Query(caller *thread.Thread) api.MutantInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return api.MutantInfo{
		CurrentCount:  1 - int32(m.recursion),
		OwnedByCaller: m.owner != nil && m.owner == caller,
		Abandoned:     m.abandoned,
	}
}

// Owner returns the current owner, or nil.
func (m *Mutant) Owner() *thread.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// Abandon implements thread.Abandonable: t exited while owning the mutant.
func (m *Mutant) Abandon(t *thread.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != t {
		return
	}
	m.markAbandoned()
	m.handoff()
}

// Waiters returns the number of blocked callers.
func (m *Mutant) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiters.Len()
}

// Closed implements Object. Pending and later waits report
// api.WaitAbandoned without granting ownership.
func (m *Mutant) Closed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.waiters.WakeAll(api.WaitAbandoned)
	if m.owner != nil {
		m.owner.Drop(m)
	}
}

func (m *Mutant) markAbandoned() {
	m.owner = nil
	m.recursion = 0
	m.abandoned = true
	m.reportAbandon = true
}

// take makes t the owner at depth one and returns the status the acquirer
// sees. It reports false, leaving the mutant untouched, if t has exited.
func (m *Mutant) take(t *thread.Thread) (api.WaitStatus, bool) {
	if !t.Hold(m) {
		return api.WaitCancelled, false
	}
	st := api.WaitSuccess
	if m.reportAbandon {
		st = api.WaitAbandoned
		m.reportAbandon = false
	} else {
		m.abandoned = false
	}
	m.owner = t
	m.recursion = 1
	return st, true
}

// handoff passes a free mutant to the oldest live waiter. Waiters whose
// thread exited while queued are released with api.WaitCancelled.
func (m *Mutant) handoff() {
	for m.owner == nil {
		w := m.waiters.Pop()
		if w == nil {
			return
		}
		st, ok := m.take(w.Tag.(*thread.Thread))
		if !ok {
			w.Grant(api.WaitCancelled)
			continue
		}
		w.Grant(st)
	}
}
