// File: internal/resource/resource.go
// Package resource implements the shared/exclusive resource lock.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The lock lives in caller memory and has no handle. The zero value is an
// unlocked lock. A thread holding the lock exclusively may re-acquire it in
// either mode; each successful acquire must be balanced by one Release.
//
// Wake policy on the transition to free: one queued exclusive waiter wins if
// present, otherwise every queued shared waiter is admitted together. New
// shared requests are granted while the lock is shared even when an
// exclusive waiter is queued, so writers may starve.

package resource

import (
	"context"
	"sync"

	"github.com/gammazero/deque"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// State is the coarse hold state reported by IsAcquired.
type State uint8

const (
	Free State = iota
	Shared
	Exclusive
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// Lock is a reader/writer lock with exclusive-owner reentrancy.
type Lock struct {
	mu     sync.Mutex
	shared uint32
	owner  *thread.Thread
	depth  uint32

	sharedWaiters    deque.Deque[*waitqueue.Waiter]
	exclusiveWaiters deque.Deque[*waitqueue.Waiter]
}

// AcquireShared takes a shared hold. With wait=false it returns false on
// conflict; with wait=true it blocks until the hold is granted.
func (l *Lock) AcquireShared(caller *thread.Thread, wait bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.owner == nil:
		l.shared++
		return true
	case l.owner == caller:
		// Tracked in the exclusive depth; released by the same count.
		l.depth++
		return true
	case !wait:
		return false
	}
	return l.block(&l.sharedWaiters, caller)
}

// AcquireExclusive takes an exclusive hold, nesting if caller already owns it.
func (l *Lock) AcquireExclusive(caller *thread.Thread, wait bool) bool {
	if caller == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.owner == nil && l.shared == 0:
		l.owner, l.depth = caller, 1
		return true
	case l.owner == caller:
		l.depth++
		return true
	case !wait:
		return false
	}
	return l.block(&l.exclusiveWaiters, caller)
}

func (l *Lock) block(list *deque.Deque[*waitqueue.Waiter], caller *thread.Thread) bool {
	w := waitqueue.NewWaiter(caller)
	list.PushBack(w)
	st := waitqueue.Block(context.Background(), &l.mu, w, api.Infinite, func() {
		if i := list.Index(func(x *waitqueue.Waiter) bool { return x == w }); i >= 0 {
			list.Remove(i)
		}
	})
	return st == api.WaitSuccess
}

// Release drops one hold of whichever kind is current. Releasing a free lock
// fails with api.ErrInvalidParameter and changes nothing.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.depth > 0:
		l.depth--
		if l.depth == 0 {
			l.owner = nil
		}
	case l.shared > 0:
		l.shared--
	default:
		return api.ErrInvalidParameter.WithContext("resource", "not held")
	}
	if l.owner == nil && l.shared == 0 {
		l.wake()
	}
	return nil
}

// wake hands a free lock to the next exclusive waiter, or else to every
// shared waiter. Must be called with l.mu held.
func (l *Lock) wake() {
	if l.exclusiveWaiters.Len() > 0 {
		w := l.exclusiveWaiters.PopFront()
		l.owner, l.depth = w.Tag.(*thread.Thread), 1
		w.Grant(api.WaitSuccess)
		return
	}
	for l.sharedWaiters.Len() > 0 {
		l.shared++
		l.sharedWaiters.PopFront().Grant(api.WaitSuccess)
	}
}

// IsAcquired reports the current hold state.
func (l *Lock) IsAcquired() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.owner != nil:
		return Exclusive
	case l.shared > 0:
		return Shared
	default:
		return Free
	}
}

// Owner returns the exclusive owner, or nil.
func (l *Lock) Owner() *thread.Thread {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// Waiters returns the number of queued shared and exclusive requests.
func (l *Lock) Waiters() (shared, exclusive int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sharedWaiters.Len(), l.exclusiveWaiters.Len()
}
