// File: internal/waitqueue/queue.go
// Package waitqueue implements the per-object list of blocked callers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Every waiter is granted, timed out or cancelled under the lock of the object
// that owns the queue, so "consume on wake" transitions are atomic with the
// release of the waiter. Timed-out entries are dropped lazily from the FIFO.

package waitqueue

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-sync/api"
)

type waiterState uint8

const (
	statePending waiterState = iota
	stateGranted
	stateCancelled
)

// Waiter is one blocked caller. Tag carries object-specific data, such as the
// thread that will own a mutant or the class of a resource request.
type Waiter struct {
	Tag   any
	ch    chan api.WaitStatus
	state waiterState
}

// NewWaiter returns a pending waiter.
func NewWaiter(tag any) *Waiter {
	return &Waiter{Tag: tag, ch: make(chan api.WaitStatus, 1)}
}

// Pending reports whether the waiter can still be granted.
// Must be called under the owning object's lock.
func (w *Waiter) Pending() bool {
	return w.state == statePending
}

// Grant releases the waiter with status st. It returns false if the waiter
// already timed out or was granted. Must be called under the owning lock.
func (w *Waiter) Grant(st api.WaitStatus) bool {
	if w.state != statePending {
		return false
	}
	w.state = stateGranted
	w.ch <- st
	return true
}

// Queue is a FIFO of waiters. It is not safe for concurrent use; the owning
// object serialises access with its own lock.
type Queue struct {
	q    *queue.Queue
	live int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Len returns the number of pending waiters.
func (q *Queue) Len() int {
	return q.live
}

// Push appends w to the tail.
func (q *Queue) Push(w *Waiter) {
	q.q.Add(w)
	q.live++
}

// Front returns the oldest pending waiter without removing it, or nil.
func (q *Queue) Front() *Waiter {
	q.trim()
	if q.q.Length() == 0 {
		return nil
	}
	return q.q.Peek().(*Waiter)
}

// Pop removes the oldest pending waiter without granting it.
func (q *Queue) Pop() *Waiter {
	w := q.Front()
	if w == nil {
		return nil
	}
	q.q.Remove()
	q.live--
	return w
}

// WakeOne grants the oldest pending waiter with st and returns it, or nil.
func (q *Queue) WakeOne(st api.WaitStatus) *Waiter {
	w := q.Pop()
	if w != nil {
		w.Grant(st)
	}
	return w
}

// WakeAll grants every pending waiter with st and returns how many were woken.
func (q *Queue) WakeAll(st api.WaitStatus) int {
	n := 0
	for w := q.Pop(); w != nil; w = q.Pop() {
		w.Grant(st)
		n++
	}
	return n
}

// Each visits pending waiters in FIFO order until fn returns false.
func (q *Queue) Each(fn func(*Waiter) bool) {
	for i := 0; i < q.q.Length(); i++ {
		w := q.q.Get(i).(*Waiter)
		if w.state != statePending {
			continue
		}
		if !fn(w) {
			return
		}
	}
}

// trim drops cancelled entries from the head and compacts the ring when
// cancelled entries dominate it.
func (q *Queue) trim() {
	for q.q.Length() > 0 && q.q.Peek().(*Waiter).state != statePending {
		q.q.Remove()
	}
	if n := q.q.Length(); n > 32 && n > 2*q.live {
		fresh := queue.New()
		for i := 0; i < n; i++ {
			if w := q.q.Get(i).(*Waiter); w.state == statePending {
				fresh.Add(w)
			}
		}
		q.q = fresh
	}
}

// Enqueue registers w at the tail of q and blocks until it is granted, the
// timeout expires or ctx is done. mu must be held on entry and is held again
// on return, like sync.Cond.Wait.
func (q *Queue) Enqueue(ctx context.Context, mu sync.Locker, w *Waiter, t api.Timeout) api.WaitStatus {
	q.Push(w)
	return Block(ctx, mu, w, t, func() { q.live-- })
}

// Block suspends the caller on a waiter that is already registered in some
// container. onCancel runs under mu when the waiter times out or is cancelled
// so the container can forget it. mu is held on entry and on return.
func Block(ctx context.Context, mu sync.Locker, w *Waiter, t api.Timeout, onCancel func()) api.WaitStatus {
	now := time.Now()
	if t.Expired(now) {
		w.state = stateCancelled
		if onCancel != nil {
			onCancel()
		}
		return api.WaitTimeout
	}

	var expire <-chan time.Time
	if deadline, ok := t.Deadline(now); ok {
		timer := time.NewTimer(deadline.Sub(now))
		defer timer.Stop()
		expire = timer.C
	}
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}

	mu.Unlock()
	var reason api.WaitStatus
	select {
	case st := <-w.ch:
		mu.Lock()
		return st
	case <-expire:
		reason = api.WaitTimeout
	case <-done:
		reason = api.WaitCancelled
	}
	mu.Lock()

	// A grant that raced with the timer has already consumed object state
	// on our behalf, so it must be reported.
	if w.state == stateGranted {
		return <-w.ch
	}
	w.state = stateCancelled
	if onCancel != nil {
		onCancel()
	}
	return reason
}
