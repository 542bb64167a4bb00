// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncobj

import (
	"context"
	"sync"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// Event is a boolean signal with manual or automatic reset.
type Event struct {
	mu       sync.Mutex
	mode     api.ResetMode
	signaled bool
	closed   bool
	waiters  *waitqueue.Queue
}

// NewEvent creates an event. Unknown reset modes are rejected.
func NewEvent(mode api.ResetMode, initial bool) (*Event, error) {
	if !mode.Valid() {
		return nil, api.ErrInvalidParameter.WithContext("mode", mode)
	}
	return &Event{mode: mode, signaled: initial, waiters: waitqueue.New()}, nil
}

// Kind implements Object.
func (e *Event) Kind() api.ObjectKind { return api.KindEvent }

// Set signals the event and returns the previous state. A manual event wakes
// every waiter and stays signaled; an auto event hands the signal to exactly
// one waiter, staying signaled only if nobody was waiting.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.signaled
	if e.mode == api.ManualReset {
		e.signaled = true
		e.waiters.WakeAll(api.WaitSuccess)
		return prev
	}
	if e.waiters.WakeOne(api.WaitSuccess) == nil {
		e.signaled = true
	}
	return prev
}

// Reset clears the event and returns the previous state.
func (e *Event) Reset() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.signaled
	e.signaled = false
	return prev
}

// Pulse releases the current waiters (all for manual, at most one for auto)
// and leaves the event unsignaled. It returns the previous state.
func (e *Event) Pulse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.signaled
	if e.mode == api.ManualReset {
		e.waiters.WakeAll(api.WaitSuccess)
	} else {
		e.waiters.WakeOne(api.WaitSuccess)
	}
	e.signaled = false
	return prev
}

// Query returns the reset mode and current state.
func (e *Event) Query() api.EventInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return api.EventInfo{Mode: e.mode, Signaled: e.signaled}
}

// Wait blocks until the event is signaled. Consuming an auto event clears it
// in the same critical section.
func (e *Event) Wait(ctx context.Context, _ *thread.Thread, timeout api.Timeout) (api.WaitStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return api.WaitAbandoned, nil
	}
	if e.signaled {
		if e.mode == api.AutoReset {
			e.signaled = false
		}
		return api.WaitSuccess, nil
	}
	return e.waiters.Enqueue(ctx, &e.mu, waitqueue.NewWaiter(nil), timeout), nil
}

// Waiters returns the number of blocked callers.
func (e *Event) Waiters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waiters.Len()
}

// Closed implements Object. Later waits report api.WaitAbandoned.
func (e *Event) Closed() {
	e.mu.Lock()
	e.closed = true
	e.waiters.WakeAll(api.WaitAbandoned)
	e.mu.Unlock()
}
