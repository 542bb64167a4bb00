// File: internal/alert/alert.go
// Package alert implements per-thread alert-by-id delivery.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Each registered thread owns one binary pending flag. Any thread of the same
// process may set it; only the owner consumes it, atomically, from an
// alertable wait.

package alert

import (
	"context"
	"sync"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

type slot struct {
	pid     api.ProcessID
	pending bool
	waiter  *waitqueue.Waiter
}

// Table holds the alert state of every live thread.
type Table struct {
	mu    sync.Mutex
	slots map[api.ThreadID]*slot
}

// Ensure the table follows thread lifecycle.
var _ thread.Observer = (*Table)(nil)

// NewTable creates an empty alert table.
func NewTable() *Table {
	return &Table{slots: make(map[api.ThreadID]*slot)}
}

// Init creates the alert slot for t.
func (tb *Table) Init(t *thread.Thread) {
	tb.mu.Lock()
	if _, ok := tb.slots[t.ID()]; !ok {
		tb.slots[t.ID()] = &slot{pid: t.Process()}
	}
	tb.mu.Unlock()
}

// Teardown drops the alert slot for t.
func (tb *Table) Teardown(t *thread.Thread) {
	tb.mu.Lock()
	if s, ok := tb.slots[t.ID()]; ok {
		if s.waiter != nil {
			s.waiter.Grant(api.WaitAbandoned)
		}
		delete(tb.slots, t.ID())
	}
	tb.mu.Unlock()
}

// ThreadStarted implements thread.Observer.
func (tb *Table) ThreadStarted(t *thread.Thread) { tb.Init(t) }

// ThreadExited implements thread.Observer.
func (tb *Table) ThreadExited(t *thread.Thread) { tb.Teardown(t) }

// Alert marks target as alerted on behalf of caller. Setting an already
// pending alert is a no-op. Unknown targets and targets in another process
// fail with api.ErrInvalidTarget.
func (tb *Table) Alert(caller *thread.Thread, target api.ThreadID) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	s, ok := tb.slots[target]
	if target == 0 || !ok {
		return api.ErrInvalidTarget.WithContext("tid", target)
	}
	if caller != nil && caller.Process() != s.pid {
		return api.ErrInvalidTarget.WithContext("tid", target).WithContext("pid", caller.Process())
	}
	if s.waiter != nil && s.waiter.Grant(api.WaitAlerted) {
		s.waiter = nil
		return nil
	}
	s.pending = true
	return nil
}

// Pending reports whether an alert is waiting to be consumed by id.
func (tb *Table) Pending(id api.ThreadID) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	s, ok := tb.slots[id]
	return ok && s.pending
}

// Wait blocks self until its own alert is set or the timeout expires.
// token is accepted for interface compatibility and does not filter alerts.
func (tb *Table) Wait(ctx context.Context, self *thread.Thread, token uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	s, ok := tb.slots[self.ID()]
	if !ok {
		return api.WaitTimeout, api.ErrInvalidTarget.WithContext("tid", self.ID())
	}
	if s.pending {
		s.pending = false
		return api.WaitAlerted, nil
	}

	w := waitqueue.NewWaiter(token)
	s.waiter = w
	st := waitqueue.Block(ctx, &tb.mu, w, timeout, func() {
		if s.waiter == w {
			s.waiter = nil
		}
	})
	return st, nil
}

// Len returns the number of tracked threads.
func (tb *Table) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.slots)
}
