// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncobj

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// removal is the destination a blocked remover hands to the poster.
type removal struct {
	packet api.CompletionPacket
}

// IoCompletion is a FIFO of completion packets consumed by blocking removers.
// Closing the last reference wakes removers with api.WaitAbandoned.
type IoCompletion struct {
	mu      sync.Mutex
	packets *queue.Queue
	waiters *waitqueue.Queue
	closed  bool
}

// NewIoCompletion creates an empty completion queue.
func NewIoCompletion() *IoCompletion {
	return &IoCompletion{packets: queue.New(), waiters: waitqueue.New()}
}

// Kind implements Object.
func (c *IoCompletion) Kind() api.ObjectKind { return api.KindIoCompletion }

// Post queues p, or hands it directly to the oldest blocked remover.
func (c *IoCompletion) Post(p api.CompletionPacket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrInvalidHandle
	}
	if w := c.waiters.Pop(); w != nil {
		w.Tag.(*removal).packet = p
		w.Grant(api.WaitSuccess)
		return nil
	}
	c.packets.Add(p)
	return nil
}

// Remove dequeues one packet, blocking until one is posted.
func (c *IoCompletion) Remove(ctx context.Context, timeout api.Timeout) (api.CompletionPacket, api.WaitStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.packets.Length() > 0 {
		return c.packets.Remove().(api.CompletionPacket), api.WaitSuccess
	}
	if c.closed {
		return api.CompletionPacket{}, api.WaitAbandoned
	}
	r := &removal{}
	st := c.waiters.Enqueue(ctx, &c.mu, waitqueue.NewWaiter(r), timeout)
	if st != api.WaitSuccess {
		return api.CompletionPacket{}, st
	}
	return r.packet, st
}

// RemoveBatch dequeues up to max packets without blocking when any are
// queued, otherwise blocks for one. count reports the slots consumed: an
// abandoned wait consumes one slot that carries no packet.
func (c *IoCompletion) RemoveBatch(ctx context.Context, max int, timeout api.Timeout) (packets []api.CompletionPacket, count int, st api.WaitStatus, err error) {
	if max < 1 {
		return nil, 0, api.WaitTimeout, api.ErrInvalidParameter.WithContext("max", max)
	}
	c.mu.Lock()
	if n := c.packets.Length(); n > 0 {
		if n > max {
			n = max
		}
		packets = make([]api.CompletionPacket, 0, n)
		for i := 0; i < n; i++ {
			packets = append(packets, c.packets.Remove().(api.CompletionPacket))
		}
		c.mu.Unlock()
		return packets, n, api.WaitSuccess, nil
	}
	c.mu.Unlock()

	p, st := c.Remove(ctx, timeout)
	switch st {
	case api.WaitSuccess:
		return []api.CompletionPacket{p}, 1, st, nil
	case api.WaitAbandoned:
		return nil, 1, st, nil
	default:
		return nil, 0, st, nil
	}
}

// Len returns the number of queued packets.
func (c *IoCompletion) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.packets.Length()
}

// Waiters returns the number of blocked removers.
func (c *IoCompletion) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiters.Len()
}

// Closed implements Object.
func (c *IoCompletion) Closed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.waiters.WakeAll(api.WaitAbandoned)
	c.packets = queue.New()
}
