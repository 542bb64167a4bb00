// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncobj

import (
	"context"
	"sync"

	"github.com/gammazero/deque"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// ValidKey reports whether key can be used with a keyed event. Bit zero is
// reserved, so odd keys are rejected.
func ValidKey(key uintptr) bool {
	return key&1 == 0
}

type rendezvousSide struct {
	key     uintptr
	release bool
}

// KeyedEvent pairs one waiter with one releaser per key. Whichever side
// arrives second completes at once and releases the other; the first side
// blocks until matched or timed out.
type KeyedEvent struct {
	mu      sync.Mutex
	closed  bool
	pending map[rendezvousSide]*deque.Deque[*waitqueue.Waiter]
}

// NewKeyedEvent creates an empty keyed event.
func NewKeyedEvent() *KeyedEvent {
	return &KeyedEvent{pending: make(map[rendezvousSide]*deque.Deque[*waitqueue.Waiter])}
}

// Kind implements Object.
func (k *KeyedEvent) Kind() api.ObjectKind { return api.KindKeyedEvent }

// WaitKey blocks until a Release with the same key arrives.
func (k *KeyedEvent) WaitKey(ctx context.Context, key uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	return k.rendezvous(ctx, key, false, timeout)
}

// Release blocks until a WaitKey with the same key arrives.
func (k *KeyedEvent) Release(ctx context.Context, key uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	return k.rendezvous(ctx, key, true, timeout)
}

// Wait implements Waitable. A keyed event is always signaled for generic waits.
func (k *KeyedEvent) Wait(context.Context, *thread.Thread, api.Timeout) (api.WaitStatus, error) {
	return api.WaitSuccess, nil
}

// Pending returns how many callers of the given side are blocked on key.
func (k *KeyedEvent) Pending(key uintptr, release bool) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if q, ok := k.pending[rendezvousSide{key, release}]; ok {
		return q.Len()
	}
	return 0
}

func (k *KeyedEvent) rendezvous(ctx context.Context, key uintptr, release bool, timeout api.Timeout) (api.WaitStatus, error) {
	if !ValidKey(key) {
		return api.WaitTimeout, api.ErrInvalidParameter1.WithContext("key", key)
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return api.WaitAbandoned, nil
	}
	other := rendezvousSide{key, !release}
	if q, ok := k.pending[other]; ok {
		for q.Len() > 0 {
			if q.PopFront().Grant(api.WaitSuccess) {
				k.forget(other, q)
				return api.WaitSuccess, nil
			}
		}
		k.forget(other, q)
	}

	self := rendezvousSide{key, release}
	q, ok := k.pending[self]
	if !ok {
		q = new(deque.Deque[*waitqueue.Waiter])
		k.pending[self] = q
	}
	w := waitqueue.NewWaiter(key)
	q.PushBack(w)
	st := waitqueue.Block(ctx, &k.mu, w, timeout, func() {
		if i := q.Index(func(x *waitqueue.Waiter) bool { return x == w }); i >= 0 {
			q.Remove(i)
		}
		k.forget(self, q)
	})
	return st, nil
}

// forget drops an empty per-key list so idle keys do not accumulate.
func (k *KeyedEvent) forget(side rendezvousSide, q *deque.Deque[*waitqueue.Waiter]) {
	if q.Len() == 0 && k.pending[side] == q {
		delete(k.pending, side)
	}
}

// Closed implements Object. Later rendezvous report api.WaitAbandoned.
func (k *KeyedEvent) Closed() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	for side, q := range k.pending {
		for q.Len() > 0 {
			q.PopFront().Grant(api.WaitAbandoned)
		}
		delete(k.pending, side)
	}
}
