// File: internal/addrwait/addrwait.go
// Package addrwait implements address-keyed wait/wake without a backing object.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Waiters hash into a fixed set of cache-line padded buckets. The value
// comparison happens under the bucket lock, and wakers take the same lock, so
// a store followed by a wake can never be lost between check and sleep.
// Spurious wakeups are allowed: callers re-check the value and loop.

package addrwait

import (
	"context"
	"sync"
	"unsafe"

	"github.com/gammazero/deque"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/waitqueue"
)

// DefaultBuckets is used when New is given a non-positive bucket count.
const DefaultBuckets = 256

type entry struct {
	addr uintptr
	w    *waitqueue.Waiter
}

type bucket struct {
	mu      sync.Mutex
	waiters deque.Deque[*entry]
	_       cpu.CacheLinePad
}

// Table is a hashed set of address wait queues.
type Table struct {
	buckets []bucket
	mask    uintptr
}

// New creates a table with n buckets rounded up to a power of two.
func New(n int) *Table {
	if n <= 0 {
		n = DefaultBuckets
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &Table{buckets: make([]bucket, size), mask: uintptr(size - 1)}
}

func (t *Table) bucket(addr uintptr) *bucket {
	// Fibonacci hashing; the low bits of an address are mostly alignment.
	h := uint64(addr>>2) * 0x9E3779B97F4A7C15
	return &t.buckets[uintptr(h>>16)&t.mask]
}

// ValidSize reports whether size is an accepted comparison width.
func ValidSize(size uintptr) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// Wait blocks while the size-byte value at addr equals the one at compare.
// It returns WaitSuccess immediately when the values differ, WaitSuccess on
// a matching wake, WaitTimeout when the bound expires and WaitCancelled when
// ctx is done.
func (t *Table) Wait(ctx context.Context, addr, compare unsafe.Pointer, size uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	if !ValidSize(size) {
		return api.WaitTimeout, api.ErrInvalidParameter.WithContext("size", size)
	}
	if addr == nil || compare == nil {
		return api.WaitTimeout, api.ErrInvalidParameter
	}

	b := t.bucket(uintptr(addr))
	b.mu.Lock()
	defer b.mu.Unlock()

	if loadValue(addr, size) != loadBytes(compare, size) {
		return api.WaitSuccess, nil
	}

	e := &entry{addr: uintptr(addr), w: waitqueue.NewWaiter(nil)}
	b.waiters.PushBack(e)
	st := waitqueue.Block(ctx, &b.mu, e.w, timeout, func() {
		if i := b.waiters.Index(func(x *entry) bool { return x == e }); i >= 0 {
			b.waiters.Remove(i)
		}
	})
	return st, nil
}

// WakeSingle releases the oldest waiter on addr. No waiter, or a nil
// address, makes it a no-op.
func (t *Table) WakeSingle(addr unsafe.Pointer) {
	t.wake(addr, 1)
}

// WakeAll releases every waiter on addr.
func (t *Table) WakeAll(addr unsafe.Pointer) {
	t.wake(addr, -1)
}

func (t *Table) wake(addr unsafe.Pointer, n int) int {
	if addr == nil {
		return 0
	}
	key := uintptr(addr)
	b := t.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	woken := 0
	for i := 0; i < b.waiters.Len() && n != 0; {
		e := b.waiters.At(i)
		if e.addr != key {
			i++
			continue
		}
		b.waiters.Remove(i)
		if e.w.Grant(api.WaitSuccess) {
			woken++
			n--
		}
	}
	return woken
}

// Waiters returns the number of callers blocked on addr.
func (t *Table) Waiters(addr unsafe.Pointer) int {
	key := uintptr(addr)
	b := t.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := 0; i < b.waiters.Len(); i++ {
		if b.waiters.At(i).addr == key {
			n++
		}
	}
	return n
}

// loadValue reads size bytes at p as a native-order integer, atomically
// whenever the access fits one aligned word.
func loadValue(p unsafe.Pointer, size uintptr) uint64 {
	a := uintptr(p)
	switch size {
	case 8:
		if a%8 == 0 {
			return atomic64(p)
		}
	case 4:
		if a%4 == 0 {
			return uint64(atomic32(p))
		}
	case 1, 2:
		off := a % 4
		if off+size <= 4 {
			word := atomic32(unsafe.Add(p, -int(off)))
			shift := off * 8
			if cpu.IsBigEndian {
				shift = (4 - off - size) * 8
			}
			return uint64(word>>shift) & (1<<(size*8) - 1)
		}
	}
	return loadBytes(p, size)
}

// loadBytes composes size bytes at p into a native-order integer.
func loadBytes(p unsafe.Pointer, size uintptr) uint64 {
	b := unsafe.Slice((*byte)(p), size)
	var v uint64
	if cpu.IsBigEndian {
		for i := 0; i < len(b); i++ {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
