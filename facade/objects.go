// File: facade/objects.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle-based operations on events, mutants, semaphores, keyed events and
// I/O completion queues.

package facade

import (
	"context"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/syncobj"
)

// resolve fetches the object behind h as T, checking kind and rights.
func resolve[T api.Object](k *Kernel, h api.Handle, kind api.ObjectKind, need api.AccessMask) (T, error) {
	var zero T
	obj, err := k.objects.Resolve(h, kind, need)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, api.ErrObjectTypeMismatch.WithContext("handle", h)
	}
	return t, nil
}

// CreateEvent creates or opens an event. An empty name creates an unnamed one.
func (k *Kernel) CreateEvent(name string, access api.AccessMask, mode api.ResetMode, initial bool) (api.Handle, error) {
	return k.create(name, api.KindEvent, access, func() (api.Object, error) {
		return syncobj.NewEvent(mode, initial)
	})
}

// OpenEvent opens a named event.
func (k *Kernel) OpenEvent(name string, access api.AccessMask) (api.Handle, error) {
	return k.open(name, api.KindEvent, access)
}

// SetEvent signals the event and returns its previous state.
func (k *Kernel) SetEvent(h api.Handle) (bool, error) {
	ev, err := resolve[*syncobj.Event](k, h, api.KindEvent, api.EventModifyState)
	if err != nil {
		return false, err
	}
	return ev.Set(), nil
}

// ResetEvent clears the event and returns its previous state.
func (k *Kernel) ResetEvent(h api.Handle) (bool, error) {
	ev, err := resolve[*syncobj.Event](k, h, api.KindEvent, api.EventModifyState)
	if err != nil {
		return false, err
	}
	return ev.Reset(), nil
}

// PulseEvent releases current waiters and leaves the event clear.
func (k *Kernel) PulseEvent(h api.Handle) (bool, error) {
	ev, err := resolve[*syncobj.Event](k, h, api.KindEvent, api.EventModifyState)
	if err != nil {
		return false, err
	}
	return ev.Pulse(), nil
}

// QueryEvent reports the reset mode and signal state.
func (k *Kernel) QueryEvent(h api.Handle) (api.EventInfo, error) {
	ev, err := resolve[*syncobj.Event](k, h, api.KindEvent, api.EventQueryState)
	if err != nil {
		return api.EventInfo{}, err
	}
	return ev.Query(), nil
}

// CreateMutant creates or opens a mutant. initialOwner grants the new
// mutant to caller; it is ignored when an existing mutant is opened.
func (k *Kernel) CreateMutant(caller *Thread, name string, access api.AccessMask, initialOwner bool) (api.Handle, error) {
	if initialOwner && caller == nil {
		return 0, api.ErrInvalidParameter.WithContext("initialOwner", "no caller thread")
	}
	return k.create(name, api.KindMutant, access, func() (api.Object, error) {
		if initialOwner {
			return syncobj.NewMutant(caller), nil
		}
		return syncobj.NewMutant(nil), nil
	})
}

// OpenMutant opens a named mutant.
func (k *Kernel) OpenMutant(name string, access api.AccessMask) (api.Handle, error) {
	return k.open(name, api.KindMutant, access)
}

// ReleaseMutant drops one level of caller's ownership and returns the count
// before the release.
func (k *Kernel) ReleaseMutant(caller *Thread, h api.Handle) (int32, error) {
	m, err := resolve[*syncobj.Mutant](k, h, api.KindMutant, 0)
	if err != nil {
		return 0, err
	}
	return m.Release(caller)
}

// QueryMutant reports the count, ownership and abandoned flag seen by caller.
func (k *Kernel) QueryMutant(caller *Thread, h api.Handle) (api.MutantInfo, error) {
	m, err := resolve[*syncobj.Mutant](k, h, api.KindMutant, api.MutantQueryState)
	if err != nil {
		return api.MutantInfo{}, err
	}
	return m.Query(caller), nil
}

// CreateSemaphore creates or opens a counting semaphore.
func (k *Kernel) CreateSemaphore(name string, access api.AccessMask, initial, max int32) (api.Handle, error) {
	return k.create(name, api.KindSemaphore, access, func() (api.Object, error) {
		return syncobj.NewSemaphore(initial, max)
	})
}

// OpenSemaphore opens a named semaphore.
func (k *Kernel) OpenSemaphore(name string, access api.AccessMask) (api.Handle, error) {
	return k.open(name, api.KindSemaphore, access)
}

// ReleaseSemaphore adds n units and returns the count before the release.
func (k *Kernel) ReleaseSemaphore(h api.Handle, n uint32) (uint32, error) {
	s, err := resolve[*syncobj.Semaphore](k, h, api.KindSemaphore, api.SemaphoreModifyState)
	if err != nil {
		return 0, err
	}
	return s.Release(n)
}

// QuerySemaphore reports the current and maximum counts.
func (k *Kernel) QuerySemaphore(h api.Handle) (api.SemaphoreInfo, error) {
	s, err := resolve[*syncobj.Semaphore](k, h, api.KindSemaphore, api.SemaphoreQueryState)
	if err != nil {
		return api.SemaphoreInfo{}, err
	}
	return s.Query(), nil
}

// CreateKeyedEvent creates or opens a keyed event.
func (k *Kernel) CreateKeyedEvent(name string, access api.AccessMask) (api.Handle, error) {
	return k.create(name, api.KindKeyedEvent, access, func() (api.Object, error) {
		return syncobj.NewKeyedEvent(), nil
	})
}

// OpenKeyedEvent opens a named keyed event.
func (k *Kernel) OpenKeyedEvent(name string, access api.AccessMask) (api.Handle, error) {
	return k.open(name, api.KindKeyedEvent, access)
}

// WaitForKeyedEvent blocks until a release with the same key arrives on h.
// The zero handle selects the default keyed event.
func (k *Kernel) WaitForKeyedEvent(ctx context.Context, h api.Handle, key uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	ke, err := k.keyedEvent(h, key, api.KeyedEventWait)
	if err != nil {
		return api.WaitTimeout, err
	}
	st, err := ke.WaitKey(ctx, key, timeout)
	if err == nil {
		k.recordWait(st)
	}
	return st, err
}

// ReleaseKeyedEvent blocks until a wait with the same key arrives on h.
// The zero handle selects the default keyed event.
func (k *Kernel) ReleaseKeyedEvent(ctx context.Context, h api.Handle, key uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	ke, err := k.keyedEvent(h, key, api.KeyedEventWake)
	if err != nil {
		return api.WaitTimeout, err
	}
	st, err := ke.Release(ctx, key, timeout)
	if err == nil {
		k.recordWait(st)
	}
	return st, err
}

// keyedEvent validates key before the handle, then checks the access right.
func (k *Kernel) keyedEvent(h api.Handle, key uintptr, need api.AccessMask) (*syncobj.KeyedEvent, error) {
	if !syncobj.ValidKey(key) {
		return nil, api.ErrInvalidParameter1.WithContext("key", key)
	}
	if h == 0 {
		return k.keyed, nil
	}
	return resolve[*syncobj.KeyedEvent](k, h, api.KindKeyedEvent, need)
}

// CreateIoCompletion creates or opens an I/O completion queue.
func (k *Kernel) CreateIoCompletion(name string, access api.AccessMask) (api.Handle, error) {
	return k.create(name, api.KindIoCompletion, access, func() (api.Object, error) {
		return syncobj.NewIoCompletion(), nil
	})
}

// SetIoCompletion posts one packet.
func (k *Kernel) SetIoCompletion(h api.Handle, key, value uintptr, status api.Status, information uintptr) error {
	c, err := resolve[*syncobj.IoCompletion](k, h, api.KindIoCompletion, api.IoCompletionModifyState)
	if err != nil {
		return err
	}
	return c.Post(api.CompletionPacket{Key: key, Value: value, Status: status, Information: information})
}

// RemoveIoCompletion dequeues one packet, blocking until one is posted.
func (k *Kernel) RemoveIoCompletion(ctx context.Context, h api.Handle, timeout api.Timeout) (api.CompletionPacket, api.WaitStatus, error) {
	c, err := resolve[*syncobj.IoCompletion](k, h, api.KindIoCompletion, api.IoCompletionModifyState)
	if err != nil {
		return api.CompletionPacket{}, api.WaitTimeout, err
	}
	p, st := c.Remove(ctx, timeout)
	k.recordWait(st)
	return p, st, nil
}

// RemoveIoCompletionEx dequeues up to max packets. count is 1 when the wait
// was abandoned, even though no packet is returned.
func (k *Kernel) RemoveIoCompletionEx(ctx context.Context, h api.Handle, max int, timeout api.Timeout) ([]api.CompletionPacket, int, api.WaitStatus, error) {
	c, err := resolve[*syncobj.IoCompletion](k, h, api.KindIoCompletion, api.IoCompletionModifyState)
	if err != nil {
		return nil, 0, api.WaitTimeout, err
	}
	packets, n, st, err := c.RemoveBatch(ctx, max, timeout)
	if err == nil {
		k.recordWait(st)
	}
	return packets, n, st, err
}

// QueryIoCompletion returns the number of queued packets.
func (k *Kernel) QueryIoCompletion(h api.Handle) (int, error) {
	c, err := resolve[*syncobj.IoCompletion](k, h, api.KindIoCompletion, api.IoCompletionQueryState)
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}
