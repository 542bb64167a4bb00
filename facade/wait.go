// File: facade/wait.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic single-object waits, thread alerts and address waits.

package facade

import (
	"context"
	"unsafe"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/logging"
	"github.com/momentics/hioload-sync/internal/syncobj"
)

// WaitForSingleObject waits until the object behind h is signaled for
// caller. The handle needs SYNCHRONIZE. Keyed events are always signaled;
// I/O completion queues cannot be waited on this way.
func (k *Kernel) WaitForSingleObject(ctx context.Context, caller *Thread, h api.Handle, timeout api.Timeout) (api.WaitStatus, error) {
	obj, err := k.objects.Resolve(h, api.KindUnknown, api.Synchronize)
	if err != nil {
		return api.WaitTimeout, err
	}
	w, ok := obj.(syncobj.Waitable)
	if !ok {
		return api.WaitTimeout, api.ErrObjectTypeMismatch.WithContext("handle", h).WithContext("kind", obj.Kind())
	}
	st, err := w.Wait(ctx, caller, timeout)
	if err != nil {
		return st, err
	}
	k.recordWait(st)
	if st == api.WaitAbandoned {
		if m, ok := obj.(*syncobj.Mutant); ok && caller != nil && m.Owner() == caller {
			logging.Warn("abandoned mutant acquired", "handle", h, "tid", caller.ID())
		}
	}
	return st, nil
}

// AlertThreadByID sets the pending alert of thread target on behalf of
// caller. Unknown targets and targets in another process fail with
// api.ErrInvalidTarget.
func (k *Kernel) AlertThreadByID(caller *Thread, target api.ThreadID) error {
	if err := k.alerts.Alert(caller, target); err != nil {
		logging.Warn("alert rejected", "tid", target, "err", err)
		return err
	}
	k.count(MetricAlerts)
	return nil
}

// WaitForAlertByThreadID blocks caller until its own alert is set, then
// consumes it. token is accepted for compatibility and does not filter.
func (k *Kernel) WaitForAlertByThreadID(ctx context.Context, caller *Thread, token uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	if caller == nil {
		return api.WaitTimeout, api.ErrInvalidParameter.WithContext("caller", nil)
	}
	st, err := k.alerts.Wait(ctx, caller, token, timeout)
	if err == nil {
		k.recordWait(st)
	}
	return st, err
}

// WaitOnAddress blocks while the size-byte value at addr equals the value at
// compare. It returns immediately with success when they already differ.
func (k *Kernel) WaitOnAddress(ctx context.Context, addr, compare unsafe.Pointer, size uintptr, timeout api.Timeout) (api.WaitStatus, error) {
	st, err := k.addr.Wait(ctx, addr, compare, size, timeout)
	if err == nil {
		k.recordWait(st)
	}
	return st, err
}

// WakeAddressSingle wakes the oldest waiter on addr, if any.
func (k *Kernel) WakeAddressSingle(addr unsafe.Pointer) {
	k.addr.WakeSingle(addr)
}

// WakeAddressAll wakes every waiter on addr.
func (k *Kernel) WakeAddressAll(addr unsafe.Pointer) {
	k.addr.WakeAll(addr)
}
