// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Hot-reload hooks for config changes.

package control

import "sync"

// ReloadHooks is an ordered set of component reload listeners.
type ReloadHooks struct {
	mu    sync.Mutex
	hooks []func()
}

// NewReloadHooks creates an empty hook set.
func NewReloadHooks() *ReloadHooks {
	return &ReloadHooks{}
}

// Register adds a new component reload listener.
func (r *ReloadHooks) Register(fn func()) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

func (r *ReloadHooks) snapshot() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]func(){}, r.hooks...)
}

// TriggerSync invokes all reload hooks synchronously, in registration order.
func (r *ReloadHooks) TriggerSync() {
	for _, fn := range r.snapshot() {
		fn()
	}
}
