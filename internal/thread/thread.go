// File: internal/thread/thread.go
// Package thread tracks the threads that call into the synchronization core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Thread is the identity used for mutant ownership, resource-lock
// reentrancy and alert delivery. Threads are registered explicitly and must
// be torn down with Exit, which abandons whatever they still own.

package thread

import (
	"runtime"
	"sync"

	"github.com/momentics/hioload-sync/api"
)

// firstSyntheticID keeps spawned IDs clear of kernel thread IDs.
const firstSyntheticID api.ThreadID = 1 << 30

// Abandonable is an object a thread may hold at exit time.
type Abandonable interface {
	Abandon(t *Thread)
}

// Observer is notified about thread lifecycle transitions.
type Observer interface {
	ThreadStarted(t *Thread)
	ThreadExited(t *Thread)
}

// Thread is one registered caller.
type Thread struct {
	id     api.ThreadID
	pid    api.ProcessID
	reg    *Registry
	osLock bool

	mu     sync.Mutex
	held   map[Abandonable]struct{}
	exited bool
	done   chan struct{}
}

// ID returns the thread identifier.
func (t *Thread) ID() api.ThreadID { return t.id }

// Process returns the owning process identifier.
func (t *Thread) Process() api.ProcessID { return t.pid }

// Done is closed once the thread has exited.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Exited reports whether Exit has run.
func (t *Thread) Exited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exited
}

// Hold records that t owns a. It returns false if t already exited, in which
// case ownership must not be granted to t.
func (t *Thread) Hold(a Abandonable) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exited {
		return false
	}
	t.held[a] = struct{}{}
	return true
}

// Drop forgets a previously held object.
func (t *Thread) Drop(a Abandonable) {
	t.mu.Lock()
	delete(t.held, a)
	t.mu.Unlock()
}

// Exit unregisters the thread and abandons every object it still holds.
// Calling Exit more than once is a no-op.
func (t *Thread) Exit() {
	t.mu.Lock()
	if t.exited {
		t.mu.Unlock()
		return
	}
	t.exited = true
	held := make([]Abandonable, 0, len(t.held))
	for a := range t.held {
		held = append(held, a)
	}
	t.held = nil
	t.mu.Unlock()

	t.reg.remove(t)
	for _, a := range held {
		a.Abandon(t)
	}
	t.reg.notifyExited(t)
	close(t.done)

	if t.osLock {
		runtime.UnlockOSThread()
	}
}

// Registry is the process-wide thread table.
type Registry struct {
	mu        sync.RWMutex
	threads   map[api.ThreadID]*Thread
	nextID    api.ThreadID
	observers []Observer
}

// NewRegistry creates an empty registry notifying obs on every transition.
func NewRegistry(obs ...Observer) *Registry {
	return &Registry{
		threads:   make(map[api.ThreadID]*Thread),
		nextID:    firstSyntheticID,
		observers: obs,
	}
}

// Spawn registers a new logical thread belonging to pid.
func (r *Registry) Spawn(pid api.ProcessID) *Thread {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	t := r.newThread(id, pid)
	r.threads[id] = t
	r.mu.Unlock()

	r.notifyStarted(t)
	return t
}

// Attach locks the calling goroutine to its OS thread and registers that
// thread under its kernel identifier. Attaching an already attached thread
// returns the existing entry. Where the platform exposes no thread
// identifier a synthetic one is used.
func (r *Registry) Attach() *Thread {
	runtime.LockOSThread()
	tid, pid, ok := currentOSThread()
	if !ok {
		t := r.Spawn(pid)
		t.osLock = true
		return t
	}

	r.mu.Lock()
	if t, ok := r.threads[tid]; ok {
		r.mu.Unlock()
		// keep LockOSThread balanced; the first attach owns the lock
		runtime.UnlockOSThread()
		return t
	}
	t := r.newThread(tid, pid)
	t.osLock = true
	r.threads[tid] = t
	r.mu.Unlock()

	r.notifyStarted(t)
	return t
}

// Lookup finds a live thread by identifier.
func (r *Registry) Lookup(id api.ThreadID) (*Thread, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	return t, ok
}

// Threads returns a snapshot of the live threads.
func (r *Registry) Threads() []*Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Thread, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, t)
	}
	return out
}

// Len returns the number of live threads.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads)
}

func (r *Registry) newThread(id api.ThreadID, pid api.ProcessID) *Thread {
	return &Thread{
		id:   id,
		pid:  pid,
		reg:  r,
		held: make(map[Abandonable]struct{}),
		done: make(chan struct{}),
	}
}

func (r *Registry) remove(t *Thread) {
	r.mu.Lock()
	if cur, ok := r.threads[t.id]; ok && cur == t {
		delete(r.threads, t.id)
	}
	r.mu.Unlock()
}

func (r *Registry) snapshotObservers() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Observer(nil), r.observers...)
}

func (r *Registry) notifyStarted(t *Thread) {
	for _, o := range r.snapshotObservers() {
		o.ThreadStarted(t)
	}
}

func (r *Registry) notifyExited(t *Thread) {
	for _, o := range r.snapshotObservers() {
		o.ThreadExited(t)
	}
}
