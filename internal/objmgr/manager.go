// File: internal/objmgr/manager.go
// Package objmgr
// Author: momentics <momentics@gmail.com>
//
// Handle table and object namespace for the synchronization core.
//
// Handles index a generational arena. Every handle owns one reference to its
// object; the object is told it is closed when the last reference drops, and
// a named object leaves the namespace at the same moment.

package objmgr

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-sync/api"
)

const (
	// DefaultMaxHandles bounds the handle table when no limit is configured.
	DefaultMaxHandles = 1 << 16
	maxIndex          = 1<<22 - 1
	handleTagMask     = 3
)

// Ensure Manager satisfies the object manager contract.
var _ api.ObjectManager = (*Manager)(nil)

// entry is one live object shared by all of its handles.
type entry struct {
	obj  api.Object
	name string
	refs atomic.Int32
}

// tryRetain takes a reference unless the object is already being torn down.
func (e *entry) tryRetain() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

type slot struct {
	gen    uint8
	e      *entry
	access api.AccessMask
}

// Manager implements api.ObjectManager.
type Manager struct {
	ns  *namespace
	max int

	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int

	onClose func(h api.Handle, obj api.Object)
}

// Option customises a Manager.
type Option func(*Manager)

// WithCloseHook registers fn to run after an object's last reference drops.
func WithCloseHook(fn func(h api.Handle, obj api.Object)) Option {
	return func(m *Manager) { m.onClose = fn }
}

// New constructs a manager with a namespace of shardCount shards and room
// for maxHandles handles.
func New(shardCount, maxHandles int, opts ...Option) *Manager {
	if maxHandles <= 0 || maxHandles > maxIndex {
		maxHandles = DefaultMaxHandles
	}
	m := &Manager{ns: newNamespace(shardCount), max: maxHandles}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create implements api.ObjectManager.
func (m *Manager) Create(name string, kind api.ObjectKind, access api.AccessMask, newObj func() (api.Object, error)) (api.Handle, bool, error) {
	access = MapGeneric(kind, access)
	if name == "" {
		obj, err := newObj()
		if err != nil {
			return 0, false, err
		}
		e := &entry{obj: obj}
		e.refs.Store(1)
		h, err := m.insert(e, access)
		if err != nil {
			obj.Closed()
		}
		return h, false, err
	}

	sh := m.ns.shard(name)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.objects[name]; ok && e.tryRetain() {
		if e.obj.Kind() != kind {
			m.release(e, false)
			return 0, false, api.ErrNameCollision.WithContext("name", name)
		}
		h, err := m.insert(e, access)
		if err != nil {
			m.release(e, false)
		}
		return h, true, err
	}
	obj, err := newObj()
	if err != nil {
		return 0, false, err
	}
	e := &entry{obj: obj, name: name}
	e.refs.Store(1)
	h, err := m.insert(e, access)
	if err != nil {
		obj.Closed()
		return 0, false, err
	}
	sh.objects[name] = e
	return h, false, nil
}

// Open implements api.ObjectManager.
func (m *Manager) Open(name string, kind api.ObjectKind, access api.AccessMask) (api.Handle, error) {
	if name == "" {
		return 0, api.ErrInvalidParameter.WithContext("name", name)
	}
	sh := m.ns.shard(name)
	sh.mu.RLock()
	e, ok := sh.objects[name]
	ok = ok && e.tryRetain()
	sh.mu.RUnlock()
	if !ok {
		return 0, api.ErrNameNotFound.WithContext("name", name)
	}
	if e.obj.Kind() != kind {
		m.release(e, true)
		return 0, api.ErrObjectTypeMismatch.WithContext("name", name)
	}
	h, err := m.insert(e, MapGeneric(kind, access))
	if err != nil {
		m.release(e, true)
	}
	return h, err
}

// Resolve implements api.ObjectManager.
func (m *Manager) Resolve(h api.Handle, kind api.ObjectKind, need api.AccessMask) (api.Object, error) {
	m.mu.Lock()
	s, err := m.lookup(h)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if kind != api.KindUnknown && s.e.obj.Kind() != kind {
		return nil, api.ErrObjectTypeMismatch.WithContext("handle", h)
	}
	if !s.access.Has(need) {
		return nil, api.ErrAccessDenied.WithContext("handle", h)
	}
	return s.e.obj, nil
}

// Duplicate implements api.ObjectManager.
func (m *Manager) Duplicate(h api.Handle, access api.AccessMask) (api.Handle, error) {
	m.mu.Lock()
	s, err := m.lookup(h)
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if !s.e.tryRetain() {
		return 0, api.ErrInvalidHandle.WithContext("handle", h)
	}
	dup, err := m.insert(s.e, MapGeneric(s.e.obj.Kind(), access))
	if err != nil {
		m.release(s.e, true)
	}
	return dup, err
}

// Close implements api.ObjectManager.
func (m *Manager) Close(h api.Handle) error {
	m.mu.Lock()
	s, err := m.lookup(h)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	idx := indexOf(h)
	m.slots[idx] = slot{gen: s.gen + 1}
	m.free = append(m.free, idx)
	m.live--
	m.mu.Unlock()

	if m.release(s.e, true) && m.onClose != nil {
		m.onClose(h, s.e.obj)
	}
	return nil
}

// Len implements api.ObjectManager.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Names returns the number of named objects currently alive.
func (m *Manager) Names() int {
	return m.ns.len()
}

// release drops one reference and tears e down when it was the last one.
// lockShard is false when the caller already holds e's namespace shard.
func (m *Manager) release(e *entry, lockShard bool) bool {
	if e.refs.Add(-1) != 0 {
		return false
	}
	if e.name != "" {
		sh := m.ns.shard(e.name)
		if lockShard {
			sh.mu.Lock()
		}
		if sh.objects[e.name] == e {
			delete(sh.objects, e.name)
		}
		if lockShard {
			sh.mu.Unlock()
		}
	}
	e.obj.Closed()
	return true
}

func (m *Manager) insert(e *entry, access api.AccessMask) (api.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live >= m.max {
		return 0, api.ErrTooManyHandles.WithContext("max", m.max)
	}
	var idx uint32
	if n := len(m.free); n > 0 {
		idx = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		idx = uint32(len(m.slots))
		m.slots = append(m.slots, slot{})
	}
	s := &m.slots[idx]
	s.e, s.access = e, access
	m.live++
	return makeHandle(idx, s.gen), nil
}

// lookup must be called with m.mu held.
func (m *Manager) lookup(h api.Handle) (slot, error) {
	if h == 0 || h&handleTagMask != 0 || (uint32(h)>>2)&maxIndex == 0 {
		return slot{}, api.ErrInvalidHandle.WithContext("handle", h)
	}
	idx := indexOf(h)
	if int(idx) >= len(m.slots) {
		return slot{}, api.ErrInvalidHandle.WithContext("handle", h)
	}
	s := m.slots[idx]
	if s.e == nil || s.gen != genOf(h) {
		return slot{}, api.ErrInvalidHandle.WithContext("handle", h)
	}
	return s, nil
}

// Handles are multiples of four: generation in the top byte, slot index + 1
// in the middle bits, and the two low tag bits clear.
func makeHandle(idx uint32, gen uint8) api.Handle {
	return api.Handle(uint32(gen)<<24 | (idx+1)<<2)
}

// indexOf expects a handle whose index field is non-zero.
func indexOf(h api.Handle) uint32 {
	return (uint32(h)>>2)&maxIndex - 1
}

func genOf(h api.Handle) uint8 {
	return uint8(uint32(h) >> 24)
}
