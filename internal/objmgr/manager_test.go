package objmgr

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-sync/api"
)

type fakeObject struct {
	kind   api.ObjectKind
	closed atomic.Int32
}

func (f *fakeObject) Kind() api.ObjectKind { return f.kind }
func (f *fakeObject) Closed()              { f.closed.Add(1) }

func maker(f *fakeObject) func() (api.Object, error) {
	return func() (api.Object, error) { return f, nil }
}

func TestCreateResolveClose(t *testing.T) {
	var closedWith api.Handle
	m := New(4, 0, WithCloseHook(func(h api.Handle, _ api.Object) { closedWith = h }))
	obj := &fakeObject{kind: api.KindEvent}

	h, existed, err := m.Create("", api.KindEvent, api.EventAllAccess, maker(obj))
	if err != nil || existed {
		t.Fatalf("Create() = %v, %v, %v", h, existed, err)
	}
	if h == 0 || h&3 != 0 {
		t.Fatalf("Create() handle = %#x, want non-zero multiple of 4", h)
	}
	got, err := m.Resolve(h, api.KindEvent, api.EventModifyState)
	if err != nil || got != obj {
		t.Fatalf("Resolve() = %v, %v", got, err)
	}
	if _, err := m.Resolve(h, api.KindMutant, 0); !errors.Is(err, api.ErrObjectTypeMismatch) {
		t.Fatalf("Resolve(wrong kind) err = %v, want ErrObjectTypeMismatch", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}

	if err := m.Close(h); err != nil {
		t.Fatalf("Close() err = %v", err)
	}
	if obj.closed.Load() != 1 || closedWith != h {
		t.Fatalf("Closed() calls = %d, hook handle = %#x", obj.closed.Load(), closedWith)
	}
	if _, err := m.Resolve(h, api.KindEvent, 0); !errors.Is(err, api.ErrInvalidHandle) {
		t.Fatalf("Resolve() after Close err = %v, want ErrInvalidHandle", err)
	}
	if err := m.Close(h); !errors.Is(err, api.ErrInvalidHandle) {
		t.Fatalf("double Close() err = %v, want ErrInvalidHandle", err)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	m := New(1, 0)
	h1, _, _ := m.Create("", api.KindEvent, api.EventAllAccess, maker(&fakeObject{kind: api.KindEvent}))
	m.Close(h1)
	h2, _, _ := m.Create("", api.KindEvent, api.EventAllAccess, maker(&fakeObject{kind: api.KindEvent}))
	if h1 == h2 {
		t.Fatalf("reused slot returned identical handle %#x", h1)
	}
	if _, err := m.Resolve(h1, api.KindUnknown, 0); !errors.Is(err, api.ErrInvalidHandle) {
		t.Fatalf("stale Resolve() err = %v, want ErrInvalidHandle", err)
	}
	if _, err := m.Resolve(0xdeadbeef, api.KindUnknown, 0); !errors.Is(err, api.ErrInvalidHandle) {
		t.Fatalf("Resolve(0xdeadbeef) err = %v, want ErrInvalidHandle", err)
	}
}

func TestZeroIndexHandleRejected(t *testing.T) {
	m := New(1, 0)
	m.Create("", api.KindEvent, api.EventAllAccess, maker(&fakeObject{kind: api.KindEvent}))
	for _, h := range []api.Handle{0x01000000, 0xff000000} {
		if _, err := m.Resolve(h, api.KindUnknown, 0); !errors.Is(err, api.ErrInvalidHandle) {
			t.Fatalf("Resolve(%#x) err = %v, want ErrInvalidHandle", h, err)
		}
		if err := m.Close(h); !errors.Is(err, api.ErrInvalidHandle) {
			t.Fatalf("Close(%#x) err = %v, want ErrInvalidHandle", h, err)
		}
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestAccessRights(t *testing.T) {
	m := New(1, 0)
	h, _, _ := m.Create("", api.KindKeyedEvent, api.GenericRead, maker(&fakeObject{kind: api.KindKeyedEvent}))
	if _, err := m.Resolve(h, api.KindKeyedEvent, api.KeyedEventWait); err != nil {
		t.Fatalf("GENERIC_READ wait right err = %v", err)
	}
	if _, err := m.Resolve(h, api.KindKeyedEvent, api.KeyedEventWake); !errors.Is(err, api.ErrAccessDenied) {
		t.Fatalf("GENERIC_READ wake right err = %v, want ErrAccessDenied", err)
	}
	if _, err := m.Resolve(h, api.KindKeyedEvent, api.Synchronize); !errors.Is(err, api.ErrAccessDenied) {
		t.Fatalf("GENERIC_READ synchronize err = %v, want ErrAccessDenied", err)
	}

	dup, err := m.Duplicate(h, api.GenericWrite)
	if err != nil {
		t.Fatalf("Duplicate() err = %v", err)
	}
	if _, err := m.Resolve(dup, api.KindKeyedEvent, api.KeyedEventWake); err != nil {
		t.Fatalf("GENERIC_WRITE wake right err = %v", err)
	}
}

func TestMapGeneric(t *testing.T) {
	cases := []struct {
		kind api.ObjectKind
		in   api.AccessMask
		want api.AccessMask
	}{
		{api.KindKeyedEvent, api.KeyedEventWait, api.KeyedEventWait},
		{api.KindKeyedEvent, api.GenericAll, api.KeyedEventAllAccess},
		{api.KindEvent, api.GenericExecute, api.ReadControl | api.Synchronize},
		{api.KindSemaphore, api.GenericWrite | api.Synchronize, api.ReadControl | api.SemaphoreModifyState | api.Synchronize},
	}
	for _, c := range cases {
		if got := MapGeneric(c.kind, c.in); got != c.want {
			t.Fatalf("MapGeneric(%v, %#x) = %#x, want %#x", c.kind, c.in, got, c.want)
		}
	}
}

func TestNamedObjects(t *testing.T) {
	m := New(8, 0)
	obj := &fakeObject{kind: api.KindKeyedEvent}

	h1, existed, err := m.Create("KeyedTestEvent", api.KindKeyedEvent, api.KeyedEventAllAccess, maker(obj))
	if err != nil || existed {
		t.Fatalf("Create() = %v, %v", existed, err)
	}
	h2, existed, err := m.Create("KeyedTestEvent", api.KindKeyedEvent, api.KeyedEventWait, maker(&fakeObject{kind: api.KindKeyedEvent}))
	if err != nil || !existed {
		t.Fatalf("second Create() = %v, %v; want existing object", existed, err)
	}
	if o, _ := m.Resolve(h2, api.KindKeyedEvent, 0); o != obj {
		t.Fatal("second Create() did not open the existing object")
	}
	if _, _, err := m.Create("KeyedTestEvent", api.KindEvent, api.GenericAll, maker(&fakeObject{kind: api.KindEvent})); !errors.Is(err, api.ErrNameCollision) {
		t.Fatalf("Create(other kind) err = %v, want ErrNameCollision", err)
	}
	if _, err := m.Open("KeyedTestEvent", api.KindEvent, api.GenericAll); !errors.Is(err, api.ErrObjectTypeMismatch) {
		t.Fatalf("Open(other kind) err = %v, want ErrObjectTypeMismatch", err)
	}
	h3, err := m.Open("KeyedTestEvent", api.KindKeyedEvent, api.KeyedEventAllAccess)
	if err != nil {
		t.Fatalf("Open() err = %v", err)
	}

	for _, h := range []api.Handle{h1, h2} {
		m.Close(h)
	}
	if obj.closed.Load() != 0 {
		t.Fatal("object closed while a handle is still open")
	}
	m.Close(h3)
	if obj.closed.Load() != 1 {
		t.Fatalf("Closed() calls = %d, want 1", obj.closed.Load())
	}
	if _, err := m.Open("KeyedTestEvent", api.KindKeyedEvent, 0); !errors.Is(err, api.ErrNameNotFound) {
		t.Fatalf("Open() after last close err = %v, want ErrNameNotFound", err)
	}
	if m.Names() != 0 {
		t.Fatalf("Names() = %d, want 0", m.Names())
	}
}

func TestCreateFailureLeavesNoHandle(t *testing.T) {
	m := New(1, 0)
	_, _, err := m.Create("x", api.KindSemaphore, api.GenericAll, func() (api.Object, error) {
		return nil, api.ErrInvalidParameter
	})
	if !errors.Is(err, api.ErrInvalidParameter) {
		t.Fatalf("Create() err = %v, want ErrInvalidParameter", err)
	}
	if m.Len() != 0 || m.Names() != 0 {
		t.Fatalf("Len()/Names() = %d/%d after failed create", m.Len(), m.Names())
	}
}

func TestMaxHandles(t *testing.T) {
	m := New(1, 2)
	obj := &fakeObject{kind: api.KindEvent}
	for i := 0; i < 2; i++ {
		if _, _, err := m.Create("", api.KindEvent, 0, maker(obj)); err != nil {
			t.Fatalf("Create(%d) err = %v", i, err)
		}
	}
	if _, _, err := m.Create("", api.KindEvent, 0, maker(obj)); !errors.Is(err, api.ErrTooManyHandles) {
		t.Fatalf("Create() over limit err = %v, want ErrTooManyHandles", err)
	}
	if obj.closed.Load() != 1 {
		t.Fatalf("rejected object Closed() calls = %d, want 1", obj.closed.Load())
	}
}

func TestConcurrentOpenClose(t *testing.T) {
	m := New(16, 0)
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("obj-%d", i%8)
		g.Go(func() error {
			obj := &fakeObject{kind: api.KindMutant}
			h, _, err := m.Create(name, api.KindMutant, api.GenericAll, maker(obj))
			if err != nil {
				return err
			}
			if _, err := m.Resolve(h, api.KindMutant, api.Synchronize); err != nil {
				return err
			}
			return m.Close(h)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 || m.Names() != 0 {
		t.Fatalf("Len()/Names() = %d/%d, want 0/0", m.Len(), m.Names())
	}
}
