// File: api/objects.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Object manager contract consumed by the synchronization core.

package api

// Object is a kernel object stored behind handles.
type Object interface {
	Kind() ObjectKind
	// Closed is called once, synchronously, when the last reference drops.
	Closed()
}

// ObjectManager owns the handle table and the object namespace.
type ObjectManager interface {
	// Create inserts a new object, or opens the existing object of the same
	// kind when name is already taken. existed reports the latter case.
	Create(name string, kind ObjectKind, access AccessMask, newObj func() (Object, error)) (h Handle, existed bool, err error)
	// Open looks up a named object of the given kind.
	Open(name string, kind ObjectKind, access AccessMask) (Handle, error)
	// Resolve returns the object behind h after checking kind and rights.
	// KindUnknown accepts any kind.
	Resolve(h Handle, kind ObjectKind, need AccessMask) (Object, error)
	// Duplicate creates a second handle to the same object.
	Duplicate(h Handle, access AccessMask) (Handle, error)
	// Close drops the reference held by h.
	Close(h Handle) error
	// Len returns the number of open handles.
	Len() int
}
