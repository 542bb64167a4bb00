// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// Handle is an opaque reference into a process handle table.
// The zero handle is never allocated; operations that accept it treat it
// as "the default object" where one exists.
type Handle uint32

// ThreadID identifies a thread across the whole system.
type ThreadID uint32

// ProcessID identifies the process a thread belongs to.
type ProcessID uint32

// ObjectKind tags the concrete type behind a handle.
type ObjectKind uint8

const (
	KindUnknown ObjectKind = iota
	KindEvent
	KindMutant
	KindSemaphore
	KindKeyedEvent
	KindIoCompletion
)

func (k ObjectKind) String() string {
	switch k {
	case KindEvent:
		return "Event"
	case KindMutant:
		return "Mutant"
	case KindSemaphore:
		return "Semaphore"
	case KindKeyedEvent:
		return "KeyedEvent"
	case KindIoCompletion:
		return "IoCompletion"
	default:
		return "Unknown"
	}
}

// AccessMask holds the rights a handle was opened with.
type AccessMask uint32

const (
	// Object-specific rights. Their meaning depends on the object kind.
	KeyedEventWait AccessMask = 0x0001
	KeyedEventWake AccessMask = 0x0002

	EventQueryState  AccessMask = 0x0001
	EventModifyState AccessMask = 0x0002

	MutantQueryState AccessMask = 0x0001

	SemaphoreQueryState  AccessMask = 0x0001
	SemaphoreModifyState AccessMask = 0x0002

	IoCompletionQueryState  AccessMask = 0x0001
	IoCompletionModifyState AccessMask = 0x0002

	Delete                 AccessMask = 0x00010000
	ReadControl            AccessMask = 0x00020000
	Synchronize            AccessMask = 0x00100000
	StandardRightsRequired AccessMask = 0x000F0000

	GenericRead    AccessMask = 0x80000000
	GenericWrite   AccessMask = 0x40000000
	GenericExecute AccessMask = 0x20000000
	GenericAll     AccessMask = 0x10000000
	genericMask               = GenericRead | GenericWrite | GenericExecute | GenericAll

	KeyedEventAllAccess = StandardRightsRequired | 0x0003
	EventAllAccess      = StandardRightsRequired | Synchronize | 0x0003
	MutantAllAccess     = StandardRightsRequired | Synchronize | 0x0001
	SemaphoreAllAccess  = StandardRightsRequired | Synchronize | 0x0003
	IoCompletionAll     = StandardRightsRequired | Synchronize | 0x0003
)

// IsGeneric reports whether m carries any generic right that still needs
// mapping onto object-specific rights.
func (m AccessMask) IsGeneric() bool {
	return m&genericMask != 0
}

// Has reports whether every bit of want is present.
func (m AccessMask) Has(want AccessMask) bool {
	return m&want == want
}

// WaitStatus is the non-error outcome of a blocking operation.
type WaitStatus uint8

const (
	WaitSuccess WaitStatus = iota
	WaitTimeout
	WaitAbandoned
	WaitAlerted
	WaitCancelled
)

func (w WaitStatus) String() string {
	switch w {
	case WaitSuccess:
		return "success"
	case WaitTimeout:
		return "timeout"
	case WaitAbandoned:
		return "abandoned"
	case WaitAlerted:
		return "alerted"
	case WaitCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Status maps the outcome onto its NT status number.
func (w WaitStatus) Status() Status {
	switch w {
	case WaitSuccess:
		return StatusSuccess
	case WaitTimeout:
		return StatusTimeout
	case WaitAbandoned:
		return StatusAbandonedWait0
	case WaitAlerted:
		return StatusAlerted
	case WaitCancelled:
		return StatusCancelled
	default:
		return StatusInvalidParameter
	}
}

// ResetMode selects the event flavour.
type ResetMode uint8

const (
	// ManualReset ("notification") events stay signaled until reset.
	ManualReset ResetMode = iota
	// AutoReset ("synchronization") events clear when one waiter is released.
	AutoReset
)

func (r ResetMode) String() string {
	switch r {
	case ManualReset:
		return "manual"
	case AutoReset:
		return "auto"
	default:
		return "invalid"
	}
}

// Valid reports whether r names a known reset mode.
func (r ResetMode) Valid() bool {
	return r == ManualReset || r == AutoReset
}

// EventInfo mirrors the basic event information class.
type EventInfo struct {
	Mode     ResetMode
	Signaled bool
}

// MutantInfo mirrors the basic mutant information class.
type MutantInfo struct {
	CurrentCount  int32
	OwnedByCaller bool
	Abandoned     bool
}

// SemaphoreInfo mirrors the basic semaphore information class.
type SemaphoreInfo struct {
	CurrentCount uint32
	MaximumCount uint32
}

// CompletionPacket is one entry of an I/O completion queue.
type CompletionPacket struct {
	Key         uintptr
	Value       uintptr
	Status      Status
	Information uintptr
}
