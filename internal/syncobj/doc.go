// Package syncobj
// Author: momentics <momentics@gmail.com>
//
// State machines and wait protocols of the handle-based kernel objects:
// events, mutants, semaphores, keyed events and I/O completion queues.
//
// Every object serialises its own transitions with one mutex. Blocking calls
// register on the object's wait queue under that mutex, and every waker
// consumes object state on behalf of the waiter it releases, so a released
// waiter never has to re-check or compete for what it was granted.
//
// Object lifetime belongs to the object manager. It calls Closed when the
// last reference is dropped; every blocked caller then wakes with
// api.WaitAbandoned.
package syncobj
