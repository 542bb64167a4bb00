// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package syncobj

import (
	"context"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/thread"
)

// Object is the state half of a kernel object, as stored by the object
// manager.
type Object = api.Object

// Waitable objects support the generic single-object wait.
type Waitable interface {
	Object
	Wait(ctx context.Context, caller *thread.Thread, timeout api.Timeout) (api.WaitStatus, error)
}

// Compile-time checks.
var (
	_ Waitable = (*Event)(nil)
	_ Waitable = (*Mutant)(nil)
	_ Waitable = (*Semaphore)(nil)
	_ Waitable = (*KeyedEvent)(nil)
	_ Object   = (*IoCompletion)(nil)

	_ thread.Abandonable = (*Mutant)(nil)
)
