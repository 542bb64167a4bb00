// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package addrwait

import (
	"sync/atomic"
	"unsafe"
)

func atomic32(p unsafe.Pointer) uint32 { return atomic.LoadUint32((*uint32)(p)) }

func atomic64(p unsafe.Pointer) uint64 { return atomic.LoadUint64((*uint64)(p)) }
