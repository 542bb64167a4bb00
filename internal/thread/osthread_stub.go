//go:build !linux && !windows
// +build !linux,!windows

// hioload-sync/internal/thread/osthread_stub.go
// Author: momentics <momentics@gmail.com>
//
// Platforms without a portable thread identifier fall back to synthetic IDs.

package thread

import (
	"os"

	"github.com/momentics/hioload-sync/api"
)

func currentOSThread() (api.ThreadID, api.ProcessID, bool) {
	return 0, api.ProcessID(os.Getpid()), false
}
