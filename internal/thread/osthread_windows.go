//go:build windows
// +build windows

// hioload-sync/internal/thread/osthread_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows thread identity via GetCurrentThreadId/GetCurrentProcessId.

package thread

import (
	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-sync/api"
)

// currentOSThread returns the Win32 thread and process identifiers.
func currentOSThread() (api.ThreadID, api.ProcessID, bool) {
	return api.ThreadID(windows.GetCurrentThreadId()), api.ProcessID(windows.GetCurrentProcessId()), true
}
