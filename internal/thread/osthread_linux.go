//go:build linux
// +build linux

// hioload-sync/internal/thread/osthread_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux thread identity via gettid/getpid.

package thread

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sync/api"
)

// currentOSThread returns the kernel TID and PID of the calling thread.
// The caller must have locked the goroutine to its OS thread.
func currentOSThread() (api.ThreadID, api.ProcessID, bool) {
	return api.ThreadID(unix.Gettid()), api.ProcessID(unix.Getpid()), true
}
