// File: api/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Relative, absolute, polling and infinite wait bounds.

package api

import "time"

// Timeout bounds a blocking call. The zero value is Infinite.
type Timeout struct {
	bounded  bool
	deadline time.Time
	relative time.Duration
	absolute bool
}

// Infinite blocks until the wait is satisfied or cancelled.
var Infinite = Timeout{}

// Poll checks the object state without blocking.
var Poll = After(0)

// After bounds a wait relative to the moment it starts.
// Negative durations behave like Poll.
func After(d time.Duration) Timeout {
	if d < 0 {
		d = 0
	}
	return Timeout{bounded: true, relative: d}
}

// Until bounds a wait by an absolute wall-clock deadline.
func Until(t time.Time) Timeout {
	return Timeout{bounded: true, deadline: t, absolute: true}
}

// IsInfinite reports whether the wait is unbounded.
func (t Timeout) IsInfinite() bool {
	return !t.bounded
}

// Deadline resolves the timeout against now. ok is false for Infinite.
func (t Timeout) Deadline(now time.Time) (deadline time.Time, ok bool) {
	if !t.bounded {
		return time.Time{}, false
	}
	if t.absolute {
		return t.deadline, true
	}
	return now.Add(t.relative), true
}

// Expired reports whether a bounded wait starting now would not block at all.
func (t Timeout) Expired(now time.Time) bool {
	d, ok := t.Deadline(now)
	return ok && !d.After(now)
}

func (t Timeout) String() string {
	switch {
	case !t.bounded:
		return "infinite"
	case t.absolute:
		return "until " + t.deadline.Format(time.RFC3339Nano)
	default:
		return t.relative.String()
	}
}
