// File: api/status.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NT status numbering used by the API-translation layer.

package api

import (
	"errors"
	"fmt"
)

// Status is an NTSTATUS-compatible result code.
type Status uint32

const (
	StatusSuccess                Status = 0x00000000
	StatusAbandonedWait0         Status = 0x00000080
	StatusUserAPC                Status = 0x000000C0
	StatusAlerted                Status = 0x00000101
	StatusTimeout                Status = 0x00000102
	StatusInvalidHandle          Status = 0xC0000008
	StatusInvalidCID             Status = 0xC000000B
	StatusInvalidParameter       Status = 0xC000000D
	StatusAccessDenied           Status = 0xC0000022
	StatusObjectTypeMismatch     Status = 0xC0000024
	StatusObjectNameNotFound     Status = 0xC0000034
	StatusObjectNameCollision    Status = 0xC0000035
	StatusMutantNotOwned         Status = 0xC0000046
	StatusSemaphoreLimitExceeded Status = 0xC0000047
	StatusInsufficientResources  Status = 0xC000009A
	StatusInvalidParameter1      Status = 0xC00000EF
	StatusCancelled              Status = 0xC0000120
)

// IsError reports whether s has the error severity bits set.
func (s Status) IsError() bool {
	return s&0xC0000000 == 0xC0000000
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "STATUS_SUCCESS"
	case StatusAbandonedWait0:
		return "STATUS_ABANDONED_WAIT_0"
	case StatusUserAPC:
		return "STATUS_USER_APC"
	case StatusAlerted:
		return "STATUS_ALERTED"
	case StatusTimeout:
		return "STATUS_TIMEOUT"
	case StatusInvalidHandle:
		return "STATUS_INVALID_HANDLE"
	case StatusInvalidCID:
		return "STATUS_INVALID_CID"
	case StatusInvalidParameter:
		return "STATUS_INVALID_PARAMETER"
	case StatusAccessDenied:
		return "STATUS_ACCESS_DENIED"
	case StatusObjectTypeMismatch:
		return "STATUS_OBJECT_TYPE_MISMATCH"
	case StatusObjectNameNotFound:
		return "STATUS_OBJECT_NAME_NOT_FOUND"
	case StatusObjectNameCollision:
		return "STATUS_OBJECT_NAME_COLLISION"
	case StatusMutantNotOwned:
		return "STATUS_MUTANT_NOT_OWNED"
	case StatusSemaphoreLimitExceeded:
		return "STATUS_SEMAPHORE_LIMIT_EXCEEDED"
	case StatusInsufficientResources:
		return "STATUS_INSUFFICIENT_RESOURCES"
	case StatusInvalidParameter1:
		return "STATUS_INVALID_PARAMETER_1"
	case StatusCancelled:
		return "STATUS_CANCELLED"
	default:
		return fmt.Sprintf("STATUS_%08X", uint32(s))
	}
}

// StatusOf maps a wait outcome and error pair onto a single status.
// A non-nil error always wins; unknown errors map to STATUS_INVALID_PARAMETER.
func StatusOf(ws WaitStatus, err error) Status {
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e.Status
		}
		return StatusInvalidParameter
	}
	return ws.Status()
}
