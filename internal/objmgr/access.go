// File: internal/objmgr/access.go
// Package objmgr
// Author: momentics <momentics@gmail.com>

package objmgr

import "github.com/momentics/hioload-sync/api"

type genericMapping struct {
	read, write, execute, all api.AccessMask
}

// Per-kind generic mappings. No generic right maps to SYNCHRONIZE on a keyed
// event; a generic wait on one needs it requested explicitly.
var mappings = map[api.ObjectKind]genericMapping{
	api.KindEvent: {
		read:    api.ReadControl | api.EventQueryState,
		write:   api.ReadControl | api.EventModifyState,
		execute: api.ReadControl | api.Synchronize,
		all:     api.EventAllAccess,
	},
	api.KindMutant: {
		read:    api.ReadControl | api.MutantQueryState,
		write:   api.ReadControl,
		execute: api.ReadControl | api.Synchronize,
		all:     api.MutantAllAccess,
	},
	api.KindSemaphore: {
		read:    api.ReadControl | api.SemaphoreQueryState,
		write:   api.ReadControl | api.SemaphoreModifyState,
		execute: api.ReadControl | api.Synchronize,
		all:     api.SemaphoreAllAccess,
	},
	api.KindKeyedEvent: {
		read:    api.ReadControl | api.KeyedEventWait,
		write:   api.ReadControl | api.KeyedEventWake,
		execute: api.ReadControl,
		all:     api.KeyedEventAllAccess,
	},
	api.KindIoCompletion: {
		read:    api.ReadControl | api.IoCompletionQueryState,
		write:   api.ReadControl | api.IoCompletionModifyState,
		execute: api.ReadControl | api.Synchronize,
		all:     api.IoCompletionAll,
	},
}

// MapGeneric replaces the generic rights in access with the object-specific
// rights they stand for on kind.
func MapGeneric(kind api.ObjectKind, access api.AccessMask) api.AccessMask {
	if !access.IsGeneric() {
		return access
	}
	gm := mappings[kind]
	out := access &^ (api.GenericRead | api.GenericWrite | api.GenericExecute | api.GenericAll)
	if access.Has(api.GenericRead) {
		out |= gm.read
	}
	if access.Has(api.GenericWrite) {
		out |= gm.write
	}
	if access.Has(api.GenericExecute) {
		out |= gm.execute
	}
	if access.Has(api.GenericAll) {
		out |= gm.all
	}
	return out
}
