// File: internal/objmgr/namespace.go
// Package objmgr
// Author: momentics <momentics@gmail.com>
//
// Sharded object namespace.

package objmgr

import (
	"hash/fnv"
	"sync"
)

// namespace maps object names to live entries. Names are case-sensitive.
type namespace struct {
	shards []*nsShard
	mask   uint32
}

type nsShard struct {
	mu      sync.RWMutex
	objects map[string]*entry
}

func newNamespace(shardCount int) *namespace {
	if shardCount <= 0 {
		shardCount = 16
	}
	// find power-of-two shards for bitmasking
	n := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*nsShard, n)
	for i := range shards {
		shards[i] = &nsShard{objects: make(map[string]*entry)}
	}
	return &namespace{shards: shards, mask: n - 1}
}

// shard picks the correct shard for a given name.
func (ns *namespace) shard(name string) *nsShard {
	return ns.shards[fnv32(name)&ns.mask]
}

func (ns *namespace) len() int {
	n := 0
	for _, sh := range ns.shards {
		sh.mu.RLock()
		n += len(sh.objects)
		sh.mu.RUnlock()
	}
	return n
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
