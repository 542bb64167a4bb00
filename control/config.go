// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload propagation.

package control

import (
	"sync"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu     sync.RWMutex
	config map[string]any
	hooks  *ReloadHooks
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
		hooks:  NewReloadHooks(),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// Get returns a single config value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// Load merges values without dispatching reload hooks. Used for initial seeding.
func (cs *ConfigStore) Load(cfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range cfg {
		cs.config[k] = v
	}
}

// SetConfig merges new values and runs every reload hook once the store
// reflects them.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.Load(newCfg)
	cs.hooks.TriggerSync()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.hooks.Register(fn)
}
