// File: facade/kernel.go
// Unified facade layer for the hioload-sync core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the Kernel struct, which aggregates the components of the
// synchronization core behind a single facade: the object manager (handles and
// the named namespace), the thread registry with its alert table, the address
// wait table, the default keyed event and the control surface. Object
// operations live in objects.go; waits, alerts and address waits in wait.go.

package facade

import (
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/momentics/hioload-sync/adapters"
	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/internal/addrwait"
	"github.com/momentics/hioload-sync/internal/alert"
	"github.com/momentics/hioload-sync/internal/logging"
	"github.com/momentics/hioload-sync/internal/objmgr"
	"github.com/momentics/hioload-sync/internal/resource"
	"github.com/momentics/hioload-sync/internal/syncobj"
	"github.com/momentics/hioload-sync/internal/thread"
)

// Thread is a registered caller identity. Obtain one from SpawnThread or
// AttachThread and end it with Exit.
type Thread = thread.Thread

// Resource is the caller-owned reader/writer lock. The zero value is free.
type Resource = resource.Lock

// ResourceState is the hold state reported by Resource.IsAcquired.
type ResourceState = resource.State

// Resource hold states.
const (
	ResourceFree      = resource.Free
	ResourceShared    = resource.Shared
	ResourceExclusive = resource.Exclusive
)

// Metric counter names.
const (
	MetricWaits          = "waits"
	MetricWaitTimeouts   = "wait_timeouts"
	MetricWaitAbandoned  = "wait_abandoned"
	MetricAlerts         = "alerts"
	MetricObjectsCreated = "objects_created"
	MetricObjectsClosed  = "objects_closed"
	MetricHandlesOpen    = "handles_open" // gauge
)

// Config holds parameters immutable per run.
// Only the log level can be changed at runtime, through the Control
// interface which triggers hot-reload.
type Config struct {
	NamespaceShards int          // Number of shards of the object namespace
	MaxHandles      int          // Capacity of the handle table
	AddressBuckets  int          // Hash buckets of the address wait table
	EnableMetrics   bool         // Whether to count waits, alerts and objects
	EnableDebug     bool         // Whether to register debug probes
	LogLevel        string       // Initial log level: debug, info, warn, error
	Logger          *slog.Logger // Destination of structured logs; nil keeps the default
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		NamespaceShards: 16,                       // 16 namespace shards
		MaxHandles:      objmgr.DefaultMaxHandles, // 64Ki open handles
		AddressBuckets:  addrwait.DefaultBuckets,  // 256 address wait buckets
		EnableMetrics:   true,                     // Enable built-in counters
		EnableDebug:     true,                     // Enable debug probes
		LogLevel:        "info",                   // Info and above
	}
}

// Kernel is the main facade type.
// It implements api.GracefulShutdown to allow unified shutdown logic.
type Kernel struct {
	objects *objmgr.Manager
	threads *thread.Registry
	alerts  *alert.Table
	addr    *addrwait.Table
	keyed   *syncobj.KeyedEvent // default keyed event behind the zero handle
	control *adapters.ControlAdapter
	pid     api.ProcessID

	config *Config
	mu     sync.Mutex // Protects closed
	closed bool
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Kernel)(nil)

// New constructs a Kernel with the given configuration.
func New(cfg *Config) (*Kernel, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxHandles < 0 || cfg.NamespaceShards < 0 || cfg.AddressBuckets < 0 {
		return nil, api.ErrInvalidParameter.WithContext("config", *cfg)
	}
	if cfg.Logger != nil {
		logging.SetLogger(cfg.Logger)
	}
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logging.SetLevel(lvl)
	}

	k := &Kernel{
		config: cfg,
		alerts: alert.NewTable(),
		addr:   addrwait.New(cfg.AddressBuckets),
		keyed:  syncobj.NewKeyedEvent(),
		pid:    api.ProcessID(os.Getpid()),
	}
	k.threads = thread.NewRegistry(k.alerts)
	k.objects = objmgr.New(cfg.NamespaceShards, cfg.MaxHandles, objmgr.WithCloseHook(k.objectClosed))

	// Expose configuration values via Control for observability and hot-reload.
	k.control = adapters.NewControlAdapter(map[string]any{
		"namespace_shards": cfg.NamespaceShards,
		"max_handles":      cfg.MaxHandles,
		"address_buckets":  cfg.AddressBuckets,
		"metrics.enabled":  cfg.EnableMetrics,
		"log_level":        cfg.LogLevel,
	})
	k.control.OnReload(k.reloadLogLevel)

	if cfg.EnableDebug {
		k.control.RegisterDebugProbe("objects", func() any { return k.objects.Len() })
		k.control.RegisterDebugProbe("names", func() any { return k.objects.Names() })
		k.control.RegisterDebugProbe("threads", func() any { return k.threads.Len() })
	}
	return k, nil
}

func (k *Kernel) reloadLogLevel() {
	v, ok := k.control.GetConfig()["log_level"].(string)
	if !ok {
		return
	}
	lvl, ok := logging.ParseLevel(v)
	if !ok {
		log.Printf("[facade] ignoring unknown log_level %q", v)
		return
	}
	logging.SetLevel(lvl)
}

// Shutdown exits every registered thread, abandoning whatever they own.
// Handles stay valid; subsequent thread registration fails.
func (k *Kernel) Shutdown() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()

	for _, t := range k.threads.Threads() {
		t.Exit()
	}
	logging.Info("kernel shut down", "handles", k.objects.Len())
	return nil
}

func (k *Kernel) isClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

// GetControl returns the Control interface for dynamic config and metrics.
func (k *Kernel) GetControl() api.Control {
	return k.control
}

// GetDebugAPI returns the debug probe interface.
func (k *Kernel) GetDebugAPI() api.Debug {
	return k.control
}

// RegisterReloadHook adds a callback run after every config change.
func (k *Kernel) RegisterReloadHook(fn func()) {
	k.control.OnReload(fn)
}

// Objects returns the object manager.
func (k *Kernel) Objects() api.ObjectManager {
	return k.objects
}

// Counter returns the value of a metric counter.
func (k *Kernel) Counter(name string) int64 {
	return k.control.Counter(name)
}

func (k *Kernel) count(name string) {
	if k.config.EnableMetrics {
		k.control.Inc(name)
	}
}

// publishHandles refreshes the open-handle gauge.
func (k *Kernel) publishHandles() {
	if k.config.EnableMetrics {
		k.control.SetMetric(MetricHandlesOpen, k.objects.Len())
	}
}

// recordWait counts the outcome of one blocking call.
func (k *Kernel) recordWait(st api.WaitStatus) {
	k.count(MetricWaits)
	switch st {
	case api.WaitTimeout:
		k.count(MetricWaitTimeouts)
	case api.WaitAbandoned:
		k.count(MetricWaitAbandoned)
		logging.Warn("wait abandoned")
	}
}

// SpawnThread registers a new logical thread in the kernel's own process.
func (k *Kernel) SpawnThread() (*Thread, error) {
	return k.SpawnThreadIn(k.pid)
}

// SpawnThreadIn registers a new logical thread in process pid.
func (k *Kernel) SpawnThreadIn(pid api.ProcessID) (*Thread, error) {
	if k.isClosed() {
		return nil, api.ErrInvalidHandle.WithContext("kernel", "shut down")
	}
	t := k.threads.Spawn(pid)
	logging.Debug("thread spawned", "tid", t.ID(), "pid", pid)
	return t, nil
}

// AttachThread registers the calling OS thread. The goroutine stays locked to
// it until the returned thread exits.
func (k *Kernel) AttachThread() (*Thread, error) {
	if k.isClosed() {
		return nil, api.ErrInvalidHandle.WithContext("kernel", "shut down")
	}
	t := k.threads.Attach()
	logging.Debug("thread attached", "tid", t.ID(), "pid", t.Process())
	return t, nil
}

// LookupThread finds a live thread by identifier.
func (k *Kernel) LookupThread(id api.ThreadID) (*Thread, bool) {
	return k.threads.Lookup(id)
}

// Close drops a handle. The object is destroyed when its last handle closes,
// abandoning any waits still outstanding on it.
func (k *Kernel) Close(h api.Handle) error {
	if err := k.objects.Close(h); err != nil {
		return err
	}
	k.publishHandles()
	return nil
}

// Duplicate opens a second handle to the object behind h.
func (k *Kernel) Duplicate(h api.Handle, access api.AccessMask) (api.Handle, error) {
	dup, err := k.objects.Duplicate(h, access)
	if err != nil {
		return 0, err
	}
	k.publishHandles()
	return dup, nil
}

func (k *Kernel) objectClosed(h api.Handle, obj api.Object) {
	k.count(MetricObjectsClosed)
	logging.Debug("object destroyed", "handle", h, "kind", obj.Kind())
}

// create inserts a new or existing named object and records the creation.
func (k *Kernel) create(name string, kind api.ObjectKind, access api.AccessMask, newObj func() (api.Object, error)) (api.Handle, error) {
	h, existed, err := k.objects.Create(name, kind, access, newObj)
	if err != nil {
		return 0, err
	}
	if !existed {
		k.count(MetricObjectsCreated)
	}
	k.publishHandles()
	logging.Debug("object created", "handle", h, "kind", kind, "name", name, "existed", existed)
	return h, nil
}

// open adds a handle to an existing named object.
func (k *Kernel) open(name string, kind api.ObjectKind, access api.AccessMask) (api.Handle, error) {
	h, err := k.objects.Open(name, kind, access)
	if err != nil {
		return 0, err
	}
	k.publishHandles()
	return h, nil
}
