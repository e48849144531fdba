// Package observability provides hooks for metrics, tracing and logging.
//
// Instrumentation is optional and backend-agnostic: the packages that do the
// work call hooks, and whoever owns main decides what the hooks do. Every
// category has a no-op default, so nothing needs to be registered.
//
// # Categories
//
//   - [ItemHooks]: structural changes made through a diagram (add, update,
//     visibility, cascading removal).
//   - [SyncHooks]: synchronization passes and layout runs.
//   - [StoreHooks]: snapshot store reads and writes.
//   - [HTTPHooks]: requests served by the HTTP API.
//
// # Usage
//
// Register hooks at startup:
//
//	func main() {
//	    observability.SetSyncHooks(&passMetrics{})
//	    // ... run application
//	}
//
// Libraries emit events:
//
//	observability.Sync().OnSyncStart(ctx, len(dirty))
//	// ... synchronize ...
//	observability.Sync().OnSyncComplete(ctx, touched, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Item Hooks
// =============================================================================

// ItemHooks receives structural events from a diagram.
type ItemHooks interface {
	// OnItemAdded records a new item.
	OnItemAdded(ctx context.Context, kind, id string)

	// OnItemUpdated records a configuration or visibility change.
	OnItemUpdated(ctx context.Context, kind, id string)

	// OnItemRemoved records a removal; cascaded counts the incident edges
	// removed along with a node.
	OnItemRemoved(ctx context.Context, kind, id string, cascaded int)
}

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from synchronization passes and layout runs.
type SyncHooks interface {
	OnSyncStart(ctx context.Context, dirty int)
	OnSyncComplete(ctx context.Context, touched int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, layout string, nodeCount int)
	OnLayoutComplete(ctx context.Context, layout string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from snapshot stores.
type StoreHooks interface {
	// OnStoreHit records a successful read.
	OnStoreHit(ctx context.Context, backend string)

	// OnStoreMiss records a read of an absent or expired key.
	OnStoreMiss(ctx context.Context, backend string)

	// OnStoreSet records a write.
	OnStoreSet(ctx context.Context, backend string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for it.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopItemHooks is a no-op implementation of ItemHooks.
type NoopItemHooks struct{}

func (NoopItemHooks) OnItemAdded(context.Context, string, string)        {}
func (NoopItemHooks) OnItemUpdated(context.Context, string, string)      {}
func (NoopItemHooks) OnItemRemoved(context.Context, string, string, int) {}

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnSyncStart(context.Context, int)                                {}
func (NoopSyncHooks) OnSyncComplete(context.Context, int, time.Duration, error)       {}
func (NoopSyncHooks) OnLayoutStart(context.Context, string, int)                      {}
func (NoopSyncHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreHit(context.Context, string)      {}
func (NoopStoreHooks) OnStoreMiss(context.Context, string)     {}
func (NoopStoreHooks) OnStoreSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	itemHooks  ItemHooks  = NoopItemHooks{}
	syncHooks  SyncHooks  = NoopSyncHooks{}
	storeHooks StoreHooks = NoopStoreHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetItemHooks registers custom item hooks. Nil is ignored.
func SetItemHooks(h ItemHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		itemHooks = h
	}
}

// SetSyncHooks registers custom sync hooks. Nil is ignored.
func SetSyncHooks(h SyncHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		syncHooks = h
	}
}

// SetStoreHooks registers custom store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Item returns the registered item hooks.
func Item() ItemHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return itemHooks
}

// Sync returns the registered sync hooks.
func Sync() SyncHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return syncHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults. Mostly useful in tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	itemHooks = NoopItemHooks{}
	syncHooks = NoopSyncHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
