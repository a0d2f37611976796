// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about HTTP calls, page fetches and retries.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    observability.SetCollectionHooks(&myCollectionHooks{})
//	    // ... run application
//	}
//
// Library code calls hooks to emit events:
//
//	observability.Collection().OnPageFetch(ctx, "terms", 3, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Collection Hooks
// =============================================================================

// CollectionHooks receives events from paged collections and the retry loop.
type CollectionHooks interface {
	// OnPageFetch records one page transition of a collection.
	OnPageFetch(ctx context.Context, kind string, page int, duration time.Duration, err error)

	// OnRetry records a transient failure that will be (or was last) retried.
	OnRetry(ctx context.Context, op string, attempt int, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCollectionHooks is a no-op implementation of CollectionHooks.
type NoopCollectionHooks struct{}

func (NoopCollectionHooks) OnPageFetch(context.Context, string, int, time.Duration, error) {}
func (NoopCollectionHooks) OnRetry(context.Context, string, int, error)                   {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	collectionHooks CollectionHooks = NoopCollectionHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetCollectionHooks registers custom collection hooks.
// This should be called once at application startup before any fetches.
func SetCollectionHooks(h CollectionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		collectionHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Collection returns the registered collection hooks.
func Collection() CollectionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return collectionHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	collectionHooks = NoopCollectionHooks{}
	httpHooks = NoopHTTPHooks{}
}
