// Package observability provides hooks for metrics, tracing, and logging.
//
// Library packages emit events through the registered hooks without
// depending on any particular backend. The CLI registers implementations
// that write debug logs; everything else sees the no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGeneratorHooks(&myGeneratorHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generator().OnGenerateStart(ctx, typ, functions)
//	// ... generate ...
//	observability.Generator().OnGenerateComplete(ctx, typ, points, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generator Hooks
// =============================================================================

// GeneratorHooks receives events from output set generation.
type GeneratorHooks interface {
	OnGenerateStart(ctx context.Context, outputType string, functions int)
	OnGenerateComplete(ctx context.Context, outputType string, points int, duration time.Duration, err error)
}

// =============================================================================
// Spill Hooks
// =============================================================================

// SpillHooks receives events when output sets move between memory and disk.
type SpillHooks interface {
	// OnSpill records a spill file write.
	OnSpill(ctx context.Context, id int64, points int, duration time.Duration, err error)

	// OnReload records a spill file read.
	OnReload(ctx context.Context, id int64, points int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGeneratorHooks is a no-op implementation of GeneratorHooks.
type NoopGeneratorHooks struct{}

func (NoopGeneratorHooks) OnGenerateStart(context.Context, string, int) {}
func (NoopGeneratorHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
}

// NoopSpillHooks is a no-op implementation of SpillHooks.
type NoopSpillHooks struct{}

func (NoopSpillHooks) OnSpill(context.Context, int64, int, time.Duration, error)  {}
func (NoopSpillHooks) OnReload(context.Context, int64, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generatorHooks GeneratorHooks = NoopGeneratorHooks{}
	spillHooks     SpillHooks     = NoopSpillHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetGeneratorHooks registers custom generator hooks.
// This should be called once at application startup before any generation.
func SetGeneratorHooks(h GeneratorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generatorHooks = h
	}
}

// SetSpillHooks registers custom spill hooks.
func SetSpillHooks(h SpillHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		spillHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Generator returns the registered generator hooks.
func Generator() GeneratorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generatorHooks
}

// Spill returns the registered spill hooks.
func Spill() SpillHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return spillHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generatorHooks = NoopGeneratorHooks{}
	spillHooks = NoopSpillHooks{}
	cacheHooks = NoopCacheHooks{}
}
