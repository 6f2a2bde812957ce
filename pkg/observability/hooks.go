// Package observability provides hooks for metrics, tracing, and logging.
//
// The viewer never depends on a specific observability backend. The binary
// registers hooks at startup and the libraries report events through them:
//   - Dispatch hooks: every input command handled or dropped
//   - Emit hooks: every protocol line written, and write failures
//   - Canvas hooks: graph loads and SVG renders
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDispatchHooks(&myDispatchHooks{})
//	    // ... run viewer
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	err := d.apply(ctx, cmd)
//	observability.Dispatch().OnCommand(ctx, string(cmd.Tag()), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Dispatch Hooks
// =============================================================================

// DispatchHooks receives events from the command dispatcher.
type DispatchHooks interface {
	// OnCommand records a handled input command.
	OnCommand(ctx context.Context, tag string, duration time.Duration, err error)

	// OnDrop records an input line that was ignored (malformed or unknown).
	OnDrop(ctx context.Context, tag string, reason error)
}

// =============================================================================
// Emit Hooks
// =============================================================================

// EmitHooks receives events from the protocol emitter.
type EmitHooks interface {
	// OnEmit records a message written to the output stream.
	OnEmit(ctx context.Context, kind string)

	// OnEmitError records a failed write to the output stream or a sink.
	OnEmitError(ctx context.Context, kind string, err error)
}

// =============================================================================
// Canvas Hooks
// =============================================================================

// CanvasHooks receives events from the rendering collaborator.
type CanvasHooks interface {
	// OnLoad records a graph replacement.
	OnLoad(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)

	// OnRender records an SVG render.
	OnRender(ctx context.Context, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDispatchHooks is a no-op implementation of DispatchHooks.
type NoopDispatchHooks struct{}

func (NoopDispatchHooks) OnCommand(context.Context, string, time.Duration, error) {}
func (NoopDispatchHooks) OnDrop(context.Context, string, error)                   {}

// NoopEmitHooks is a no-op implementation of EmitHooks.
type NoopEmitHooks struct{}

func (NoopEmitHooks) OnEmit(context.Context, string)             {}
func (NoopEmitHooks) OnEmitError(context.Context, string, error) {}

// NoopCanvasHooks is a no-op implementation of CanvasHooks.
type NoopCanvasHooks struct{}

func (NoopCanvasHooks) OnLoad(context.Context, int, int, time.Duration, error) {}
func (NoopCanvasHooks) OnRender(context.Context, int, time.Duration, error)    {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	dispatchHooks DispatchHooks = NoopDispatchHooks{}
	emitHooks     EmitHooks     = NoopEmitHooks{}
	canvasHooks   CanvasHooks   = NoopCanvasHooks{}
	hooksMu       sync.RWMutex
)

// SetDispatchHooks registers custom dispatch hooks.
// This should be called once at application startup before the viewer runs.
func SetDispatchHooks(h DispatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dispatchHooks = h
	}
}

// SetEmitHooks registers custom emit hooks.
func SetEmitHooks(h EmitHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		emitHooks = h
	}
}

// SetCanvasHooks registers custom canvas hooks.
func SetCanvasHooks(h CanvasHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		canvasHooks = h
	}
}

// Dispatch returns the registered dispatch hooks.
func Dispatch() DispatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dispatchHooks
}

// Emit returns the registered emit hooks.
func Emit() EmitHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return emitHooks
}

// Canvas returns the registered canvas hooks.
func Canvas() CanvasHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return canvasHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	dispatchHooks = NoopDispatchHooks{}
	emitHooks = NoopEmitHooks{}
	canvasHooks = NoopCanvasHooks{}
}
