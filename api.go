// Package profilez provides a minimal in-process performance profiler.
//
// profilez measures named code regions ("spans"), builds a call tree per
// execution context, and folds completed trees into a shared aggregation
// tree keyed by section name. It is designed for hot paths that need
// cumulative timing statistics (total time, invocation count, hierarchy)
// with predictable overhead, not for distributed tracing.
//
// Core Components:
//   - Profiler: caller-facing contract for spans, frames, and snapshots.
//   - NanoProfiler: the measuring engine behind Profiler.
//   - Span: a single timed, named execution scope.
//   - Frame: a coarser boundary that batches root spans for aggregation.
//   - Aggregator: the shared, concurrent aggregation tree.
//   - Snapshot / Node: immutable exports of the aggregation tree.
//
// Basic Usage:
//
//	prof := profilez.New("game")
//
//	ctx, span := prof.StartSpan(ctx, "update")
//	defer span.Close()
//
//	// Nested sections become children of the open span.
//	_, inner := prof.StartSpan(ctx, "physics")
//	inner.Close()
//
//	snap := prof.Snapshot(false)
//
// Frames:
//
// With Config.RequireFrames set, closed root spans wait at the frame
// boundary instead of aggregating one by one:
//
//	ctx, frame := prof.StartFrame(ctx)
//	// ... open and close spans ...
//	frame.Close() // drains this context's pending roots
//
// Thread Safety:
//
// A Profiler and its Aggregator are safe for concurrent use by multiple
// goroutines. A Span and the per-context stack it lives on belong to one
// execution context - do not share an open Span across goroutines. Close
// is idempotent and guarded by an atomic flag.
//
// Context Propagation:
//
// The per-context span stack travels inside context.Context, installed by
// the first StartSpan or StartFrame on a context chain. Concurrent units of
// work should each start from a context without a stack (or open their own
// frame) so every goroutine gets its own stack.
//
// Error Handling:
//
// Opening a span with an empty name panics. Closing spans out of LIFO
// order is reported through the injected logger and attribution becomes
// undefined. InSpan wraps body failures in *SpanBodyError.
package profilez

import (
	"context"
	"time"
)

// Section is an aggregation section name.
type Section = string

// Attr is one span attribute. Values are coerced to strings when set.
type Attr struct {
	Key   string
	Value string
}

// Profiler is the caller-facing contract. NanoProfiler implements it; NoOp
// is the inert variant.
type Profiler interface {
	// Name returns the profiler's identifier, stamped on snapshots.
	Name() string

	// Span returns a builder for a span named name.
	Span(name Section) SpanBuilder

	// StartSpan opens a span immediately. The returned context carries the
	// execution context's span stack; pass it to nested work. Panics if
	// name is empty.
	StartSpan(ctx context.Context, name Section) (context.Context, Span)

	// StartFrame opens a frame boundary on ctx's execution context.
	StartFrame(ctx context.Context) (context.Context, Frame)

	// Snapshot exports a stable copy of the aggregation tree, zeroing the
	// live counters when clear is true.
	Snapshot(clear bool) Snapshot
}

// Span is a single timed, named execution scope.
type Span interface {
	// Close finalizes the span. Idempotent; only the first call records
	// the end tick and triggers the aggregation hand-off.
	Close()

	// Duration is end minus start once closed, and a live, growing value
	// while the span is open.
	Duration() time.Duration

	// Name returns the section name.
	Name() string

	// Category returns the optional category.
	Category() string

	// Attrs returns the span's attributes in insertion order.
	Attrs() []Attr

	// Children returns the child spans as a read-only sequence.
	Children() []Span
}

// SpanBuilder assembles a span before starting it.
type SpanBuilder interface {
	// Category tags the span with a category.
	Category(category string) SpanBuilder

	// Attr appends one attribute; value is coerced with fmt.Sprint.
	Attr(key string, value any) SpanBuilder

	// Start opens the span on ctx.
	Start(ctx context.Context) (context.Context, Span)
}

// Frame is a coarser timing boundary that batches root spans emitted within
// one logical tick (a render cycle, a request) into one aggregation pass.
type Frame interface {
	// Elapsed is live until Close, final afterwards.
	Elapsed() time.Duration

	// Close drains the execution context's pending closed roots into the
	// aggregator. Idempotent; a no-op when nothing is pending.
	Close()
}
