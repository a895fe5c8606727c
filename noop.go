package profilez

import (
	"context"
	"time"
)

// NoOp is an inert Profiler: every operation succeeds and records nothing.
// A drop-in stand-in when profiling is disabled. InSpan still runs its body
// (and still wraps the body's failure).
var NoOp Profiler = noopProfiler{}

type noopProfiler struct{}

func (noopProfiler) Name() string {
	return "NOOP"
}

func (noopProfiler) Span(Section) SpanBuilder {
	return noopBuilder{}
}

func (noopProfiler) StartSpan(ctx context.Context, _ Section) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopSpan{}
}

func (noopProfiler) StartFrame(ctx context.Context) (context.Context, Frame) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopFrame{}
}

func (noopProfiler) Snapshot(bool) Snapshot {
	return Snapshot{Profiler: "NOOP", Root: &Node{Name: rootNodeName}}
}

type noopBuilder struct{}

func (noopBuilder) Category(string) SpanBuilder  { return noopBuilder{} }
func (noopBuilder) Attr(string, any) SpanBuilder { return noopBuilder{} }

func (noopBuilder) Start(ctx context.Context) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) Close()                  {}
func (noopSpan) Duration() time.Duration { return 0 }
func (noopSpan) Name() string            { return "" }
func (noopSpan) Category() string        { return "" }
func (noopSpan) Attrs() []Attr           { return nil }
func (noopSpan) Children() []Span        { return nil }

type noopFrame struct{}

func (noopFrame) Elapsed() time.Duration { return 0 }
func (noopFrame) Close()                 {}
