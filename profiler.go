package profilez

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// TickSource supplies raw monotonic ticks, bypassing clock-based derivation.
// Ticks must be non-decreasing and share one unit (nanoseconds assumed) for
// the profiler's lifetime.
type TickSource func() int64

// NanoProfiler is the measuring engine behind Profiler.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type NanoProfiler struct {
	name   string
	agg    *Aggregator
	clock  clockz.Clock
	epoch  time.Time
	ticks  TickSource
	cfg    Config
	logger *zap.Logger
}

var _ Profiler = (*NanoProfiler)(nil)

// New creates a profiler with the given name.
// Uses the real clock and DefaultConfig; logging is off until WithLogger.
func New(name string) *NanoProfiler {
	return newProfiler(name, clockz.RealClock, nil, DefaultConfig(), zap.NewNop())
}

func newProfiler(name string, clock clockz.Clock, ticks TickSource, cfg Config, logger *zap.Logger) *NanoProfiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NanoProfiler{
		name:   name,
		agg:    NewAggregator(cfg, logger),
		clock:  clock,
		epoch:  clock.Now(),
		ticks:  ticks,
		cfg:    cfg,
		logger: logger,
	}
}

// WithClock returns a new profiler using the specified clock.
// Enables clock injection for deterministic testing. Aggregated state does
// not carry over.
func (p *NanoProfiler) WithClock(clock clockz.Clock) *NanoProfiler {
	return newProfiler(p.name, clock, p.ticks, p.cfg, p.logger)
}

// WithTickSource returns a new profiler reading ticks from src instead of
// deriving them from the clock. The clock still stamps snapshot times.
func (p *NanoProfiler) WithTickSource(src TickSource) *NanoProfiler {
	return newProfiler(p.name, p.clock, src, p.cfg, p.logger)
}

// WithConfig returns a new profiler with the given policy.
func (p *NanoProfiler) WithConfig(cfg Config) *NanoProfiler {
	return newProfiler(p.name, p.clock, p.ticks, cfg, p.logger)
}

// WithLogger returns a new profiler reporting contract violations to logger.
func (p *NanoProfiler) WithLogger(logger *zap.Logger) *NanoProfiler {
	return newProfiler(p.name, p.clock, p.ticks, p.cfg, logger)
}

// Name returns the profiler's identifier.
func (p *NanoProfiler) Name() string {
	return p.name
}

// Aggregator returns the profiler's shared aggregation tree.
func (p *NanoProfiler) Aggregator() *Aggregator {
	return p.agg
}

// tick returns the current tick count in nanoseconds.
func (p *NanoProfiler) tick() int64 {
	if p.ticks != nil {
		return p.ticks()
	}
	return p.clock.Now().Sub(p.epoch).Nanoseconds()
}

// Span returns a builder for a span named name.
func (p *NanoProfiler) Span(name Section) SpanBuilder {
	return &spanBuilder{prof: p, name: name}
}

// StartSpan opens a span immediately.
// If the context carries an open span, the new span becomes its child.
// Panics if name is empty.
func (p *NanoProfiler) StartSpan(ctx context.Context, name Section) (context.Context, Span) {
	return p.open(ctx, name, "", nil)
}

// StartFrame opens a frame boundary on ctx's execution context.
func (p *NanoProfiler) StartFrame(ctx context.Context) (context.Context, Frame) {
	// Handle nil context by creating a new one.
	if ctx == nil {
		ctx = context.Background()
	}

	sc := scopeFrom(ctx)
	if sc == nil {
		sc = &scope{}
		ctx = context.WithValue(ctx, scopeKey, sc)
	}

	return ctx, &frame{prof: p, scope: sc, startTick: p.tick()}
}

// Snapshot exports a stable copy of the aggregation tree, stamped with the
// profiler's name and the capture time.
func (p *NanoProfiler) Snapshot(clear bool) Snapshot {
	return Snapshot{
		Profiler:   p.name,
		CapturedAt: p.clock.Now(),
		Root:       p.agg.Snapshot(clear),
	}
}

// open creates a span on ctx's scope. The scope's current span becomes the
// parent; a parentless span registers as the scope's root.
func (p *NanoProfiler) open(ctx context.Context, name Section, category string, attrs []Attr) (context.Context, Span) {
	if name == "" {
		panic("profilez: span name must not be empty")
	}

	// Handle nil context by creating a new one.
	if ctx == nil {
		ctx = context.Background()
	}

	sc := scopeFrom(ctx)
	if sc == nil {
		// First span on this context chain installs the scope; nested
		// spans reuse it without another allocation.
		sc = &scope{}
		ctx = context.WithValue(ctx, scopeKey, sc)
	}

	s := &span{
		prof:      p,
		scope:     sc,
		parent:    sc.current,
		name:      name,
		category:  category,
		attrs:     attrs,
		startTick: p.tick(),
	}

	if s.parent != nil {
		s.parent.children = append(s.parent.children, s)
	} else {
		if sc.root != nil && !sc.root.closed.Load() {
			p.logger.Warn("root span replaced while still open",
				zap.String("profiler", p.name),
				zap.String("open_root", sc.root.name),
				zap.String("new_root", name))
		}
		sc.root = s
	}
	sc.current = s

	return ctx, s
}

// spanBuilder assembles one span for a NanoProfiler.
type spanBuilder struct {
	prof     *NanoProfiler
	name     Section
	category string
	attrs    []Attr
}

// Category tags the span with a category.
func (b *spanBuilder) Category(category string) SpanBuilder {
	b.category = category
	return b
}

// Attr appends one attribute, coercing the value to its string form.
func (b *spanBuilder) Attr(key string, value any) SpanBuilder {
	b.attrs = append(b.attrs, Attr{Key: key, Value: fmt.Sprint(value)})
	return b
}

// Start opens the built span on ctx.
func (b *spanBuilder) Start(ctx context.Context) (context.Context, Span) {
	return b.prof.open(ctx, b.name, b.category, b.attrs)
}

// SpanBodyError wraps a failure returned by an InSpan body.
type SpanBodyError struct {
	Section Section
	Err     error
}

func (e *SpanBodyError) Error() string {
	return fmt.Sprintf("span %q: body failed: %v", e.Section, e.Err)
}

// Unwrap returns the original body failure.
func (e *SpanBodyError) Unwrap() error {
	return e.Err
}

// InSpan opens a span, runs body with the span's context, and closes the
// span on every exit path. A body error comes back wrapped in
// *SpanBodyError; a body panic propagates after the span is closed.
func InSpan[T any](ctx context.Context, p Profiler, name Section, body func(context.Context) (T, error)) (T, error) {
	spanCtx, span := p.StartSpan(ctx, name)
	defer span.Close()

	out, err := body(spanCtx)
	if err != nil {
		var zero T
		return zero, &SpanBodyError{Section: name, Err: err}
	}
	return out, nil
}
