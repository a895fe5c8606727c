package profilez

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// scopeKeyType is a private type for context keys to avoid collisions.
type scopeKeyType string

const (
	scopeKey scopeKeyType = "profilez"
)

// scope is one execution context's span stack: the innermost open span, the
// registered root, and the closed roots waiting for a frame boundary.
// A scope is owned by exactly one execution context and is never locked.
type scope struct {
	current *span
	root    *span
	pending []*span
}

// scopeFrom extracts the scope carried by ctx. Returns nil if none is
// present.
func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	if sc, ok := ctx.Value(scopeKey).(*scope); ok {
		return sc
	}
	return nil
}

// span is the engine's Span. It is confined to the execution context that
// opened it; only the closed flag is touched atomically, so that Close is
// idempotent even under misuse.
//
//nolint:govet // Field order optimized for readability over memory
type span struct {
	prof      *NanoProfiler
	scope     *scope
	parent    *span
	children  []*span
	attrs     []Attr
	name      Section
	category  string
	startTick int64
	endTick   int64
	closed    atomic.Bool
}

var _ Span = (*span)(nil)

// Name returns the section name.
func (s *span) Name() string {
	return s.name
}

// Category returns the optional category.
func (s *span) Category() string {
	return s.category
}

// Attrs returns a copy of the span's attributes in insertion order.
func (s *span) Attrs() []Attr {
	if len(s.attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Children returns the span's children as a read-only sequence.
func (s *span) Children() []Span {
	if len(s.children) == 0 {
		return nil
	}
	out := make([]Span, len(s.children))
	for i, c := range s.children {
		out[i] = c
	}
	return out
}

// Duration returns end minus start once closed, and a live, growing value
// while the span is open.
func (s *span) Duration() time.Duration {
	if s.closed.Load() {
		return time.Duration(s.endTick - s.startTick)
	}
	return time.Duration(s.prof.tick() - s.startTick)
}

// Close finalizes the span. Only the first call has effect: it records the
// end tick, restores the scope's current span to the parent, and hands a
// parentless span to the aggregator - immediately, or via the scope's
// pending list when the profiler requires frames.
func (s *span) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.endTick = s.prof.tick()

	sc := s.scope
	if sc.current != s {
		// Caller-contract violation; attribution below here is undefined.
		current := "none"
		if sc.current != nil {
			current = sc.current.name
		}
		s.prof.logger.Warn("span closed out of order",
			zap.String("profiler", s.prof.name),
			zap.String("span", s.name),
			zap.String("current", current))
	}
	sc.current = s.parent

	if s.parent != nil {
		return
	}
	if sc.root == s {
		sc.root = nil
	}
	if s.prof.cfg.RequireFrames {
		sc.pending = append(sc.pending, s)
		return
	}
	s.prof.agg.Add(s)
}
