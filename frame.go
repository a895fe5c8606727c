package profilez

import (
	"sync/atomic"
	"time"
)

// frame is the engine's Frame.
type frame struct {
	prof      *NanoProfiler
	scope     *scope
	startTick int64
	endTick   int64
	closed    atomic.Bool
}

var _ Frame = (*frame)(nil)

// Elapsed returns the live duration until Close, the final one afterwards.
func (f *frame) Elapsed() time.Duration {
	if f.closed.Load() {
		return time.Duration(f.endTick - f.startTick)
	}
	return time.Duration(f.prof.tick() - f.startTick)
}

// Close drains the scope's pending closed roots into the aggregator,
// exactly once each. Only the first call has effect. Roots still open at
// close stay unaggregated; a frame with nothing pending is a no-op.
func (f *frame) Close() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	f.endTick = f.prof.tick()

	pending := f.scope.pending
	f.scope.pending = nil
	for _, s := range pending {
		f.prof.agg.Add(s)
	}
}
