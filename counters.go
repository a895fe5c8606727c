package profilez

import (
	"sync"
	"sync/atomic"
)

// Counters is a named-counter utility independent of spans.
// Safe for concurrent use by multiple goroutines.
type Counters struct {
	mu     sync.RWMutex
	counts map[string]*atomic.Int64
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]*atomic.Int64)}
}

// counter returns the counter for name, creating it on first use.
func (c *Counters) counter(name string) *atomic.Int64 {
	c.mu.RLock()
	v, ok := c.counts[name]
	c.mu.RUnlock()
	if ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.counts[name]; ok {
		return v
	}
	v = new(atomic.Int64)
	c.counts[name] = v
	return v
}

// Inc adds 1 to the named counter.
func (c *Counters) Inc(name string) {
	c.counter(name).Add(1)
}

// Add adds delta to the named counter.
func (c *Counters) Add(name string, delta int64) {
	c.counter(name).Add(delta)
}

// Get returns the named counter's value, 0 if it was never touched.
func (c *Counters) Get(name string) int64 {
	c.mu.RLock()
	v, ok := c.counts[name]
	c.mu.RUnlock()
	if !ok {
		return 0
	}
	return v.Load()
}

// Snapshot returns a copy of every counter's current value.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(c.counts))
	for name, v := range c.counts {
		out[name] = v.Load()
	}
	return out
}

// Reset zeroes every counter, keeping registrations.
func (c *Counters) Reset() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.counts {
		v.Store(0)
	}
}
