package profilez

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// OverflowBucket is the child name that absorbs sections beyond a node's
// fan-out bound.
const OverflowBucket = "(other)"

// rootNodeName anchors every aggregation tree.
const rootNodeName = "root"

// Aggregator owns one shared aggregation tree and merges completed span
// trees into it. Safe for concurrent use by multiple goroutines: counters
// are atomic, and the per-node lock guards only child-map shape, so
// unrelated execution contexts never serialize on a global lock.
type Aggregator struct {
	root        *aggNode
	logger      *zap.Logger
	maxChildren int
}

// NewAggregator creates an aggregator with the given policy. A nil logger
// disables logging.
func NewAggregator(cfg Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		root:        newAggNode(rootNodeName),
		logger:      logger,
		maxChildren: cfg.MaxChildren,
	}
}

// Add merges one completed span tree into the aggregation tree: the
// synthetic root gains one invocation and the root span's duration, then
// every span in the tree accumulates by name at its depth. Counts and
// totals are commutative, so concurrent Add calls from different execution
// contexts never lose updates and their order does not matter.
func (a *Aggregator) Add(root Span) {
	if root == nil {
		return
	}
	a.root.count.Add(1)
	a.root.total.Add(clampTicks(root.Duration()))
	a.merge(a.root, root)
}

func (a *Aggregator) merge(parent *aggNode, s Span) {
	node := a.child(parent, s.Name())
	node.count.Add(1)
	node.total.Add(clampTicks(s.Duration()))
	for _, c := range s.Children() {
		a.merge(node, c)
	}
}

// clampTicks guards the uint64 conversion; a clock regression yields zero
// rather than a wrapped counter.
func clampTicks(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d)
}

// child returns the node for name under parent, creating it on first
// reference. At the fan-out bound, new names merge into the OverflowBucket
// child instead.
func (a *Aggregator) child(parent *aggNode, name string) *aggNode {
	parent.mu.RLock()
	node, ok := parent.children[name]
	parent.mu.RUnlock()
	if ok {
		return node
	}

	parent.mu.Lock()
	if node, ok := parent.children[name]; ok {
		parent.mu.Unlock()
		return node
	}
	size := len(parent.children)
	if a.maxChildren > 0 && size >= a.maxChildren && name != OverflowBucket {
		parent.mu.Unlock()
		return a.child(parent, OverflowBucket)
	}
	node = newAggNode(name)
	parent.children[name] = node
	parent.order = append(parent.order, name)
	parent.mu.Unlock()

	if name == OverflowBucket && a.maxChildren > 0 && size >= a.maxChildren {
		a.logger.Warn("aggregation fan-out bound reached",
			zap.String("node", parent.name),
			zap.Int("max_children", a.maxChildren))
	}
	return node
}

// Snapshot produces a deep copy of the aggregation tree. With clear, each
// counter is captured and zeroed in a single atomic swap, so no node is
// cleared before it is captured; node structure and child identities are
// retained.
func (a *Aggregator) Snapshot(clear bool) *Node {
	return a.root.snapshot(clear)
}

// Reset zeroes every counter in place, keeping node structure.
func (a *Aggregator) Reset() {
	a.root.reset()
}

// aggNode is one live aggregation tree node.
//
//nolint:govet // Field order optimized for readability over memory
type aggNode struct {
	name     string
	total    atomic.Uint64
	count    atomic.Uint64
	mu       sync.RWMutex
	children map[string]*aggNode
	order    []string
}

func newAggNode(name string) *aggNode {
	return &aggNode{
		name:     name,
		children: make(map[string]*aggNode),
	}
}

// ordered returns the node's children in first-seen insertion order.
func (n *aggNode) ordered() []*aggNode {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*aggNode, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

func (n *aggNode) snapshot(clear bool) *Node {
	var total, count uint64
	if clear {
		total = n.total.Swap(0)
		count = n.count.Swap(0)
	} else {
		total = n.total.Load()
		count = n.count.Load()
	}

	out := &Node{Name: n.name, TotalNs: total, Count: count}

	kids := n.ordered()
	if len(kids) > 0 {
		out.Children = make([]*Node, 0, len(kids))
		for _, k := range kids {
			out.Children = append(out.Children, k.snapshot(clear))
		}
	}
	return out
}

func (n *aggNode) reset() {
	n.total.Store(0)
	n.count.Store(0)
	for _, k := range n.ordered() {
		k.reset()
	}
}
