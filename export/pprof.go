// Package export renders profilez snapshots for external tooling: pprof
// protobufs, Brendan Gregg folded stacks, and plain text trees.
//
// Every renderer takes a Snapshot value, so exports work on the wire form
// (a decoded JSON snapshot) as well as on a live profiler's output.
package export

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"github.com/zoobzio/profilez"
)

// Profile converts a snapshot to a pprof profile. Each aggregation node
// becomes one sample valued [self-nanoseconds, invocation count] located at
// its section path, so standard pprof tooling renders the tree as a flame
// graph whose areas sum to the measured time.
func Profile(snap profilez.Snapshot) (*profile.Profile, error) {
	if snap.Root == nil {
		return nil, fmt.Errorf("snapshot %s has no aggregation tree", snap.Profiler)
	}

	b := &profileBuilder{
		prof: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "time", Unit: "nanoseconds"},
				{Type: "calls", Unit: "count"},
			},
			TimeNanos:     snap.CapturedAt.UnixNano(),
			DurationNanos: int64(snap.Root.TotalNs),
			PeriodType:    &profile.ValueType{Type: "time", Unit: "nanoseconds"},
			Period:        1,
		},
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}

	// The synthetic root is bookkeeping, not a section; its children are
	// the real stacks.
	for _, child := range snap.Root.Children {
		b.walk(child, nil)
	}
	return b.prof, nil
}

// WriteProfile renders snap as a pprof protobuf on w.
func WriteProfile(w io.Writer, snap profilez.Snapshot) error {
	prof, err := Profile(snap)
	if err != nil {
		return err
	}
	if err := prof.CheckValid(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := prof.Write(w); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// profileBuilder interns functions and locations by section name while
// walking the tree; the same section at different depths shares one
// location, with the sample's stack carrying the position.
type profileBuilder struct {
	prof      *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
}

// walk emits one sample per visited node. pprof stacks are leaf-first.
func (b *profileBuilder) walk(n *profilez.Node, parents []*profile.Location) {
	stack := append([]*profile.Location{b.location(n.Name)}, parents...)

	if n.Count > 0 {
		b.prof.Sample = append(b.prof.Sample, &profile.Sample{
			Location: stack,
			Value:    []int64{selfNanos(n), int64(n.Count)},
		})
	}
	for _, c := range n.Children {
		b.walk(c, stack)
	}
}

func (b *profileBuilder) location(name string) *profile.Location {
	if loc, ok := b.locations[name]; ok {
		return loc
	}

	fn, ok := b.functions[name]
	if !ok {
		fn = &profile.Function{
			ID:         uint64(len(b.functions) + 1),
			Name:       name,
			SystemName: name,
		}
		b.functions[name] = fn
		b.prof.Function = append(b.prof.Function, fn)
	}

	loc := &profile.Location{
		ID:   uint64(len(b.locations) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	b.locations[name] = loc
	b.prof.Location = append(b.prof.Location, loc)
	return loc
}

// selfNanos is a node's total minus its children's totals, clamped at zero
// so cross-level clock skew cannot produce a negative sample.
func selfNanos(n *profilez.Node) int64 {
	self := int64(n.TotalNs)
	for _, c := range n.Children {
		self -= int64(c.TotalNs)
	}
	if self < 0 {
		return 0
	}
	return self
}
