// Package integration exercises profilez through its public API the way
// applications drive it: handler trees, worker fan-out, capture cycles.
package integration

import (
	"strings"
	"testing"

	"github.com/zoobzio/profilez"
)

// NodeAt walks path from the snapshot root, failing the test on the first
// missing hop.
func NodeAt(t *testing.T, snap profilez.Snapshot, path ...string) *profilez.Node {
	t.Helper()

	node := snap.Root
	if node == nil {
		t.Fatalf("Snapshot %s has no root", snap.Profiler)
	}
	for i, name := range path {
		next := node.Child(name)
		if next == nil {
			t.Fatalf("Section %s not found (walking %s)", name, strings.Join(path[:i+1], "/"))
		}
		node = next
	}
	return node
}

// AssertCount verifies a node's invocation count.
func AssertCount(t *testing.T, node *profilez.Node, want uint64) {
	t.Helper()

	if node.Count != want {
		t.Errorf("Expected %s count %d, got %d", node.Name, want, node.Count)
	}
}

// AssertAbsent verifies node has no child with the given name.
func AssertAbsent(t *testing.T, node *profilez.Node, name string) {
	t.Helper()

	if node.Child(name) != nil {
		t.Errorf("Expected no %s under %s", name, node.Name)
	}
}

// AssertCoversChildren verifies a node's inclusive total is at least the
// sum of its children's totals. Holds for well-nested spans closed on the
// context that opened them.
func AssertCoversChildren(t *testing.T, node *profilez.Node) {
	t.Helper()

	var sum uint64
	for _, c := range node.Children {
		sum += c.TotalNs
	}
	if node.TotalNs < sum {
		t.Errorf("Expected %s total %d to cover children sum %d",
			node.Name, node.TotalNs, sum)
	}
}
