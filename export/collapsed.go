package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/zoobzio/profilez"
)

// WriteCollapsed renders snap in folded-stack form, one
// "path;to;section <self-ns>" line per node, ready for flamegraph.pl and
// speedscope. A node whose time sits entirely in its children gets no line
// of its own.
func WriteCollapsed(w io.Writer, snap profilez.Snapshot) error {
	if snap.Root == nil {
		return fmt.Errorf("snapshot %s has no aggregation tree", snap.Profiler)
	}
	for _, child := range snap.Root.Children {
		if err := writeCollapsedNode(w, child, nil); err != nil {
			return err
		}
	}
	return nil
}

func writeCollapsedNode(w io.Writer, n *profilez.Node, path []string) error {
	path = append(path, n.Name)

	if self := selfNanos(n); self > 0 {
		if _, err := fmt.Fprintf(w, "%s %d\n", strings.Join(path, ";"), self); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := writeCollapsedNode(w, c, path); err != nil {
			return err
		}
	}
	return nil
}
