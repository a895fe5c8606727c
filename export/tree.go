package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zoobzio/profilez"
)

// WriteTree renders snap as an indented text tree with per-node invocation
// count, total, mean, and share of the parent's time.
func WriteTree(w io.Writer, snap profilez.Snapshot) error {
	if snap.Root == nil {
		return fmt.Errorf("snapshot %s has no aggregation tree", snap.Profiler)
	}
	if _, err := fmt.Fprintf(w, "%s captured %s\n",
		snap.Profiler, snap.CapturedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	return writeTreeNode(w, snap.Root, 0, snap.Root.TotalNs)
}

func writeTreeNode(w io.Writer, n *profilez.Node, depth int, parentTotal uint64) error {
	pct := 0.0
	if parentTotal > 0 {
		pct = float64(n.TotalNs) / float64(parentTotal) * 100
	}

	_, err := fmt.Fprintf(w, "%s%s  count=%d total=%s avg=%s (%.1f%%)\n",
		strings.Repeat("  ", depth), n.Name,
		n.Count,
		time.Duration(n.TotalNs),
		time.Duration(n.AvgNs()),
		pct)
	if err != nil {
		return err
	}

	for _, c := range n.Children {
		if err := writeTreeNode(w, c, depth+1, n.TotalNs); err != nil {
			return err
		}
	}
	return nil
}
