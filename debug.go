package arbor

import (
	"fmt"
	"log/slog"
	"time"
)

// debugStats holds per-frame timing and paint metrics.
// Only logged when the Scene is in debug mode.
type debugStats struct {
	layoutTime  time.Duration
	paintTime   time.Duration
	presentTime time.Duration
	dirtyCount  int
	painted     int
	skipped     int
}

// debugLog prints timing and paint stats through the scene logger.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug.Load() {
		return
	}
	total := stats.layoutTime + stats.paintTime + stats.presentTime
	s.log.Debug("arbor frame",
		"layout", stats.layoutTime,
		"paint", stats.paintTime,
		"present", stats.presentTime,
		"total", total,
		"dirty", stats.dirtyCount,
		"painted", stats.painted,
		"skipped", stats.skipped,
	)
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("arbor debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		slog.Warn("arbor: tree depth exceeds threshold",
			"depth", depth, "threshold", debugMaxTreeDepth, "node", n.Name)
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		slog.Warn("arbor: child count exceeds threshold",
			"node", n.Name, "children", len(n.children), "threshold", debugMaxChildCount)
	}
}
