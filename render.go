package arbor

import (
	"context"
)

// paint walks the draw list once and calls the paint hooks of every node
// that is effectively visible, not fully transparent and whose clip touches
// dirty. A skipped node takes its whole contiguous span with it: its
// descendants are invisible, transparent or clipped away as well.
//
// Each painted node pushes its ClipFrame before OnPaint; the clip is popped
// after OnPaintEnd, once the next entry falls outside its subtree.
//
// Must run on the render thread with the dispatcher's render context.
func (s *Scene) paint(ctx context.Context, dirty Rect) (painted, skipped int) {
	nodes := s.list.Nodes()
	open := s.openBuf[:0]
	for i := 0; i < len(nodes); {
		n := nodes[i]
		for len(open) > 0 && !open[len(open)-1].IsAncestorOf(n) {
			s.endNode(ctx, open[len(open)-1])
			open = open[:len(open)-1]
		}
		if !n.EffectiveVisible() || n.alphaDst <= 0 || !n.clipFrame.Intersects(dirty) {
			end := s.list.spanEnd(i)
			skipped += end - i
			i = end
			continue
		}
		_ = s.d.PushClip(ctx, n.clipFrame)
		if n.OnPaint != nil {
			n.OnPaint(ctx, n, s.d)
		}
		open = append(open, n)
		painted++
		i++
	}
	for len(open) > 0 {
		s.endNode(ctx, open[len(open)-1])
		open = open[:len(open)-1]
	}
	s.openBuf = open[:0]
	return painted, skipped
}

func (s *Scene) endNode(ctx context.Context, n *Node) {
	if n.OnPaintEnd != nil {
		n.OnPaintEnd(ctx, n, s.d)
	}
	_ = s.d.PopClip(ctx)
}
