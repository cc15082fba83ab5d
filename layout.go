package arbor

import (
	"log/slog"
	"math"
)

// --- Entry points ---

// Layout recomputes the frames of n's whole subtree inside n's current
// frame. Calling it twice with no mutation in between yields identical
// frames.
func (n *Node) Layout() {
	n.layoutChildren(0, len(n.children))
}

// Relayout recomputes only what a change to n can affect. When the parent
// sizes itself from its content the change bubbles up to it. A Block or
// Linear parent recomputes n and every later sibling; an Absolute or Center
// parent recomputes n alone. A root lays out its own subtree.
func (n *Node) Relayout() {
	p := n.parent
	if p == nil {
		if n.autoSize {
			n.frame.Width, n.frame.Height = n.rootAutoSize()
			n.clipFrame = n.frame
		}
		n.Layout()
		n.invalidate()
		return
	}
	if p.autoSize {
		p.Relayout()
		return
	}
	i := n.IndexInParent()
	switch {
	case p.mode.sequential():
		p.layoutChildren(i, len(p.children))
	case p.mode == LayoutGrid:
		if !n.hidden {
			n.settle(n.frame)
		}
	default:
		p.layoutChildren(i, i+1)
	}
	p.invalidate()
}

// rootAutoSize sizes a parentless auto-size node. Percent and fill-minus
// axes have no parent content box to resolve against and collapse to 0.
func (n *Node) rootAutoSize() (float64, float64) {
	in := n.intrinsicSize()
	var out [2]float64
	for a := 0; a < 2; a++ {
		if n.size[a].Unit == UnitPixel {
			out[a] = in.axis(a)
		}
	}
	return n.clampSize(out, n.EffectiveScale())
}

// --- Pass ---

// layoutChildren lays out the non-hidden children with index in [from, to).
// Sequential modes replay earlier siblings from their existing frames to
// find the starting cursor.
func (n *Node) layoutChildren(from, to int) {
	if n.mode == LayoutGrid {
		if from < to {
			slog.Debug("arbor: grid layout not implemented, keeping child frames", "node", n.Name)
		}
		for i := from; i < to && i < len(n.children); i++ {
			if c := n.children[i]; !c.hidden {
				c.settle(c.frame)
			}
		}
		return
	}
	n.arrange(n.contentBox(), from, to, true, func(c *Node, r Rect) {
		c.settle(r)
	})
}

// settle writes c's frame, narrows its clip, lays out its children and
// fires OnLayout.
func (n *Node) settle(r Rect) {
	n.frame = r
	if n.parent != nil {
		n.clipFrame = n.parent.clipFrame.Intersect(r)
	} else {
		n.clipFrame = r
	}
	n.layoutChildren(0, len(n.children))
	if n.OnLayout != nil {
		n.OnLayout(n)
	}
}

// contentBox is the frame shrunk by padding scaled by n's effective scale.
func (n *Node) contentBox() Rect {
	s := n.EffectiveScale()
	p := n.padding
	return Rect{
		X:      n.frame.X + p.Left*s.X,
		Y:      n.frame.Y + p.Top*s.Y,
		Width:  math.Max(0, n.frame.Width-(p.Left+p.Right)*s.X),
		Height: math.Max(0, n.frame.Height-(p.Top+p.Bottom)*s.Y),
	}
}

// --- Placement ---

// arrange places the non-hidden children in [from, to) inside box and hands
// each rectangle to emit. Children before from only advance the cursor,
// using their current frame size. wrap is false while measuring content.
func (n *Node) arrange(box Rect, from, to int, wrap bool, emit func(c *Node, r Rect)) {
	if to > len(n.children) {
		to = len(n.children)
	}
	if from < 0 {
		from = 0
	}
	ps := n.EffectiveScale()
	ext := [2]float64{box.Width, box.Height}

	switch {
	case n.mode == LayoutBlock:
		n.arrangeBlock(box, ps, from, to, wrap, emit)
	case n.mode.linear():
		n.arrangeLinear(box, ps, from, to, emit)
	case n.mode == LayoutAbsolute:
		for i := from; i < to; i++ {
			c := n.children[i]
			if c.hidden {
				continue
			}
			off := resolveOffsets(c, ext, ps)
			sz := n.childSize(c, ext, [2]float64{ext[0] - off[0], ext[1] - off[1]})
			emit(c, Rect{X: box.X + off[0], Y: box.Y + off[1], Width: sz[0], Height: sz[1]})
		}
	case n.mode == LayoutCenter:
		for i := from; i < to; i++ {
			c := n.children[i]
			if c.hidden {
				continue
			}
			off := resolveOffsets(c, ext, ps)
			sz := n.childSize(c, ext, ext)
			emit(c, Rect{
				X:      box.X + (ext[0]-sz[0])/2 + off[0],
				Y:      box.Y + (ext[1]-sz[1])/2 + off[1],
				Width:  sz[0],
				Height: sz[1],
			})
		}
	default:
		// Grid while measuring: children contribute their current size.
		for i := from; i < to; i++ {
			if c := n.children[i]; !c.hidden {
				emit(c, Rect{X: box.X, Y: box.Y, Width: c.frame.Width, Height: c.frame.Height})
			}
		}
	}
}

// arrangeBlock flows children left to right, wrapping below the tallest
// child of the line. The first child on a line never wraps, so an over-wide
// singleton overflows the box instead.
func (n *Node) arrangeBlock(box Rect, ps Vec2, from, to int, wrap bool, emit func(*Node, Rect)) {
	ext := [2]float64{box.Width, box.Height}
	x, y := box.X, box.Y
	lineH := 0.0
	onLine := 0
	for i := 0; i < to; i++ {
		c := n.children[i]
		if c.hidden {
			continue
		}
		off := resolveOffsets(c, ext, ps)
		var sz [2]float64
		if i < from {
			sz = [2]float64{c.frame.Width, c.frame.Height}
		} else {
			sz = n.childSize(c, ext, [2]float64{box.Right() - x - off[0], box.Bottom() - y - off[1]})
		}
		if wrap && onLine > 0 && x+off[0]+sz[0] > box.Right() {
			x = box.X
			y += lineH
			lineH = 0
			onLine = 0
			if i >= from {
				sz = n.childSize(c, ext, [2]float64{box.Right() - x - off[0], box.Bottom() - y - off[1]})
			}
		}
		r := Rect{X: x + off[0], Y: y + off[1], Width: sz[0], Height: sz[1]}
		x = r.Right()
		lineH = math.Max(lineH, off[1]+sz[1])
		onLine++
		if i >= from {
			emit(c, r)
		}
	}
}

// linearFlags decodes a Linear mode into its main axis, whether the main
// axis accumulates from the end edge, and whether the cross axis anchors to
// the far edge.
func linearFlags(m LayoutMode) (horizontal, flip, swap bool) {
	switch m {
	case LayoutLinearHorizontal:
		return true, false, false
	case LayoutLinearVerticalReverse:
		return false, true, true
	case LayoutLinearHorizontalReverse:
		return true, true, true
	default:
		return false, false, false
	}
}

// arrangeLinear stacks children along one axis. A child's declared offset on
// the main axis acts as a leading gap; on the cross axis it is an inset from
// the anchored edge.
func (n *Node) arrangeLinear(box Rect, ps Vec2, from, to int, emit func(*Node, Rect)) {
	horizontal, flip, swap := linearFlags(n.mode)
	a, b := 1, 0
	if horizontal {
		a, b = 0, 1
	}
	ext := [2]float64{box.Width, box.Height}
	start := [2]float64{box.X, box.Y}
	end := [2]float64{box.Right(), box.Bottom()}

	cursor := 0.0
	for i := 0; i < to; i++ {
		c := n.children[i]
		if c.hidden {
			continue
		}
		off := resolveOffsets(c, ext, ps)
		var sz [2]float64
		if i < from {
			sz = [2]float64{c.frame.Width, c.frame.Height}
		} else {
			var remaining [2]float64
			remaining[a] = ext[a] - cursor - off[a]
			remaining[b] = ext[b] - off[b]
			sz = n.childSize(c, ext, remaining)
		}
		var pos [2]float64
		if flip {
			pos[a] = end[a] - cursor - off[a] - sz[a]
		} else {
			pos[a] = start[a] + cursor + off[a]
		}
		if swap {
			pos[b] = end[b] - off[b] - sz[b]
		} else {
			pos[b] = start[b] + off[b]
		}
		cursor += off[a] + sz[a]
		if i >= from {
			emit(c, Rect{X: pos[0], Y: pos[1], Width: sz[0], Height: sz[1]})
		}
	}
}

// --- Units ---

// resolveOffsets turns c's declared position into render-space offsets.
// Pixel offsets scale with the parent's effective scale ps.
func resolveOffsets(c *Node, ext [2]float64, ps Vec2) [2]float64 {
	var off [2]float64
	for a := 0; a < 2; a++ {
		off[a] = resolveDim(c.pos[a], ext[a], ext[a], ps.axis(a))
	}
	return off
}

func resolveDim(d Dim, extent, remaining, scale float64) float64 {
	switch d.Unit {
	case UnitPercent:
		return d.Value / 100 * extent
	case UnitFillMinus:
		return math.Max(0, remaining-d.Value*scale)
	default:
		return d.Value * scale
	}
}

// childSize resolves c's size against the parent's content extent and the
// extent still free at c's position. Pixel axes of an auto-size child take
// its intrinsic size instead of the declared value.
func (n *Node) childSize(c *Node, ext, remaining [2]float64) [2]float64 {
	cs := c.EffectiveScale()
	var out [2]float64
	var intrinsic *Vec2
	for a := 0; a < 2; a++ {
		d := c.size[a]
		if c.autoSize && d.Unit == UnitPixel {
			if intrinsic == nil {
				v := c.intrinsicSize()
				intrinsic = &v
			}
			out[a] = intrinsic.axis(a)
			continue
		}
		out[a] = resolveDim(d, ext[a], remaining[a], cs.axis(a))
	}
	w, h := c.clampSize(out, cs)
	return [2]float64{w, h}
}

// clampSize applies MinSize and MaxSize scaled by s. A MaxSize axis of 0 is
// unbounded; MinSize wins when the two conflict.
func (n *Node) clampSize(sz [2]float64, s Vec2) (float64, float64) {
	for a := 0; a < 2; a++ {
		if hi := n.maxSize.axis(a) * s.axis(a); hi > 0 && sz[a] > hi {
			sz[a] = hi
		}
		if lo := n.minSize.axis(a) * s.axis(a); sz[a] < lo {
			sz[a] = lo
		}
	}
	return sz[0], sz[1]
}

// intrinsicSize is the content size of n plus its scaled padding. Measure
// wins when set; otherwise the children are arranged without wrapping in an
// empty box and their bounding extent is taken.
func (n *Node) intrinsicSize() Vec2 {
	var content Vec2
	if n.Measure != nil {
		content = n.Measure(n)
	} else {
		var minX, minY, maxX, maxY float64
		n.arrange(Rect{}, 0, len(n.children), false, func(_ *Node, r Rect) {
			minX = math.Min(minX, r.X)
			minY = math.Min(minY, r.Y)
			maxX = math.Max(maxX, r.Right())
			maxY = math.Max(maxY, r.Bottom())
		})
		content = Vec2{X: maxX - minX, Y: maxY - minY}
	}
	s := n.EffectiveScale()
	p := n.padding
	return Vec2{
		X: content.X + (p.Left+p.Right)*s.X,
		Y: content.Y + (p.Top+p.Bottom)*s.Y,
	}
}
