package arbor

import (
	"context"
	"sync/atomic"

	"github.com/phanxgames/arbor/gfx"
)

var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// PaintFunc draws a node. It runs on the render thread; ctx routes further
// dispatcher calls inline.
type PaintFunc func(ctx context.Context, n *Node, d *gfx.Dispatcher)

// Node is a positionable, sizable rectangle in the scene graph. A node owns
// its children; the parent pointer is a non-owning back-reference.
//
// Nodes have no internal locking. Mutate a bound tree only from the render
// thread, e.g. inside Scene.Update.
type Node struct {
	// Identity
	ID       uint32
	Name     string
	UserData any

	// Hierarchy
	parent   *Node
	children []*Node
	list     *DrawList // non-nil while bound into a rendering root's draw list

	// Geometry
	frame     Rect
	clipFrame Rect
	padding   Insets
	pos       [2]Dim
	size      [2]Dim
	minSize   Vec2
	maxSize   Vec2 // 0 on an axis means unbounded
	scale     Vec2
	dpi       float64

	// Presentation
	alphaSrc        float64
	alphaDst        float64
	visible         bool
	ancestorVisible bool

	// Flags
	autoSize bool
	hidden   bool
	mode     LayoutMode

	// OnLayout fires after the layout engine settles this node's frame.
	// Layout runs on the render thread, so OnLayout and Measure may call
	// the dispatcher directly; such calls run inline.
	OnLayout func(n *Node)
	// Measure reports the intrinsic content size of an auto-size node in
	// render-space pixels, excluding padding. When nil the content size is
	// derived from children.
	Measure func(n *Node) Vec2
	// OnPaint draws the node; OnPaintEnd fires once its subtree is done.
	OnPaint    PaintFunc
	OnPaintEnd PaintFunc

	disposed bool
}

// NewNode creates a detached node with absolute layout, unit scale and full
// opacity.
func NewNode(name string) *Node {
	return &Node{
		ID:              nextNodeID(),
		Name:            name,
		scale:           Vec2{1, 1},
		dpi:             1,
		alphaSrc:        1,
		alphaDst:        1,
		visible:         true,
		ancestorVisible: true,
		mode:            LayoutAbsolute,
	}
}

// --- Tree manipulation ---

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns every child, hidden ones included. The returned slice
// MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children that are not hidden.
func (n *Node) NumChildren() int {
	count := 0
	for _, c := range n.children {
		if !c.hidden {
			count++
		}
	}
	return count
}

// ChildAt returns the i-th child that is not hidden, or nil when i is out of
// range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 {
		return nil
	}
	for _, c := range n.children {
		if c.hidden {
			continue
		}
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

// AddChild appends child. See AddChildAt.
func (n *Node) AddChild(child *Node) bool {
	return n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at index among all children (hidden included).
// It fails when child is nil, already has a parent, roots a draw list, is an
// ancestor of n, or when either node is disposed. On success the child
// inherits DPI, opacity and visibility, and when n is bound its subtree is
// spliced into the draw list right after the subtree of the preceding
// sibling.
func (n *Node) AddChildAt(child *Node, index int) bool {
	if child == nil || child == n || child.parent != nil || child.list != nil {
		return false
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild")
		debugCheckDisposed(child, "AddChild")
	}
	if child.disposed || n.disposed || child.IsAncestorOf(n) {
		return false
	}
	if index < 0 || index > len(n.children) {
		return false
	}
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	child.parent = n

	child.setDPI(n.dpi)
	child.updateAlpha()
	child.ancestorVisible = n.EffectiveVisible()
	child.cascadeVisible()

	if n.list != nil && !child.hidden {
		n.list.insertSubtree(child)
	}
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
	if !child.hidden {
		child.Relayout()
	}
	n.invalidate()
	return true
}

// RemoveChild detaches target, which may be any strict descendant of n. Its
// whole span is removed from the draw list first, then it leaves its
// parent's children. onRemoved, when non-nil, is called for every node of
// the removed subtree in pre-order. Returns false without mutating anything
// when target is not a descendant of n.
func (n *Node) RemoveChild(target *Node, onRemoved func(*Node)) bool {
	if target == nil || target == n || !n.IsAncestorOf(target) {
		return false
	}
	p := target.parent
	idx := target.IndexInParent()
	if target.list != nil {
		target.list.removeSubtree(target)
	}
	p.removeChildByPtr(target)
	target.parent = nil
	target.clipFrame = target.frame

	target.updateAlpha()
	target.ancestorVisible = true
	target.cascadeVisible()

	if onRemoved != nil {
		target.Walk(func(d *Node) bool {
			onRemoved(d)
			return true
		})
	}
	if !target.hidden {
		p.closeGap(idx)
	}
	p.invalidate()
	return true
}

// closeGap relays out what the removal of the child at index i affected: an
// auto-size parent resizes, and a sequential parent moves the later
// siblings up.
func (n *Node) closeGap(i int) {
	switch {
	case n.autoSize:
		n.Relayout()
	case n.mode.sequential():
		n.layoutChildren(i, len(n.children))
	}
}

// RemoveFromParent detaches n from its parent. No-op for a root.
func (n *Node) RemoveFromParent() bool {
	if n.parent == nil {
		return false
	}
	return n.parent.RemoveChild(n, nil)
}

// IndexInParent returns n's index among all of its parent's children, or -1.
func (n *Node) IndexInParent() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// IsAncestorOf reports whether n is a strict ancestor of d.
func (n *Node) IsAncestorOf(d *Node) bool {
	if d == nil {
		return false
	}
	for p := d.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Find returns the first node named name in n's subtree (n included, hidden
// nodes included) in pre-order, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(d *Node) bool {
		if d.Name == name {
			found = d
			return false
		}
		return true
	})
	return found
}

// Walk visits n and its descendants in pre-order until fn returns false.
// It reports whether the walk ran to completion.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Bound reports whether n currently has a draw-list entry.
func (n *Node) Bound() bool { return n.list != nil }

// --- Disposal ---

// Dispose detaches n (draw list first) and disposes its whole subtree.
// Disposed nodes refuse further attachment.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	if n.parent != nil {
		n.parent.RemoveChild(n, nil)
	} else if n.list != nil {
		n.list.removeSubtree(n)
	}
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, c := range n.children {
		c.parent = nil
		c.dispose()
	}
	n.children = nil
	n.OnLayout = nil
	n.Measure = nil
	n.OnPaint = nil
	n.OnPaintEnd = nil
	n.UserData = nil
}

// IsDisposed reports whether Dispose has been called.
func (n *Node) IsDisposed() bool { return n.disposed }

// --- Visibility & opacity ---

// Visible returns the locally authored visibility.
func (n *Node) Visible() bool { return n.visible }

// EffectiveVisible reports whether n and all of its ancestors are visible.
func (n *Node) EffectiveVisible() bool { return n.visible && n.ancestorVisible }

// SetVisible sets local visibility and eagerly pushes the resulting
// effective visibility down to every descendant.
func (n *Node) SetVisible(v bool) {
	n.visible = v
	n.cascadeVisible()
	n.invalidate()
}

func (n *Node) cascadeVisible() {
	eff := n.EffectiveVisible()
	for _, c := range n.children {
		c.ancestorVisible = eff
		c.cascadeVisible()
	}
}

// AlphaSrc returns the locally authored opacity.
func (n *Node) AlphaSrc() float64 { return n.alphaSrc }

// AlphaDst returns the effective opacity: AlphaSrc times the parent's
// AlphaDst.
func (n *Node) AlphaDst() float64 { return n.alphaDst }

// SetAlpha sets the local opacity, clamped to [0, 1], and recomputes
// AlphaDst for the subtree.
func (n *Node) SetAlpha(a float64) {
	n.alphaSrc = clamp(a, 0, 1)
	n.updateAlpha()
	n.invalidate()
}

func (n *Node) updateAlpha() {
	parent := 1.0
	if n.parent != nil {
		parent = n.parent.alphaDst
	}
	n.alphaDst = n.alphaSrc * parent
	for _, c := range n.children {
		c.updateAlpha()
	}
}

// --- Flags ---

// Hidden reports whether n is excluded from layout, drawing and child counts.
func (n *Node) Hidden() bool { return n.hidden }

// SetHidden hides or reveals n. A hidden node stays in the tree for Find but
// leaves the draw list (with its subtree) and the layout.
func (n *Node) SetHidden(h bool) {
	if n.hidden == h {
		return
	}
	if p := n.parent; p != nil && p.list != nil {
		if h {
			p.list.removeSubtree(n)
		} else {
			n.hidden = false
			p.list.insertSubtree(n)
		}
	}
	n.hidden = h
	if n.parent != nil {
		n.Relayout()
	}
}

// AutoSize reports whether content dictates n's size.
func (n *Node) AutoSize() bool { return n.autoSize }

// SetAutoSize toggles content-driven sizing.
func (n *Node) SetAutoSize(v bool) {
	n.autoSize = v
	n.Relayout()
}

// LayoutMode returns the algorithm n applies to its children.
func (n *Node) LayoutMode() LayoutMode { return n.mode }

// SetLayoutMode changes the layout algorithm and forces a recompute of the
// children.
func (n *Node) SetLayoutMode(m LayoutMode) {
	n.mode = m
	n.Layout()
}

// --- Geometry ---

// Frame returns the absolute render-space rectangle.
func (n *Node) Frame() Rect { return n.frame }

// ClipFrame returns Frame intersected with the ancestors' clip chain.
func (n *Node) ClipFrame() Rect { return n.clipFrame }

// SetFrame writes the frame directly. It is meant for roots and hidden
// nodes; the layout engine overwrites it for everything else. The clip is
// re-derived from the parent and the children are laid out again.
func (n *Node) SetFrame(r Rect) {
	n.frame = r
	n.clipFrame = r
	if n.parent != nil {
		n.clipFrame = n.parent.clipFrame.Intersect(r)
	}
	n.Layout()
	n.invalidate()
}

// Padding returns the unscaled padding.
func (n *Node) Padding() Insets { return n.padding }

// SetPadding sets the padding and relays out the children.
func (n *Node) SetPadding(p Insets) {
	n.padding = p
	n.Relayout()
}

// Position returns the declared position.
func (n *Node) Position() (x, y Dim) { return n.pos[0], n.pos[1] }

// SetPosition declares the node's offset.
func (n *Node) SetPosition(x, y Dim) {
	n.pos = [2]Dim{x, y}
	n.Relayout()
}

// Size returns the declared size.
func (n *Node) Size() (w, h Dim) { return n.size[0], n.size[1] }

// SetSize declares the node's size.
func (n *Node) SetSize(w, h Dim) {
	n.size = [2]Dim{w, h}
	n.Relayout()
}

// MinSize returns the unscaled minimum size.
func (n *Node) MinSize() Vec2 { return n.minSize }

// SetMinSize sets the unscaled minimum size.
func (n *Node) SetMinSize(v Vec2) {
	n.minSize = v
	n.Relayout()
}

// MaxSize returns the unscaled maximum size; 0 on an axis is unbounded.
func (n *Node) MaxSize() Vec2 { return n.maxSize }

// SetMaxSize sets the unscaled maximum size.
func (n *Node) SetMaxSize(v Vec2) {
	n.maxSize = v
	n.Relayout()
}

// Scale returns the local per-axis rect scale.
func (n *Node) Scale() Vec2 { return n.scale }

// SetScale sets the local rect scale. It composes with every ancestor's
// scale and the ambient DPI.
func (n *Node) SetScale(sx, sy float64) {
	n.scale = Vec2{sx, sy}
	n.Relayout()
}

// DPI returns the ambient DPI scale inherited from the root.
func (n *Node) DPI() float64 { return n.dpi }

// SetDPI sets the ambient DPI scale on n's subtree and lays it out again.
// Normally only called on the root, by the Scene.
func (n *Node) SetDPI(dpi float64) {
	if dpi <= 0 {
		return
	}
	n.setDPI(dpi)
	n.Relayout()
}

func (n *Node) setDPI(dpi float64) {
	n.dpi = dpi
	for _, c := range n.children {
		c.setDPI(dpi)
	}
}

// EffectiveScale is the product of the local scales from the root down to n,
// times the ambient DPI.
func (n *Node) EffectiveScale() Vec2 {
	sx, sy := n.scale.X, n.scale.Y
	for p := n.parent; p != nil; p = p.parent {
		sx *= p.scale.X
		sy *= p.scale.Y
	}
	return Vec2{sx * n.dpi, sy * n.dpi}
}

// --- Helpers ---

// removeChildByPtr removes child from n.children without clearing
// child.parent. Uses copy+nil to avoid retaining a dangling pointer in the
// backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// Invalidate requests a deferred repaint of n's clip area. No-op for unbound
// nodes.
func (n *Node) Invalidate() { n.invalidate() }

func (n *Node) invalidate() {
	if n.list != nil && n.list.invalidate != nil {
		n.list.invalidate(n.clipFrame)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
