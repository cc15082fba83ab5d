package arbor

// DrawList is the pre-order flattening of a rendering root's subtree, hidden
// subtrees excluded. It is maintained incrementally: attaching splices the
// new subtree in after the preceding sibling's span, and detaching removes
// the node's contiguous span. A full rebuild only happens in NewDrawList.
type DrawList struct {
	root  *Node
	nodes []*Node

	// invalidate is set by the owning Scene to receive repaint requests.
	invalidate func(Rect)
}

// NewDrawList binds root and its non-hidden subtree into a
// fresh draw list. Returns nil when root already has a parent or is bound.
func NewDrawList(root *Node) *DrawList {
	if root == nil || root.parent != nil || root.list != nil {
		return nil
	}
	l := &DrawList{root: root}
	l.nodes = l.collect(l.nodes, root)
	return l
}

// Root returns the rendering root.
func (l *DrawList) Root() *Node { return l.root }

// Nodes returns the flattened list. The returned slice MUST NOT be mutated.
func (l *DrawList) Nodes() []*Node { return l.nodes }

// Len returns the number of bound nodes.
func (l *DrawList) Len() int { return len(l.nodes) }

// IndexOf returns the position of n, or -1 when n is not bound here.
func (l *DrawList) IndexOf(n *Node) int {
	if n == nil || n.list != l {
		return -1
	}
	for i, d := range l.nodes {
		if d == n {
			return i
		}
	}
	return -1
}

// spanEnd returns the index one past the last descendant of the node at i.
func (l *DrawList) spanEnd(i int) int {
	top := l.nodes[i]
	j := i + 1
	for j < len(l.nodes) && top.IsAncestorOf(l.nodes[j]) {
		j++
	}
	return j
}

// collect appends n's non-hidden subtree in pre-order and binds it.
func (l *DrawList) collect(dst []*Node, n *Node) []*Node {
	n.list = l
	dst = append(dst, n)
	for _, c := range n.children {
		if !c.hidden {
			dst = l.collect(dst, c)
		}
	}
	return dst
}

// insertSubtree splices n's subtree in directly after the span of its
// nearest preceding bound sibling, or right after its parent when it has
// none. For an appended child this is after the parent's last bound
// descendant.
func (l *DrawList) insertSubtree(n *Node) {
	p := n.parent
	at := -1
	for i := n.IndexInParent() - 1; i >= 0; i-- {
		if prev := p.children[i]; prev.list == l {
			at = l.spanEnd(l.IndexOf(prev))
			break
		}
	}
	if at < 0 {
		pi := l.IndexOf(p)
		if pi < 0 {
			return
		}
		at = pi + 1
	}
	sub := l.collect(nil, n)
	l.nodes = append(l.nodes, sub...)
	copy(l.nodes[at+len(sub):], l.nodes[at:len(l.nodes)-len(sub)])
	copy(l.nodes[at:], sub)
	if l.invalidate != nil {
		l.invalidate(n.clipFrame)
	}
}

// removeSubtree cuts n's contiguous span out and unbinds it.
func (l *DrawList) removeSubtree(n *Node) {
	i := l.IndexOf(n)
	if i < 0 {
		return
	}
	j := l.spanEnd(i)
	for _, d := range l.nodes[i:j] {
		d.list = nil
	}
	if l.invalidate != nil {
		l.invalidate(n.clipFrame)
	}
	k := copy(l.nodes[i:], l.nodes[j:])
	for x := i + k; x < len(l.nodes); x++ {
		l.nodes[x] = nil
	}
	l.nodes = l.nodes[:i+k]
	if n == l.root {
		l.root = nil
	}
}
