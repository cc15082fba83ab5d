package arbor

import (
	"math/rand/v2"
	"testing"
)

// --- Helpers ---

// preorder returns root's non-hidden subtree in pre-order.
func preorder(root *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.children {
			if !c.hidden {
				walk(c)
			}
		}
	}
	walk(root)
	return out
}

func assertDrawListPreorder(t *testing.T, l *DrawList) {
	t.Helper()
	want := preorder(l.Root())
	got := l.Nodes()
	if len(got) != len(want) {
		t.Fatalf("draw list len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw list[%d] = %q (ID %d), want %q (ID %d)",
				i, got[i].Name, got[i].ID, want[i].Name, want[i].ID)
		}
		if got[i].list != l {
			t.Fatalf("node %q in list but not bound to it", got[i].Name)
		}
	}
}

func chain(names ...string) []*Node {
	nodes := make([]*Node, len(names))
	for i, name := range names {
		nodes[i] = NewNode(name)
		if i > 0 {
			nodes[i-1].AddChild(nodes[i])
		}
	}
	return nodes
}

// --- Constructor defaults ---

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode("test")
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != "test" {
		t.Errorf("Name = %q, want %q", n.Name, "test")
	}
	if n.Scale() != (Vec2{1, 1}) {
		t.Errorf("Scale = %v, want (1, 1)", n.Scale())
	}
	if n.AlphaSrc() != 1 || n.AlphaDst() != 1 {
		t.Errorf("Alpha = (%v, %v), want (1, 1)", n.AlphaSrc(), n.AlphaDst())
	}
	if !n.Visible() || !n.EffectiveVisible() {
		t.Error("new node should be visible")
	}
	if n.DPI() != 1 {
		t.Errorf("DPI = %v, want 1", n.DPI())
	}
	if n.LayoutMode() != LayoutAbsolute {
		t.Errorf("LayoutMode = %v, want absolute", n.LayoutMode())
	}
	if n.Parent() != nil || n.Bound() {
		t.Error("new node should be detached and unbound")
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		n := NewNode("")
		if seen[n.ID] {
			t.Fatalf("duplicate ID %d", n.ID)
		}
		seen[n.ID] = true
	}
}

// --- Tree manipulation ---

func TestAddChildBasic(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	if !parent.AddChild(child) {
		t.Fatal("AddChild returned false")
	}
	if child.Parent() != parent {
		t.Error("child.Parent() should be parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("child not recorded in parent")
	}
}

func TestAddChildRejectsInvalid(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	a.AddChild(b)

	if a.AddChild(nil) {
		t.Error("nil child accepted")
	}
	if a.AddChild(a) {
		t.Error("self accepted as child")
	}
	if b.AddChild(a) {
		t.Error("cycle accepted")
	}
	if NewNode("other").AddChild(b) {
		t.Error("parented child accepted without detaching")
	}
	if a.AddChildAt(NewNode("c"), 5) {
		t.Error("out-of-range index accepted")
	}
	if len(a.Children()) != 1 {
		t.Errorf("children = %d after rejected calls, want 1", len(a.Children()))
	}
}

func TestAddChildAt(t *testing.T) {
	p := NewNode("p")
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	p.AddChild(a)
	p.AddChild(c)
	p.AddChildAt(b, 1)
	for i, want := range []*Node{a, b, c} {
		if p.ChildAt(i) != want {
			t.Errorf("ChildAt(%d) = %q, want %q", i, p.ChildAt(i).Name, want.Name)
		}
	}
}

func TestAddChildInheritsAlphaAndDPI(t *testing.T) {
	p := NewNode("p")
	p.SetAlpha(0.5)
	p.SetDPI(2)
	c := NewNode("c")
	c.SetAlpha(0.5)
	p.AddChild(c)
	if c.AlphaDst() != 0.25 {
		t.Errorf("AlphaDst = %v, want 0.25", c.AlphaDst())
	}
	if c.DPI() != 2 {
		t.Errorf("DPI = %v, want 2", c.DPI())
	}
	p.RemoveChild(c, nil)
	if c.AlphaDst() != 0.5 {
		t.Errorf("AlphaDst after detach = %v, want 0.5", c.AlphaDst())
	}
}

func TestRemoveChildFromAncestor(t *testing.T) {
	n := chain("a", "b", "c", "d")
	var removed []string
	if !n[0].RemoveChild(n[2], func(r *Node) { removed = append(removed, r.Name) }) {
		t.Fatal("RemoveChild via ancestor returned false")
	}
	if n[2].Parent() != nil || len(n[1].Children()) != 0 {
		t.Error("node not detached from its parent")
	}
	if len(removed) != 2 || removed[0] != "c" || removed[1] != "d" {
		t.Errorf("onRemoved order = %v, want [c d]", removed)
	}
}

func TestRemoveChildNotDescendant(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	other := NewNode("other")
	a.AddChild(b)
	called := false
	if other.RemoveChild(b, func(*Node) { called = true }) {
		t.Error("RemoveChild of non-descendant returned true")
	}
	if b.Parent() != a || called {
		t.Error("failed RemoveChild mutated state")
	}
	if a.RemoveChild(a, nil) {
		t.Error("RemoveChild of self returned true")
	}
}

func TestRemoveFromParentNoOp(t *testing.T) {
	if NewNode("root").RemoveFromParent() {
		t.Error("RemoveFromParent on root returned true")
	}
}

func TestFindAndWalk(t *testing.T) {
	root := NewNode("root")
	a, b := NewNode("a"), NewNode("b")
	root.AddChild(a)
	a.AddChild(b)
	b.SetHidden(true)

	if root.Find("b") != b {
		t.Error("Find should see hidden nodes")
	}
	if root.Find("missing") != nil {
		t.Error("Find returned a node for a missing name")
	}
	var names []string
	root.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return n.Name != "a"
	})
	if len(names) != 2 {
		t.Errorf("Walk visited %v, want to stop after a", names)
	}
}

func TestHiddenExcludedFromChildCount(t *testing.T) {
	p := NewNode("p")
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)
	b.SetHidden(true)
	if p.NumChildren() != 2 {
		t.Errorf("NumChildren = %d, want 2", p.NumChildren())
	}
	if p.ChildAt(1) != c {
		t.Error("ChildAt should skip hidden children")
	}
	if p.ChildAt(2) != nil || p.ChildAt(-1) != nil {
		t.Error("ChildAt out of range should return nil")
	}
}

func TestDispose(t *testing.T) {
	root := NewNode("root")
	l := NewDrawList(root)
	n := chain("a", "b", "c")
	root.AddChild(n[0])
	n[0].Dispose()

	if !n[0].IsDisposed() || !n[2].IsDisposed() {
		t.Error("subtree not disposed")
	}
	if len(root.Children()) != 0 {
		t.Error("disposed node still attached")
	}
	if l.Len() != 1 {
		t.Errorf("draw list len = %d, want 1", l.Len())
	}
	if root.AddChild(n[0]) {
		t.Error("disposed node accepted as child")
	}
	n[0].Dispose() // idempotent
}

// --- Visibility ---

func TestVisibilityCascade(t *testing.T) {
	n := chain("a", "b", "c")
	n[0].SetVisible(false)
	if n[2].EffectiveVisible() {
		t.Error("descendant of invisible node is effectively visible")
	}
	if !n[2].Visible() {
		t.Error("local visibility of descendant changed")
	}
	n[0].SetVisible(true)
	if !n[2].EffectiveVisible() {
		t.Error("descendant should be visible again")
	}
}

func TestVisibilityCascadeRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	root := NewNode("root")
	nodes := []*Node{root}
	for i := 0; i < 60; i++ {
		c := NewNode("n")
		nodes[rng.IntN(len(nodes))].AddChild(c)
		nodes = append(nodes, c)
	}
	for step := 0; step < 500; step++ {
		nodes[rng.IntN(len(nodes))].SetVisible(rng.IntN(2) == 0)
		for _, n := range nodes {
			want := n.Visible()
			for p := n.Parent(); p != nil; p = p.Parent() {
				want = want && p.Visible()
			}
			if n.EffectiveVisible() != want {
				t.Fatalf("step %d: EffectiveVisible = %v, want %v", step, n.EffectiveVisible(), want)
			}
		}
	}
}

// --- Draw list ---

func TestDrawListInitialBind(t *testing.T) {
	root := NewNode("root")
	n := chain("a", "b")
	root.AddChild(n[0])
	root.AddChild(NewNode("c"))
	l := NewDrawList(root)
	if l == nil {
		t.Fatal("NewDrawList returned nil")
	}
	assertDrawListPreorder(t, l)
	if NewDrawList(root) != nil {
		t.Error("root bound twice")
	}
	if NewDrawList(n[1]) != nil {
		t.Error("non-root accepted as draw list root")
	}
}

func TestDrawListInsertAfterLastDescendant(t *testing.T) {
	root := NewNode("root")
	l := NewDrawList(root)
	a := chain("a", "a1", "a2")
	root.AddChild(a[0])
	b := NewNode("b")
	root.AddChild(b)

	if got := l.IndexOf(b); got != 4 {
		t.Errorf("IndexOf(b) = %d, want 4", got)
	}
	assertDrawListPreorder(t, l)

	x := NewNode("x")
	a[0].AddChild(x)
	if got := l.IndexOf(x); got != 4 {
		t.Errorf("IndexOf(x) = %d, want 4 (after a's last descendant)", got)
	}
	assertDrawListPreorder(t, l)
}

func TestDrawListUnboundOps(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	a.AddChild(b)
	if a.Bound() || b.Bound() {
		t.Error("nodes without a rendering root should be unbound")
	}
	a.RemoveChild(b, nil)
	l := NewDrawList(NewNode("r"))
	if l.IndexOf(b) != -1 {
		t.Error("IndexOf of unbound node should be -1")
	}
}

func TestDrawListHiddenSpan(t *testing.T) {
	root := NewNode("root")
	l := NewDrawList(root)
	a := chain("a", "a1", "a2")
	root.AddChild(a[0])
	root.AddChild(NewNode("b"))

	a[0].SetHidden(true)
	if l.Len() != 2 || a[2].Bound() {
		t.Errorf("hidden span not removed: len = %d", l.Len())
	}
	assertDrawListPreorder(t, l)

	a[0].SetHidden(false)
	if l.Len() != 5 {
		t.Errorf("len after unhide = %d, want 5", l.Len())
	}
	assertDrawListPreorder(t, l)
}

func TestDrawListPreorderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	root := NewNode("root")
	l := NewDrawList(root)

	attached := []*Node{root}
	all := make([]*Node, 40)
	for i := range all {
		all[i] = NewNode("n")
	}

	isAttached := func(n *Node) bool {
		return n == root || root.IsAncestorOf(n)
	}
	refresh := func() {
		attached = attached[:0]
		root.Walk(func(n *Node) bool {
			attached = append(attached, n)
			return true
		})
	}
	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(10); {
		case op < 5:
			var roots []*Node
			for _, n := range all {
				if n.Parent() == nil && !isAttached(n) {
					roots = append(roots, n)
				}
			}
			if len(roots) == 0 {
				continue
			}
			c := roots[rng.IntN(len(roots))]
			p := attached[rng.IntN(len(attached))]
			if p.IsAncestorOf(c) || c.IsAncestorOf(p) || c == p {
				continue
			}
			if !p.AddChildAt(c, rng.IntN(len(p.Children())+1)) {
				t.Fatalf("step %d: AddChildAt failed", step)
			}
		case op < 8:
			if len(attached) < 2 {
				continue
			}
			target := attached[1+rng.IntN(len(attached)-1)]
			if !root.RemoveChild(target, nil) {
				t.Fatalf("step %d: RemoveChild failed", step)
			}
			if target.Bound() {
				t.Fatalf("step %d: removed node still bound", step)
			}
		default:
			if len(attached) < 2 {
				continue
			}
			n := attached[1+rng.IntN(len(attached)-1)]
			n.SetHidden(!n.Hidden())
		}
		refresh()
		assertDrawListPreorder(t, l)
	}
}

func TestDetachReattachRoundTrip(t *testing.T) {
	root := NewNode("root")
	l := NewDrawList(root)
	for i := 0; i < 4; i++ {
		c := chain("c", "c1", "c2")
		root.AddChild(c[0])
	}
	before := append([]*Node(nil), l.Nodes()...)

	target := root.ChildAt(2)
	idx := target.IndexInParent()
	root.RemoveChild(target, nil)
	if !root.AddChildAt(target, idx) {
		t.Fatal("reattach failed")
	}
	after := l.Nodes()
	if len(after) != len(before) {
		t.Fatalf("len = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("entry %d differs after round trip", i)
		}
	}
}
