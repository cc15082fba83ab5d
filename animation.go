package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 node attributes simultaneously. Create one via
// the convenience constructors (TweenPosition, TweenScale, TweenAlpha,
// TweenSize) and call Update(dt) each frame on the render thread, e.g. from
// inside Scene.Update. Each step goes through the node's setters, so layout
// and repaint follow automatically. If the target node is disposed, the group
// stops immediately.
//
// There is no global animation manager: users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	apply  func(v [4]float64)
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and applies the values to the
// target. If the target node has been disposed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target == nil || g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	var vals [4]float64
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		vals[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(vals)
}

// TweenPosition animates the node's declared position values to (toX, toY)
// over duration seconds. The units of the declared position are kept.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	x, y := node.Position()
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(x.Value), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(y.Value), float32(toY), duration, fn)
	g.apply = func(v [4]float64) {
		node.SetPosition(Dim{Value: v[0], Unit: x.Unit}, Dim{Value: v[1], Unit: y.Unit})
	}
	return g
}

// TweenSize animates the node's declared size values to (toW, toH), keeping
// their units.
func TweenSize(node *Node, toW, toH float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	w, h := node.Size()
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(w.Value), float32(toW), duration, fn)
	g.tweens[1] = gween.New(float32(h.Value), float32(toH), duration, fn)
	g.apply = func(v [4]float64) {
		node.SetSize(Dim{Value: v[0], Unit: w.Unit}, Dim{Value: v[1], Unit: h.Unit})
	}
	return g
}

// TweenScale animates the node's local rect scale to (toSX, toSY).
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	s := node.Scale()
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(s.X), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(s.Y), float32(toSY), duration, fn)
	g.apply = func(v [4]float64) { node.SetScale(v[0], v[1]) }
	return g
}

// TweenAlpha animates the node's local opacity to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.AlphaSrc()), float32(to), duration, fn)
	g.apply = func(v [4]float64) { node.SetAlpha(v[0]) }
	return g
}
