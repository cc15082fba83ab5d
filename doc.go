// Package arbor is a retained-mode 2D UI scene graph with a rectangle
// layout engine, an incremental draw list and dirty-rectangle repainting.
//
// # Quick start
//
// A [Scene] renders through a [gfx.Dispatcher], which owns a graphics
// backend on a dedicated render thread. The simplest way to get a window is
// [ebitenhost.Run]:
//
//	cfg := arbor.DefaultConfig()
//	ebitenhost.Run(cfg, ebitenhost.Options{}, func(ctx context.Context, s *arbor.Scene) error {
//		panel := arbor.NewNode("panel")
//		panel.SetSize(arbor.Pct(50), arbor.FillMinus(20))
//		s.Root().AddChild(panel)
//		return nil
//	})
//
// For headless use, pair the scene with the software backend in gfx/soft:
//
//	d, _ := gfx.NewDispatcher(soft.NewBackend)
//	s, _ := arbor.NewScene(d, arbor.Config{Width: 320, Height: 240})
//	s.PaintNow(ctx, s.Root().Frame())
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root];
// children inherit their parent's opacity, visibility and DPI. Attaching a
// subtree to a node that belongs to the scene splices it into the scene's
// [DrawList], a flat pre-order list that the paint pass walks once per
// frame. Hidden nodes stay findable with [Node.Find] but leave the layout
// and the draw list.
//
// Tree mutation and layout are not synchronized: do them on the render
// thread, via [Scene.Update] or from inside a paint or tick hook.
//
// # Layout
//
// Each node declares a position and size in [Dim] units (pixels, percent of
// the parent's content box, or "fill minus" the space left) plus min/max
// clamps, padding and a local scale. Its parent's [LayoutMode] turns these
// into an absolute [Node.Frame]: Absolute, Center, Block (wrapping flow),
// or one of the four Linear stacks. Auto-size nodes take their size from
// [Node.Measure] or from their children.
//
// Setters relay out only what they can affect; [Node.Layout] recomputes a
// whole subtree.
//
// # Repainting
//
// [Node.Invalidate] and [Scene.Invalidate] queue a dirty rectangle without
// blocking and wake the render thread, which paints the union of pending
// rectangles on its next idle pass. [Scene.PaintNow] paints synchronously.
// Panics in paint hooks are routed to the handler installed with
// fault.SetHandler.
//
// # Animation
//
// Tweens (via [gween]) animate position, size, scale and opacity through the
// node setters. See [TweenPosition] and friends.
//
// [gween]: https://github.com/tanema/gween
// [ebitenhost.Run]: https://pkg.go.dev/github.com/phanxgames/arbor/ebitenhost#Run
// [gfx.Dispatcher]: https://pkg.go.dev/github.com/phanxgames/arbor/gfx#Dispatcher
package arbor
