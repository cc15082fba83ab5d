package ebitenhost

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/gfx"
)

const fpsRefresh = 500 * time.Millisecond

// fpsWidget is a node that displays the current FPS and TPS. The text is
// refreshed every ~0.5 seconds from the tick.
type fpsWidget struct {
	node  *arbor.Node
	lines [2]string
	last  time.Time

	bg, fg gfx.Brush
	font   gfx.Font
}

// NewFPSWidget creates a detached, auto-sized node showing FPS and TPS.
// Attach it last so it paints on top. The returned tick keeps it current;
// run it from a TickFunc.
func NewFPSWidget() (*arbor.Node, TickFunc) {
	w := &fpsWidget{node: arbor.NewNode("fps_widget")}
	w.node.Measure = func(*arbor.Node) arbor.Vec2 {
		// 100x32 is enough for "FPS: 60.0" over "TPS: 60.0"
		return arbor.Vec2{X: 100, Y: 32}
	}
	w.node.SetAutoSize(true)
	w.node.OnPaint = w.paint
	return w.node, w.tick
}

func (w *fpsWidget) tick(_ context.Context, _ *arbor.Node, _ float32) {
	if time.Since(w.last) < fpsRefresh {
		return
	}
	w.last = time.Now()
	w.lines[0] = fmt.Sprintf("FPS: %.1f", ebiten.ActualFPS())
	w.lines[1] = fmt.Sprintf("TPS: %.1f", ebiten.ActualTPS())
	w.node.Invalidate()
}

func (w *fpsWidget) paint(ctx context.Context, n *arbor.Node, d *gfx.Dispatcher) {
	if w.font == nil {
		// Semi-transparent background for readability
		w.bg, _ = d.NewBrush(ctx, color.RGBA{0, 0, 0, 128})
		w.fg, _ = d.NewBrush(ctx, color.White)
		w.font, _ = d.NewFont(ctx, gfx.FontSpec{Family: "mono", Size: 13})
	}
	f := n.Frame()
	_ = d.FillRect(ctx, f, w.bg)
	_ = d.Text(ctx, w.lines[0], w.font, gfx.Point{X: f.X + 4, Y: f.Y + 2}, w.fg)
	_ = d.Text(ctx, w.lines[1], w.font, gfx.Point{X: f.X + 4, Y: f.Y + 17}, w.fg)
}
