// Package ebitenhost runs an arbor Scene inside an Ebitengine window. It is
// the platform layer: it feeds the client size and device scale factor to
// the scene, drives per-frame hooks on the render thread and presents the
// scene's canvas to the screen.
package ebitenhost

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/gfx"
	"github.com/phanxgames/arbor/gfx/ebitengfx"
	"github.com/phanxgames/arbor/gfx/soft"
)

// TickFunc runs once per game tick on the render thread.
type TickFunc func(ctx context.Context, root *arbor.Node, dt float32)

// Options configures a Game.
type Options struct {
	// Tick is called once per tick, e.g. to advance tweens.
	Tick TickFunc
	// Script, when set, is stepped once per tick.
	Script *arbor.ScriptRunner
	// ExitOnScriptDone ends the game loop once Script has finished.
	ExitOnScriptDone bool
}

// Game adapts a Scene to ebiten.Game.
type Game struct {
	scene *arbor.Scene
	opts  Options

	// The render thread copies each finished canvas into the back buffer and
	// publishes it through frame; Draw only ever reads a published buffer.
	frame   atomic.Pointer[ebiten.Image]
	buffers [2]*ebiten.Image
	back    int

	// Game-goroutine state
	wantW, wantH int
	wantDPI      float64
	haveW, haveH int
	haveDPI      float64
}

// New wraps s. The scene must render through an ebitengfx backend.
func New(s *arbor.Scene, opts Options) *Game {
	g := &Game{scene: s, opts: opts}
	s.SetPresent(g.present)
	return g
}

func (g *Game) present(_ context.Context, c gfx.Canvas) error {
	ec, ok := c.(*ebitengfx.Canvas)
	if !ok {
		return fmt.Errorf("ebitenhost: canvas %T is not an ebitengfx canvas", c)
	}
	g.frame.Store(g.copyToBack(ec.Image()))
	return nil
}

// copyToBack copies src into the back buffer, reallocating it when the size
// changed, and flips buffers. Render thread only.
func (g *Game) copyToBack(src *ebiten.Image) *ebiten.Image {
	buf := g.buffers[g.back]
	if buf == nil || buf.Bounds().Size() != src.Bounds().Size() {
		if buf != nil {
			buf.Deallocate()
		}
		buf = ebiten.NewImage(src.Bounds().Dx(), src.Bounds().Dy())
		g.buffers[g.back] = buf
	}
	buf.DrawImage(src, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})
	g.back ^= 1
	return buf
}

// Update applies pending size and scale changes, then runs the tick hook and
// the script on the render thread.
func (g *Game) Update() error {
	ctx := context.Background()
	if g.wantDPI > 0 && g.wantDPI != g.haveDPI {
		if err := g.scene.SetDPI(ctx, g.wantDPI); err != nil {
			return err
		}
		g.haveDPI = g.wantDPI
	}
	if g.wantW != g.haveW || g.wantH != g.haveH {
		if err := g.scene.Resize(ctx, g.wantW, g.wantH); err != nil {
			return err
		}
		g.haveW, g.haveH = g.wantW, g.wantH
	}

	dt := float32(1.0 / float64(ebiten.TPS()))
	err := g.scene.Dispatcher().Do(ctx, func(ctx context.Context) error {
		if g.opts.Tick != nil {
			g.opts.Tick(ctx, g.scene.Root(), dt)
		}
		if g.opts.Script != nil {
			return g.opts.Script.Step(ctx, g.scene)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if g.opts.ExitOnScriptDone && g.opts.Script != nil && g.opts.Script.Done() {
		return ebiten.Termination
	}
	return nil
}

// Draw presents the last finished frame.
func (g *Game) Draw(screen *ebiten.Image) {
	if img := g.frame.Load(); img != nil {
		screen.DrawImage(img, nil)
	}
}

// Layout reports a device-pixel screen so the canvas maps 1:1 to the
// window. The new size and scale are applied on the next Update.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := 1.0
	if m := ebiten.Monitor(); m != nil {
		scale = m.DeviceScaleFactor()
	}
	w := int(math.Ceil(float64(outsideWidth) * scale))
	h := int(math.Ceil(float64(outsideHeight) * scale))
	g.wantW, g.wantH, g.wantDPI = w, h, scale
	return w, h
}

// SnapshotTo returns a SnapshotFunc that reads an ebitengfx canvas back and
// writes it as a PNG into dir.
func SnapshotTo(dir string) arbor.SnapshotFunc {
	return func(_ context.Context, label string, c gfx.Canvas) error {
		ec, ok := c.(*ebitengfx.Canvas)
		if !ok {
			return fmt.Errorf("ebitenhost: canvas %T is not an ebitengfx canvas", c)
		}
		w, h := ec.Size()
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		ec.Image().ReadPixels(img.Pix)
		_, err := soft.SnapshotImage(dir, label, img)
		return err
	}
}

// Run opens a window and runs the scene until the window closes or the
// script finishes. build runs once on the render thread before the loop
// starts.
func Run(cfg arbor.Config, opts Options, build func(ctx context.Context, s *arbor.Scene) error) error {
	var dopts []gfx.Option
	if cfg.QueueDepth > 0 {
		dopts = append(dopts, gfx.WithQueueDepth(cfg.QueueDepth))
	}
	if cfg.Logger != nil {
		dopts = append(dopts, gfx.WithLogger(cfg.Logger))
	}
	d, err := gfx.NewDispatcher(ebitengfx.NewBackend, dopts...)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := arbor.NewScene(d, cfg)
	if err != nil {
		return err
	}
	if build != nil {
		if err := d.Do(context.Background(), func(ctx context.Context) error {
			return build(ctx, s)
		}); err != nil {
			return err
		}
	}

	g := New(s, opts)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
