package arbor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/phanxgames/arbor/fault"
	"github.com/phanxgames/arbor/gfx"
)

// PresentFunc hands a finished frame to the platform layer. It runs on the
// render thread.
type PresentFunc func(ctx context.Context, c gfx.Canvas) error

// Scene owns the node tree, its draw list and the off-screen canvas, and
// runs frames on the dispatcher's render thread.
//
// Tree mutation from other goroutines goes through Update; repaint requests
// go through Invalidate (deferred) or PaintNow (synchronous).
type Scene struct {
	d     *gfx.Dispatcher
	cfg   Config
	log   *slog.Logger
	root  *Node
	list  *DrawList
	dirty *DirtyRing

	// Render-thread state
	canvas  gfx.Canvas
	width   int
	height  int
	openBuf []*Node

	present     atomic.Pointer[PresentFunc]
	layoutDirty atomic.Bool
	debug       atomic.Bool
	frames      atomic.Uint64
	dropped     atomic.Uint64
}

// NewScene creates a scene with a pre-bound root and installs its frame pass
// as the dispatcher's idle hook. When cfg carries a size the canvas is
// allocated right away. NewScene blocks on the render thread and must not be
// called from it.
func NewScene(d *gfx.Dispatcher, cfg Config) (*Scene, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fault.Wrap("arbor.NewScene", fault.KindConfig, err)
	}
	root := NewNode("root")
	root.dpi = cfg.DPI
	s := &Scene{
		d:     d,
		cfg:   cfg,
		log:   cfg.logger(),
		root:  root,
		list:  NewDrawList(root),
		dirty: NewDirtyRing(cfg.DirtyCapacity),
	}
	s.list.invalidate = func(r Rect) { s.Invalidate(r) }
	s.SetDebugMode(cfg.Debug)
	d.SetIdle(s.idle)
	if err := s.Resize(context.Background(), cfg.Width, cfg.Height); err != nil {
		d.SetIdle(nil)
		return nil, err
	}
	return s, nil
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.root }

// DrawList returns the root's draw list.
func (s *Scene) DrawList() *DrawList { return s.list }

// Dispatcher returns the dispatcher the scene renders through.
func (s *Scene) Dispatcher() *gfx.Dispatcher { return s.d }

// Canvas returns the off-screen canvas. Render thread only.
func (s *Scene) Canvas() gfx.Canvas { return s.canvas }

// Frames returns the number of frames painted so far.
func (s *Scene) Frames() uint64 { return s.frames.Load() }

// Dropped returns the number of repaint requests lost to a full dirty ring.
func (s *Scene) Dropped() uint64 { return s.dropped.Load() }

// Resize reallocates the canvas for a w×h client area and gives the root a
// matching frame. Non-positive sizes are ignored.
func (s *Scene) Resize(ctx context.Context, w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	return s.d.Do(ctx, func(ctx context.Context) error {
		if s.canvas != nil && w == s.width && h == s.height {
			return nil
		}
		c, err := s.d.NewCanvas(ctx, w, h)
		if err != nil {
			return err
		}
		old := s.canvas
		s.canvas, s.width, s.height = c, w, h
		if old != nil {
			if err := s.d.DisposeCanvas(ctx, old); err != nil {
				return err
			}
		}
		s.root.SetFrame(Rect{Width: float64(w), Height: float64(h)})
		s.layoutDirty.Store(true)
		s.Invalidate(s.root.frame)
		return nil
	})
}

// SetDPI sets the ambient scale on every node and relays out the tree.
func (s *Scene) SetDPI(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return nil
	}
	return s.d.Do(ctx, func(context.Context) error {
		s.root.SetDPI(scale)
		s.layoutDirty.Store(true)
		s.Invalidate(s.root.frame)
		return nil
	})
}

// SetPresent installs the callback that receives each finished frame.
func (s *Scene) SetPresent(fn PresentFunc) {
	if fn == nil {
		s.present.Store(nil)
		return
	}
	s.present.Store(&fn)
}

// Invalidate queues r for the next frame and wakes the render thread. It
// never blocks: once the dirty ring is full the request is dropped and
// false is returned.
func (s *Scene) Invalidate(r Rect) bool {
	ok := s.dirty.Push(r)
	if !ok {
		s.dropped.Add(1)
	}
	s.d.Wake()
	return ok
}

// PaintNow runs a frame covering r (plus whatever is pending) synchronously
// as a single render task.
func (s *Scene) PaintNow(ctx context.Context, r Rect) error {
	return s.d.Do(ctx, func(ctx context.Context) error {
		return s.frame(ctx, r)
	})
}

// Update runs fn on the render thread with the root, marks the layout dirty
// and schedules a repaint.
func (s *Scene) Update(ctx context.Context, fn func(root *Node)) error {
	return s.d.Do(ctx, func(context.Context) error {
		fn(s.root)
		s.layoutDirty.Store(true)
		s.d.Wake()
		return nil
	})
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are logged, and
// per-frame timing stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug.Store(enabled)
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool

// --- Frame pass ---

// idle is the dispatcher's idle hook. Faults escaping the frame pass go to
// the process-wide notifier.
func (s *Scene) idle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			fault.ReportPanic(fault.NewPanicError("arbor.Scene.frame", r))
		}
	}()
	if err := s.frame(ctx, Rect{}); err != nil {
		var pe *fault.PanicError
		if errors.As(err, &pe) {
			fault.ReportPanic(pe)
			return
		}
		fault.Report(&fault.Error{Op: "arbor.Scene.frame", Kind: fault.KindRender, Err: err})
	}
}

// frame drains the dirty ring, lays out if needed, paints the union of the
// dirty rectangles and presents.
func (s *Scene) frame(ctx context.Context, extra Rect) error {
	var stats debugStats
	rs := s.dirty.Drain()
	stats.dirtyCount = len(rs)
	area := unionRects(rs).Union(extra)

	if s.layoutDirty.Swap(false) {
		t0 := time.Now()
		s.root.Layout()
		stats.layoutTime = time.Since(t0)
		area = s.root.frame
	}
	if s.canvas == nil {
		return nil
	}
	area = area.Intersect(s.root.frame)
	if area.Empty() {
		return nil
	}

	t0 := time.Now()
	if err := s.d.SetTarget(ctx, s.canvas); err != nil {
		return err
	}
	if err := s.d.PushClip(ctx, area); err != nil {
		return err
	}
	if err := s.d.Clear(ctx, *s.cfg.ClearColor); err != nil {
		return err
	}
	stats.painted, stats.skipped = s.paint(ctx, area)
	if err := s.d.PopClip(ctx); err != nil {
		return err
	}
	stats.paintTime = time.Since(t0)

	if fn := s.present.Load(); fn != nil {
		t1 := time.Now()
		if err := (*fn)(ctx, s.canvas); err != nil {
			return err
		}
		stats.presentTime = time.Since(t1)
	}
	s.frames.Add(1)
	s.debugLog(stats)
	return nil
}
