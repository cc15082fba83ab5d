package gfx

import (
	"context"
	"image"
	"image/color"

	"github.com/phanxgames/arbor/fault"
)

// Every entry point below is exactly one Task. Resource constructors return a
// nil handle together with the error when the backend fails; draw calls
// given a nil handle do nothing.

// --- Resources ---

// NewCanvas creates an offscreen render target of w×h pixels.
func (d *Dispatcher) NewCanvas(ctx context.Context, w, h int) (Canvas, error) {
	var out Canvas
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		c, err := b.NewCanvas(w, h)
		if err != nil {
			return fault.Wrap("gfx.NewCanvas", fault.KindResource, err)
		}
		out = c
		return nil
	})
	return out, err
}

// NewBitmap uploads img to the backend.
func (d *Dispatcher) NewBitmap(ctx context.Context, img image.Image) (Bitmap, error) {
	var out Bitmap
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		bm, err := b.NewBitmap(img)
		if err != nil {
			return fault.Wrap("gfx.NewBitmap", fault.KindResource, err)
		}
		out = bm
		return nil
	})
	return out, err
}

// NewPen creates a stroking pen.
func (d *Dispatcher) NewPen(ctx context.Context, c color.Color, width float64) (Pen, error) {
	var out Pen
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		p, err := b.NewPen(c, width)
		if err != nil {
			return fault.Wrap("gfx.NewPen", fault.KindResource, err)
		}
		out = p
		return nil
	})
	return out, err
}

// NewBrush creates a solid fill brush.
func (d *Dispatcher) NewBrush(ctx context.Context, c color.Color) (Brush, error) {
	var out Brush
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		br, err := b.NewBrush(c)
		if err != nil {
			return fault.Wrap("gfx.NewBrush", fault.KindResource, err)
		}
		out = br
		return nil
	})
	return out, err
}

// NewFont resolves a font.
func (d *Dispatcher) NewFont(ctx context.Context, spec FontSpec) (Font, error) {
	var out Font
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		f, err := b.NewFont(spec)
		if err != nil {
			return fault.Wrap("gfx.NewFont", fault.KindResource, err)
		}
		out = f
		return nil
	})
	return out, err
}

// NewGeometry prepares a closed polygon.
func (d *Dispatcher) NewGeometry(ctx context.Context, points []Point) (Geometry, error) {
	pts := append([]Point(nil), points...)
	var out Geometry
	err := d.Task(ctx, func(_ context.Context, b Backend) error {
		g, err := b.NewGeometry(pts)
		if err != nil {
			return fault.Wrap("gfx.NewGeometry", fault.KindResource, err)
		}
		out = g
		return nil
	})
	return out, err
}

// DisposeCanvas frees c. If c is the current target, the target is cleared.
func (d *Dispatcher) DisposeCanvas(ctx context.Context, c Canvas) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if c == nil {
			return nil
		}
		b.DisposeCanvas(c)
		return nil
	})
}

// DisposeBitmap frees bm.
func (d *Dispatcher) DisposeBitmap(ctx context.Context, bm Bitmap) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if bm == nil {
			return nil
		}
		b.DisposeBitmap(bm)
		return nil
	})
}

// --- Drawing ---

// SetTarget selects the canvas subsequent draw calls render into.
func (d *Dispatcher) SetTarget(ctx context.Context, c Canvas) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if c == nil {
			return nil
		}
		b.SetTarget(c)
		return nil
	})
}

// Clear fills the current clip of the target with c.
func (d *Dispatcher) Clear(ctx context.Context, c color.Color) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		b.Clear(c)
		return nil
	})
}

// FillRect fills r with br.
func (d *Dispatcher) FillRect(ctx context.Context, r Rect, br Brush) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if br == nil {
			return nil
		}
		b.FillRect(r, br)
		return nil
	})
}

// StrokeRect outlines r with p. The stroke is centred on r's edges.
func (d *Dispatcher) StrokeRect(ctx context.Context, r Rect, p Pen) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if p == nil {
			return nil
		}
		b.StrokeRect(r, p)
		return nil
	})
}

// FillRoundRect fills r with corners rounded to radius.
func (d *Dispatcher) FillRoundRect(ctx context.Context, r Rect, radius float64, br Brush) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if br == nil {
			return nil
		}
		b.FillRoundRect(r, radius, br)
		return nil
	})
}

// StrokeRoundRect outlines r with corners rounded to radius.
func (d *Dispatcher) StrokeRoundRect(ctx context.Context, r Rect, radius float64, p Pen) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if p == nil {
			return nil
		}
		b.StrokeRoundRect(r, radius, p)
		return nil
	})
}

// FillEllipse fills the ellipse inscribed in r.
func (d *Dispatcher) FillEllipse(ctx context.Context, r Rect, br Brush) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if br == nil {
			return nil
		}
		b.FillEllipse(r, br)
		return nil
	})
}

// StrokeEllipse outlines the ellipse inscribed in r.
func (d *Dispatcher) StrokeEllipse(ctx context.Context, r Rect, p Pen) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if p == nil {
			return nil
		}
		b.StrokeEllipse(r, p)
		return nil
	})
}

// Line draws a straight segment from from to to.
func (d *Dispatcher) Line(ctx context.Context, from, to Point, p Pen) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if p == nil {
			return nil
		}
		b.Line(from, to, p)
		return nil
	})
}

// Text draws s with its top-left corner at at.
func (d *Dispatcher) Text(ctx context.Context, s string, f Font, at Point, br Brush) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if f == nil || br == nil {
			return nil
		}
		b.Text(s, f, at, br)
		return nil
	})
}

// MeasureText returns the extent of s in f. A nil font measures as zero.
func (d *Dispatcher) MeasureText(ctx context.Context, s string, f Font) (w, h float64, err error) {
	err = d.Task(ctx, func(_ context.Context, b Backend) error {
		if f == nil {
			return nil
		}
		w, h = b.MeasureText(s, f)
		return nil
	})
	return w, h, err
}

// DrawBitmap scales bm into dst, multiplying its alpha by alpha.
func (d *Dispatcher) DrawBitmap(ctx context.Context, bm Bitmap, dst Rect, alpha float64) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if bm == nil {
			return nil
		}
		b.DrawBitmap(bm, dst, alpha)
		return nil
	})
}

// FillGeometry fills the polygon g with br.
func (d *Dispatcher) FillGeometry(ctx context.Context, g Geometry, br Brush) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		if g == nil || br == nil {
			return nil
		}
		b.FillGeometry(g, br)
		return nil
	})
}

// PushClip intersects the current clip with r until the matching PopClip.
func (d *Dispatcher) PushClip(ctx context.Context, r Rect) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		b.PushClip(r)
		return nil
	})
}

// PopClip restores the clip in effect before the last PushClip. Popping an
// empty stack does nothing.
func (d *Dispatcher) PopClip(ctx context.Context) error {
	return d.Task(ctx, func(_ context.Context, b Backend) error {
		b.PopClip()
		return nil
	})
}
