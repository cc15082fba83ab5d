package gfx

import (
	"image"
	"image/color"
)

// Resource handles are owned by the backend that created them and must only
// be used through the Dispatcher that owns that backend. A nil handle is the
// "null resource": draw calls given one are no-ops.

// Canvas is an offscreen render target.
type Canvas interface {
	Size() (w, h int)
}

// Bitmap is an immutable image uploaded to the backend.
type Bitmap interface {
	Size() (w, h int)
}

// Pen strokes outlines.
type Pen interface {
	Color() color.Color
	Width() float64
}

// Brush fills areas and text.
type Brush interface {
	Color() color.Color
}

// Font renders and measures text.
type Font interface {
	Spec() FontSpec
}

// Geometry is a prepared polygon.
type Geometry interface {
	Bounds() Rect
}

// FontSpec describes a font request. Backends that cannot honour Family fall
// back to their built-in face.
type FontSpec struct {
	Family string
	Size   float64
	Bold   bool
}

// Backend is a graphics implementation. A Backend is not safe for concurrent
// use: the Dispatcher that owns it calls every method from its render thread.
type Backend interface {
	NewCanvas(w, h int) (Canvas, error)
	NewBitmap(img image.Image) (Bitmap, error)
	NewPen(c color.Color, width float64) (Pen, error)
	NewBrush(c color.Color) (Brush, error)
	NewFont(spec FontSpec) (Font, error)
	NewGeometry(points []Point) (Geometry, error)
	// DisposeCanvas and DisposeBitmap free the memory behind a handle. The
	// handle must not be used afterwards. Disposing a nil handle is a no-op.
	DisposeCanvas(c Canvas)
	DisposeBitmap(bm Bitmap)

	// SetTarget selects the canvas subsequent draw calls render into and
	// resets the clip stack.
	SetTarget(c Canvas)
	Clear(c color.Color)
	FillRect(r Rect, b Brush)
	StrokeRect(r Rect, p Pen)
	FillRoundRect(r Rect, radius float64, b Brush)
	StrokeRoundRect(r Rect, radius float64, p Pen)
	FillEllipse(r Rect, b Brush)
	StrokeEllipse(r Rect, p Pen)
	Line(from, to Point, p Pen)
	Text(s string, f Font, at Point, b Brush)
	MeasureText(s string, f Font) (w, h float64)
	DrawBitmap(bm Bitmap, dst Rect, alpha float64)
	FillGeometry(g Geometry, b Brush)
	// PushClip intersects the current clip with r. PopClip restores the
	// previous clip; popping an empty stack is a no-op.
	PushClip(r Rect)
	PopClip()

	Close() error
}
