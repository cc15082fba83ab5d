// Package soft is a software gfx.Backend that renders into image.RGBA
// canvases. It needs no GPU or window, which makes it the backend of choice
// for tests, snapshots and headless hosts.
package soft

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/phanxgames/arbor/gfx"
)

// MaxCanvasSize bounds each canvas dimension.
const MaxCanvasSize = 16384

var (
	ErrCanvasSize   = errors.New("soft: canvas size out of range")
	ErrEmptyBitmap  = errors.New("soft: empty bitmap")
	ErrFewPoints    = errors.New("soft: geometry needs at least 3 points")
	ErrInvalidWidth = errors.New("soft: pen width must be positive")
)

// --- Resources ---

// Canvas is an RGBA render target.
type Canvas struct {
	img *image.RGBA
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the canvas pixels. Only read it on the render thread or
// after the frame that wrote it has been presented.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Bitmap is an uploaded image.
type Bitmap struct {
	img *image.RGBA
}

func (b *Bitmap) Size() (int, int) {
	r := b.img.Bounds()
	return r.Dx(), r.Dy()
}

type Pen struct {
	c color.Color
	w float64
}

func (p *Pen) Color() color.Color { return p.c }
func (p *Pen) Width() float64     { return p.w }

type Brush struct {
	c color.Color
}

func (b *Brush) Color() color.Color { return b.c }

// Font wraps a font.Face. Every family resolves to the built-in 7x13 face.
type Font struct {
	spec gfx.FontSpec
	face font.Face
}

func (f *Font) Spec() gfx.FontSpec { return f.spec }

type Geometry struct {
	pts    []gfx.Point
	bounds gfx.Rect
}

func (g *Geometry) Bounds() gfx.Rect { return g.bounds }

// --- Backend ---

// Backend implements gfx.Backend on image.RGBA.
type Backend struct {
	target *Canvas
	clips  []image.Rectangle
}

// New returns a software backend with no target selected.
func New() *Backend {
	return &Backend{}
}

// NewBackend adapts New to the constructor signature gfx.NewDispatcher takes.
func NewBackend() (gfx.Backend, error) {
	return New(), nil
}

func (b *Backend) NewCanvas(w, h int) (gfx.Canvas, error) {
	if w <= 0 || h <= 0 || w > MaxCanvasSize || h > MaxCanvasSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

func (b *Backend) NewBitmap(img image.Image) (gfx.Bitmap, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyBitmap
	}
	r := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return &Bitmap{img: dst}, nil
}

func (b *Backend) NewPen(c color.Color, width float64) (gfx.Pen, error) {
	if width <= 0 || math.IsNaN(width) {
		return nil, ErrInvalidWidth
	}
	return &Pen{c: c, w: width}, nil
}

func (b *Backend) NewBrush(c color.Color) (gfx.Brush, error) {
	return &Brush{c: c}, nil
}

func (b *Backend) NewFont(spec gfx.FontSpec) (gfx.Font, error) {
	return &Font{spec: spec, face: basicfont.Face7x13}, nil
}

func (b *Backend) NewGeometry(points []gfx.Point) (gfx.Geometry, error) {
	if len(points) < 3 {
		return nil, ErrFewPoints
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return &Geometry{
		pts:    append([]gfx.Point(nil), points...),
		bounds: gfx.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
	}, nil
}

// DisposeCanvas drops the canvas pixels; the canvas reports a zero size
// afterwards.
func (b *Backend) DisposeCanvas(c gfx.Canvas) {
	cv, ok := c.(*Canvas)
	if !ok {
		return
	}
	if b.target == cv {
		b.target = nil
		b.clips = b.clips[:0]
	}
	cv.img = &image.RGBA{}
}

func (b *Backend) DisposeBitmap(bm gfx.Bitmap) {
	if sb, ok := bm.(*Bitmap); ok {
		sb.img = &image.RGBA{}
	}
}

func (b *Backend) SetTarget(c gfx.Canvas) {
	cv, ok := c.(*Canvas)
	if !ok {
		return
	}
	b.target = cv
	b.clips = b.clips[:0]
}

// clip returns the active clip in target pixels, empty when no target is set.
func (b *Backend) clip() image.Rectangle {
	if b.target == nil {
		return image.Rectangle{}
	}
	if n := len(b.clips); n > 0 {
		return b.clips[n-1]
	}
	return b.target.img.Bounds()
}

func (b *Backend) PushClip(r gfx.Rect) {
	b.clips = append(b.clips, pixelRect(r).Intersect(b.clip()))
}

func (b *Backend) PopClip() {
	if n := len(b.clips); n > 0 {
		b.clips = b.clips[:n-1]
	}
}

func (b *Backend) Clear(c color.Color) {
	clip := b.clip()
	if clip.Empty() {
		return
	}
	draw.Draw(b.target.img, clip, image.NewUniform(c), image.Point{}, draw.Src)
}

func (b *Backend) FillRect(r gfx.Rect, br gfx.Brush) {
	area := pixelRect(r).Intersect(b.clip())
	if area.Empty() {
		return
	}
	draw.Draw(b.target.img, area, image.NewUniform(br.Color()), image.Point{}, draw.Over)
}

func (b *Backend) StrokeRect(r gfx.Rect, p gfx.Pen) {
	h := p.Width() / 2
	b.fill(p.Color(), func(z *path) {
		z.rect(inset(r, -h), false)
		z.rect(inset(r, h), true)
	})
}

func (b *Backend) FillRoundRect(r gfx.Rect, radius float64, br gfx.Brush) {
	b.fill(br.Color(), func(z *path) { z.roundRect(r, radius, false) })
}

func (b *Backend) StrokeRoundRect(r gfx.Rect, radius float64, p gfx.Pen) {
	h := p.Width() / 2
	b.fill(p.Color(), func(z *path) {
		z.roundRect(inset(r, -h), radius+h, false)
		z.roundRect(inset(r, h), math.Max(0, radius-h), true)
	})
}

func (b *Backend) FillEllipse(r gfx.Rect, br gfx.Brush) {
	b.fill(br.Color(), func(z *path) { z.ellipse(r, false) })
}

func (b *Backend) StrokeEllipse(r gfx.Rect, p gfx.Pen) {
	h := p.Width() / 2
	b.fill(p.Color(), func(z *path) {
		z.ellipse(inset(r, -h), false)
		z.ellipse(inset(r, h), true)
	})
}

func (b *Backend) Line(from, to gfx.Point, p gfx.Pen) {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*p.Width()/2, dx/l*p.Width()/2
	b.fill(p.Color(), func(z *path) {
		z.polygon([]gfx.Point{
			{X: from.X + nx, Y: from.Y + ny},
			{X: to.X + nx, Y: to.Y + ny},
			{X: to.X - nx, Y: to.Y - ny},
			{X: from.X - nx, Y: from.Y - ny},
		}, false)
	})
}

func (b *Backend) FillGeometry(g gfx.Geometry, br gfx.Brush) {
	geo, ok := g.(*Geometry)
	if !ok {
		return
	}
	b.fill(br.Color(), func(z *path) { z.polygon(geo.pts, false) })
}

func (b *Backend) Text(s string, f gfx.Font, at gfx.Point, br gfx.Brush) {
	ft, ok := f.(*Font)
	clip := b.clip()
	if !ok || clip.Empty() {
		return
	}
	dst := b.target.img.SubImage(clip).(*image.RGBA)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(br.Color()),
		Face: ft.face,
		Dot:  fixed.P(int(math.Round(at.X)), int(math.Round(at.Y))+ft.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func (b *Backend) MeasureText(s string, f gfx.Font) (float64, float64) {
	ft, ok := f.(*Font)
	if !ok {
		return 0, 0
	}
	w := font.MeasureString(ft.face, s).Ceil()
	return float64(w), float64(ft.face.Metrics().Height.Ceil())
}

func (b *Backend) DrawBitmap(bm gfx.Bitmap, dst gfx.Rect, alpha float64) {
	src, ok := bm.(*Bitmap)
	clip := b.clip()
	if !ok || clip.Empty() || alpha <= 0 {
		return
	}
	dr := pixelRect(dst)
	if dr.Empty() {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src.img, src.img.Bounds(), xdraw.Src, nil)
	area := dr.Intersect(clip)
	if area.Empty() {
		return
	}
	sp := area.Min.Sub(dr.Min)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(math.Min(alpha, 1) * 255))})
	draw.DrawMask(b.target.img, area, scaled, sp, mask, image.Point{}, draw.Over)
}

func (b *Backend) Close() error {
	b.target = nil
	b.clips = nil
	return nil
}

// fill rasterizes the path built by build inside the current clip.
func (b *Backend) fill(c color.Color, build func(z *path)) {
	clip := b.clip()
	if clip.Empty() {
		return
	}
	z := &path{
		r:  vector.NewRasterizer(clip.Dx(), clip.Dy()),
		ox: float64(clip.Min.X),
		oy: float64(clip.Min.Y),
	}
	z.r.DrawOp = draw.Over
	build(z)
	z.r.Draw(b.target.img, clip, image.NewUniform(c), image.Point{})
}

// pixelRect snaps r to whole pixels.
func pixelRect(r gfx.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.Right())), int(math.Round(r.Bottom())),
	)
}

func inset(r gfx.Rect, d float64) gfx.Rect {
	return gfx.Rect{X: r.X + d, Y: r.Y + d, Width: math.Max(0, r.Width-2*d), Height: math.Max(0, r.Height-2*d)}
}
