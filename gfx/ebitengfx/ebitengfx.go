// Package ebitengfx is a gfx.Backend on Ebitengine images.
//
// Ebitengine schedules its own GPU work; this backend only requires that all
// of its calls come from one goroutine, which gfx.Dispatcher guarantees.
package ebitengfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/phanxgames/arbor/gfx"
)

// MaxCanvasSize bounds each canvas dimension.
const MaxCanvasSize = 8192

var (
	ErrCanvasSize   = errors.New("ebitengfx: canvas size out of range")
	ErrEmptyBitmap  = errors.New("ebitengfx: empty bitmap")
	ErrFewPoints    = errors.New("ebitengfx: geometry needs at least 3 points")
	ErrInvalidWidth = errors.New("ebitengfx: pen width must be positive")
)

// --- Resources ---

// Canvas is an offscreen ebiten.Image.
type Canvas struct {
	img *ebiten.Image
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the underlying image, e.g. for a host to draw to the screen.
func (c *Canvas) Image() *ebiten.Image { return c.img }

type Bitmap struct {
	img *ebiten.Image
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

type Font struct {
	spec gfx.FontSpec
	face text.Face
}

func (f *Font) Spec() gfx.FontSpec { return f.spec }

type Geometry struct {
	pts    []gfx.Point
	bounds gfx.Rect
}

func (g *Geometry) Bounds() gfx.Rect { return g.bounds }

// --- Backend ---

// Backend implements gfx.Backend with Ebitengine.
type Backend struct {
	target *ebiten.Image
	clips  []image.Rectangle
	white  *ebiten.Image
	face   text.Face

	// reused triangle buffers
	verts []ebiten.Vertex
	inds  []uint16
}

// New returns an Ebitengine backend with no target selected.
func New() *Backend {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	return &Backend{
		white: white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
		face:  text.NewGoXFace(basicfont.Face7x13),
	}
}

// NewBackend adapts New to the constructor signature gfx.NewDispatcher takes.
func NewBackend() (gfx.Backend, error) {
	return New(), nil
}

func (b *Backend) NewCanvas(w, h int) (gfx.Canvas, error) {
	if w <= 0 || h <= 0 || w > MaxCanvasSize || h > MaxCanvasSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}
	return &Canvas{img: ebiten.NewImage(w, h)}, nil
}

func (b *Backend) NewBitmap(img image.Image) (gfx.Bitmap, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyBitmap
	}
	return &Bitmap{img: ebiten.NewImageFromImage(img)}, nil
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
	return &Font{spec: spec, face: b.face}, nil
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

// DisposeCanvas releases the canvas texture. Ebitengine reallocates it if
// the image is drawn to again.
func (b *Backend) DisposeCanvas(c gfx.Canvas) {
	cv, ok := c.(*Canvas)
	if !ok {
		return
	}
	if b.target == cv.img {
		b.target = nil
		b.clips = b.clips[:0]
	}
	cv.img.Deallocate()
}

func (b *Backend) DisposeBitmap(bm gfx.Bitmap) {
	if eb, ok := bm.(*Bitmap); ok {
		eb.img.Deallocate()
	}
}

func (b *Backend) SetTarget(c gfx.Canvas) {
	cv, ok := c.(*Canvas)
	if !ok {
		return
	}
	b.target = cv.img
	b.clips = b.clips[:0]
}

func (b *Backend) clip() image.Rectangle {
	if b.target == nil {
		return image.Rectangle{}
	}
	if n := len(b.clips); n > 0 {
		return b.clips[n-1]
	}
	return b.target.Bounds()
}

// dst returns the target restricted to the current clip, or nil when there
// is nothing to draw into. Subimages share the parent's coordinate space.
func (b *Backend) dst() *ebiten.Image {
	clip := b.clip()
	if clip.Empty() {
		return nil
	}
	return b.target.SubImage(clip).(*ebiten.Image)
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
	if dst := b.dst(); dst != nil {
		dst.Fill(c)
	}
}

func (b *Backend) FillRect(r gfx.Rect, br gfx.Brush) {
	if dst := b.dst(); dst != nil {
		vector.DrawFilledRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), br.Color(), true)
	}
}

func (b *Backend) StrokeRect(r gfx.Rect, p gfx.Pen) {
	if dst := b.dst(); dst != nil {
		vector.StrokeRect(dst, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), float32(p.Width()), p.Color(), true)
	}
}

func (b *Backend) FillRoundRect(r gfx.Rect, radius float64, br gfx.Brush) {
	var path vector.Path
	roundRectPath(&path, r, radius)
	b.fillPath(&path, br.Color())
}

func (b *Backend) StrokeRoundRect(r gfx.Rect, radius float64, p gfx.Pen) {
	var path vector.Path
	roundRectPath(&path, r, radius)
	b.strokePath(&path, p)
}

func (b *Backend) FillEllipse(r gfx.Rect, br gfx.Brush) {
	var path vector.Path
	ellipsePath(&path, r)
	b.fillPath(&path, br.Color())
}

func (b *Backend) StrokeEllipse(r gfx.Rect, p gfx.Pen) {
	var path vector.Path
	ellipsePath(&path, r)
	b.strokePath(&path, p)
}

func (b *Backend) Line(from, to gfx.Point, p gfx.Pen) {
	if dst := b.dst(); dst != nil {
		vector.StrokeLine(dst, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y), float32(p.Width()), p.Color(), true)
	}
}

func (b *Backend) FillGeometry(g gfx.Geometry, br gfx.Brush) {
	geo, ok := g.(*Geometry)
	if !ok {
		return
	}
	var path vector.Path
	path.MoveTo(float32(geo.pts[0].X), float32(geo.pts[0].Y))
	for _, pt := range geo.pts[1:] {
		path.LineTo(float32(pt.X), float32(pt.Y))
	}
	path.Close()
	b.fillPath(&path, br.Color())
}

func (b *Backend) Text(s string, f gfx.Font, at gfx.Point, br gfx.Brush) {
	ft, ok := f.(*Font)
	dst := b.dst()
	if !ok || dst == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(at.X, at.Y)
	op.ColorScale.ScaleWithColor(br.Color())
	text.Draw(dst, s, ft.face, op)
}

func (b *Backend) MeasureText(s string, f gfx.Font) (float64, float64) {
	ft, ok := f.(*Font)
	if !ok {
		return 0, 0
	}
	m := ft.face.Metrics()
	return text.Measure(s, ft.face, m.HAscent+m.HDescent)
}

func (b *Backend) DrawBitmap(bm gfx.Bitmap, dst gfx.Rect, alpha float64) {
	src, ok := bm.(*Bitmap)
	target := b.dst()
	if !ok || target == nil || alpha <= 0 {
		return
	}
	w, h := src.Size()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(dst.Width/float64(w), dst.Height/float64(h))
	op.GeoM.Translate(dst.X, dst.Y)
	op.ColorScale.ScaleAlpha(float32(math.Min(alpha, 1)))
	op.Filter = ebiten.FilterLinear
	target.DrawImage(src.img, op)
}

func (b *Backend) Close() error {
	b.target = nil
	b.clips = nil
	b.verts = nil
	b.inds = nil
	return nil
}

func (b *Backend) fillPath(path *vector.Path, c color.Color) {
	dst := b.dst()
	if dst == nil {
		return
	}
	b.verts, b.inds = path.AppendVerticesAndIndicesForFilling(b.verts[:0], b.inds[:0])
	b.drawTriangles(dst, c, ebiten.FillRuleNonZero)
}

func (b *Backend) strokePath(path *vector.Path, p gfx.Pen) {
	dst := b.dst()
	if dst == nil {
		return
	}
	op := &vector.StrokeOptions{Width: float32(p.Width()), LineJoin: vector.LineJoinRound}
	b.verts, b.inds = path.AppendVerticesAndIndicesForStroke(b.verts[:0], b.inds[:0], op)
	b.drawTriangles(dst, p.Color(), ebiten.FillRuleFillAll)
}

func (b *Backend) drawTriangles(dst *ebiten.Image, c color.Color, rule ebiten.FillRule) {
	r, g, bl, a := c.RGBA()
	for i := range b.verts {
		v := &b.verts[i]
		v.SrcX, v.SrcY = 1, 1
		v.ColorR = float32(r) / 0xffff
		v.ColorG = float32(g) / 0xffff
		v.ColorB = float32(bl) / 0xffff
		v.ColorA = float32(a) / 0xffff
	}
	dst.DrawTriangles(b.verts, b.inds, b.white, &ebiten.DrawTrianglesOptions{
		FillRule:  rule,
		AntiAlias: true,
	})
}

func ellipsePath(path *vector.Path, r gfx.Rect) {
	const segments = 48
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	rx, ry := r.Width/2, r.Height/2
	path.MoveTo(float32(cx+rx), float32(cy))
	for i := 1; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		path.LineTo(float32(cx+rx*math.Cos(a)), float32(cy+ry*math.Sin(a)))
	}
	path.Close()
}

func roundRectPath(path *vector.Path, r gfx.Rect, radius float64) {
	radius = math.Min(radius, math.Min(r.Width, r.Height)/2)
	if radius < 0 {
		radius = 0
	}
	x0, y0 := float32(r.X), float32(r.Y)
	x1, y1 := float32(r.Right()), float32(r.Bottom())
	rad := float32(radius)
	path.MoveTo(x0+rad, y0)
	path.ArcTo(x1, y0, x1, y1, rad)
	path.ArcTo(x1, y1, x0, y1, rad)
	path.ArcTo(x0, y1, x0, y0, rad)
	path.ArcTo(x0, y0, x1, y0, rad)
	path.Close()
}

func pixelRect(r gfx.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.Right())), int(math.Round(r.Bottom())),
	)
}
