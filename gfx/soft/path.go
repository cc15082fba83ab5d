package soft

import (
	"math"

	"golang.org/x/image/vector"

	"github.com/phanxgames/arbor/gfx"
)

const (
	ellipseSegments = 48
	cornerSegments  = 8
)

// path feeds polygons into a rasterizer whose origin sits at (ox, oy) in
// canvas space. Reversed polygons wind the other way, so a reversed inner
// outline punches a hole into an outer one.
type path struct {
	r      *vector.Rasterizer
	ox, oy float64
}

func (z *path) polygon(pts []gfx.Point, reverse bool) {
	n := len(pts)
	if n < 3 {
		return
	}
	at := func(i int) gfx.Point {
		if reverse {
			return pts[n-1-i]
		}
		return pts[i]
	}
	p := at(0)
	z.r.MoveTo(float32(p.X-z.ox), float32(p.Y-z.oy))
	for i := 1; i < n; i++ {
		p = at(i)
		z.r.LineTo(float32(p.X-z.ox), float32(p.Y-z.oy))
	}
	z.r.ClosePath()
}

func (z *path) rect(r gfx.Rect, reverse bool) {
	if r.Empty() {
		return
	}
	z.polygon([]gfx.Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}, reverse)
}

func (z *path) ellipse(r gfx.Rect, reverse bool) {
	if r.Empty() {
		return
	}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	rx, ry := r.Width/2, r.Height/2
	pts := make([]gfx.Point, ellipseSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts[i] = gfx.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	z.polygon(pts, reverse)
}

func (z *path) roundRect(r gfx.Rect, radius float64, reverse bool) {
	if r.Empty() {
		return
	}
	radius = math.Min(radius, math.Min(r.Width, r.Height)/2)
	if radius <= 0 {
		z.rect(r, reverse)
		return
	}
	corners := [4]struct{ cx, cy, start float64 }{
		{r.Right() - radius, r.Y + radius, -math.Pi / 2},
		{r.Right() - radius, r.Bottom() - radius, 0},
		{r.X + radius, r.Bottom() - radius, math.Pi / 2},
		{r.X + radius, r.Y + radius, math.Pi},
	}
	pts := make([]gfx.Point, 0, 4*(cornerSegments+1))
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			a := c.start + (math.Pi/2)*float64(i)/cornerSegments
			pts = append(pts, gfx.Point{X: c.cx + radius*math.Cos(a), Y: c.cy + radius*math.Sin(a)})
		}
	}
	z.polygon(pts, reverse)
}
