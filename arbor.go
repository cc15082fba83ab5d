package arbor

import "github.com/phanxgames/arbor/gfx"

// Rect is an axis-aligned rectangle in render space.
type Rect = gfx.Rect

// Vec2 is a 2D vector used for positions, sizes and per-axis scales.
type Vec2 struct {
	X, Y float64
}

// axis returns the component for axis 0 (X) or 1 (Y).
func (v Vec2) axis(i int) float64 {
	if i == 0 {
		return v.X
	}
	return v.Y
}

// Insets are padding widths on each edge.
type Insets struct {
	Left, Top, Right, Bottom float64
}

// Uniform returns insets of v on every edge.
func Uniform(v float64) Insets {
	return Insets{v, v, v, v}
}

// Unit selects how a declared Dim is resolved against the parent.
type Unit uint8

const (
	UnitPixel     Unit = iota // value × effective scale
	UnitPercent               // value% of the parent's content box
	UnitFillMinus             // parent's remaining extent minus value × scale
)

// Dim is a declared length along one axis.
type Dim struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel Dim.
func Px(v float64) Dim { return Dim{Value: v} }

// Pct returns a percentage Dim.
func Pct(v float64) Dim { return Dim{Value: v, Unit: UnitPercent} }

// FillMinus returns a Dim filling the remaining extent minus v pixels.
func FillMinus(v float64) Dim { return Dim{Value: v, Unit: UnitFillMinus} }

// LayoutMode selects how a node positions its children.
type LayoutMode uint8

const (
	LayoutBlock                   LayoutMode = iota // left-to-right flow with wrapping
	LayoutLinearVertical                            // top to bottom, anchored left
	LayoutLinearHorizontal                          // left to right, anchored top
	LayoutLinearVerticalReverse                     // bottom to top, anchored right
	LayoutLinearHorizontalReverse                   // right to left, anchored bottom
	LayoutAbsolute                                  // content origin + declared offset
	LayoutCenter                                    // centered, nudged by declared offset
	LayoutGrid                                      // not implemented; children keep their frames
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutBlock:
		return "block"
	case LayoutLinearVertical:
		return "linear-vertical"
	case LayoutLinearHorizontal:
		return "linear-horizontal"
	case LayoutLinearVerticalReverse:
		return "linear-vertical-reverse"
	case LayoutLinearHorizontalReverse:
		return "linear-horizontal-reverse"
	case LayoutAbsolute:
		return "absolute"
	case LayoutCenter:
		return "center"
	case LayoutGrid:
		return "grid"
	default:
		return "unknown"
	}
}

// linear reports whether m is one of the Linear variants.
func (m LayoutMode) linear() bool {
	return m >= LayoutLinearVertical && m <= LayoutLinearHorizontalReverse
}

// sequential reports whether a child's placement depends on its earlier
// siblings.
func (m LayoutMode) sequential() bool {
	return m == LayoutBlock || m.linear()
}

// Color is an RGBA color with components in [0, 1], not premultiplied. It
// implements color.Color, so it can be handed to any gfx constructor.
type Color struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{}
)

// RGBA returns premultiplied 16-bit components.
func (c Color) RGBA() (r, g, b, a uint32) {
	alpha := clamp(c.A, 0, 1)
	r = uint32(clamp(c.R, 0, 1) * alpha * 0xffff)
	g = uint32(clamp(c.G, 0, 1) * alpha * 0xffff)
	b = uint32(clamp(c.B, 0, 1) * alpha * 0xffff)
	a = uint32(alpha * 0xffff)
	return
}
