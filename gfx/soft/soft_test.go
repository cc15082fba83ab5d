package soft

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/arbor/gfx"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func newTarget(t *testing.T, w, h int) (*Backend, *Canvas) {
	t.Helper()
	b := New()
	c, err := b.NewCanvas(w, h)
	require.NoError(t, err)
	b.SetTarget(c)
	return b, c.(*Canvas)
}

func TestNewCanvasRejectsBadSizes(t *testing.T) {
	b := New()
	for _, sz := range [][2]int{{0, 10}, {10, -1}, {MaxCanvasSize + 1, 1}} {
		c, err := b.NewCanvas(sz[0], sz[1])
		assert.ErrorIs(t, err, ErrCanvasSize)
		assert.Nil(t, c)
	}
}

func TestResourceValidation(t *testing.T) {
	b := New()
	_, err := b.NewPen(red, 0)
	assert.ErrorIs(t, err, ErrInvalidWidth)
	_, err = b.NewGeometry([]gfx.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	assert.ErrorIs(t, err, ErrFewPoints)
	_, err = b.NewBitmap(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyBitmap)

	g, err := b.NewGeometry([]gfx.Point{{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 3, Y: 8}})
	require.NoError(t, err)
	assert.Equal(t, gfx.Rect{X: 1, Y: 2, Width: 4, Height: 6}, g.Bounds())
}

func TestFillRectAndClip(t *testing.T) {
	b, c := newTarget(t, 20, 20)
	br, _ := b.NewBrush(red)

	b.PushClip(gfx.Rect{X: 0, Y: 0, Width: 10, Height: 20})
	b.FillRect(gfx.Rect{X: 0, Y: 0, Width: 20, Height: 20}, br)
	b.PopClip()

	assert.Equal(t, red, c.Image().RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, c.Image().RGBAAt(15, 5), "fill must stay inside clip")
}

func TestPopClipOnEmptyStack(t *testing.T) {
	b, c := newTarget(t, 4, 4)
	b.PopClip()
	b.Clear(white)
	assert.Equal(t, white, c.Image().RGBAAt(3, 3))
}

func TestStrokeRectLeavesInteriorEmpty(t *testing.T) {
	b, c := newTarget(t, 40, 40)
	p, _ := b.NewPen(red, 2)
	b.StrokeRect(gfx.Rect{X: 10, Y: 10, Width: 20, Height: 20}, p)

	assert.GreaterOrEqual(t, int(c.Image().RGBAAt(10, 20).A), 250)
	assert.Equal(t, uint8(0), c.Image().RGBAAt(20, 20).A)
}

func TestFillEllipseCoversCenterNotCorner(t *testing.T) {
	b, c := newTarget(t, 20, 20)
	br, _ := b.NewBrush(red)
	b.FillEllipse(gfx.Rect{X: 0, Y: 0, Width: 20, Height: 20}, br)

	assert.GreaterOrEqual(t, int(c.Image().RGBAAt(10, 10).A), 250)
	assert.Equal(t, uint8(0), c.Image().RGBAAt(0, 0).A)
}

func TestMeasureText(t *testing.T) {
	b := New()
	f, err := b.NewFont(gfx.FontSpec{Family: "any", Size: 12})
	require.NoError(t, err)
	w, h := b.MeasureText("abc", f)
	assert.Equal(t, 21.0, w)
	assert.Equal(t, 13.0, h)
}

func TestDrawBitmapAlpha(t *testing.T) {
	b, c := newTarget(t, 4, 4)
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	bm, err := b.NewBitmap(src)
	require.NoError(t, err)
	b.DrawBitmap(bm, gfx.Rect{X: 0, Y: 0, Width: 4, Height: 4}, 0.5)

	got := c.Image().RGBAAt(2, 2)
	assert.InDelta(t, 128, int(got.A), 2)
}

func TestSnapshotWritesPNG(t *testing.T) {
	b, c := newTarget(t, 8, 8)
	b.Clear(red)
	path, err := Snapshot(t.TempDir(), "after layout", c)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeLabel(tt.in), "sanitizeLabel(%q)", tt.in)
	}
}
