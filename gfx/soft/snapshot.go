package soft

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot writes c as a PNG into dir, named after label and the current
// time, and returns the file path.
func Snapshot(dir, label string, c *Canvas) (string, error) {
	return SnapshotImage(dir, label, c.img)
}

// SnapshotImage is Snapshot for premultiplied pixels read back from any
// backend.
func SnapshotImage(dir, label string, img *image.RGBA) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG encodes the canvas to a PNG file at path.
func WritePNG(path string, c *Canvas) error {
	return writePNG(path, c.img)
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, straightAlpha(img)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// straightAlpha converts premultiplied RGBA pixels to NRGBA.
func straightAlpha(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[(y)*src.Stride : (y)*src.Stride+4*b.Dx()]
		d := img.Pix[y*img.Stride : y*img.Stride+4*b.Dx()]
		for i := 0; i < len(s); i += 4 {
			r, g, bl, a := s[i], s[i+1], s[i+2], s[i+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			d[i], d[i+1], d[i+2], d[i+3] = r, g, bl, a
		}
	}
	return img
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
