package arbor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/arbor/fault"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 1.0, cfg.DPI)
	assert.Equal(t, DefaultDirtyCapacity, cfg.DirtyCapacity)
	require.NotNil(t, cfg.ClearColor)
	assert.Equal(t, ColorWhite, *cfg.ClearColor)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
width: 1024
height: 768
dpi: 1.5
dirty_capacity: 16
debug: true
clear_color: {r: 0.1, g: 0.2, b: 0.3, a: 1}
title: demo
`))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
	assert.Equal(t, 1.5, cfg.DPI)
	assert.Equal(t, 16, cfg.DirtyCapacity)
	assert.Equal(t, 64, cfg.QueueDepth, "unset fields take defaults")
	assert.True(t, cfg.Debug)
	assert.Equal(t, "demo", cfg.Title)
	require.NotNil(t, cfg.ClearColor)
	assert.Equal(t, Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, *cfg.ClearColor)
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":         "width: [",
		"negative size":  "width: -1",
		"negative dpi":   "dpi: -2",
		"negative dirty": "dirty_capacity: -1",
		"negative queue": "queue_depth: -5",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			require.Error(t, err)
			assert.True(t, fault.IsKind(err, fault.KindConfig), "err = %v", err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 320\nheight: 200\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindConfig))
	assert.Contains(t, err.Error(), "missing.yaml")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dpi: -1\n"), 0o644))
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid dpi")
}

func TestColorRGBAPremultiplied(t *testing.T) {
	r, g, b, a := Color{R: 1, G: 0.5, B: 0, A: 0.5}.RGBA()
	assert.Equal(t, uint32(0x7fff), a)
	assert.InDelta(t, 0x7fff, r, 1)
	assert.InDelta(t, 0x3fff, g, 1)
	assert.Equal(t, uint32(0), b)

	_, _, _, a = Color{R: 2, A: 3}.RGBA()
	assert.Equal(t, uint32(0xffff), a, "components are clamped")
}
