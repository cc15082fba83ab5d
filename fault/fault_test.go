package fault

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	errs   []*Error
	panics []*PanicError
}

func (h *recordingHandler) HandleError(err *Error)      { h.errs = append(h.errs, err) }
func (h *recordingHandler) HandlePanic(err *PanicError) { h.panics = append(h.panics, err) }

func TestErrorString(t *testing.T) {
	err := &Error{Op: "gfx.NewBrush", Kind: KindResource, Err: io.ErrUnexpectedEOF}
	assert.Equal(t, "gfx.NewBrush [resource]: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindUnknown:  "unknown",
		KindBackend:  "backend",
		KindResource: "resource",
		KindRender:   "render",
		KindPanic:    "panic",
		KindConfig:   "config",
		Kind(99):     "unknown",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap("op", KindRender, nil))
}

func TestIsKindWalksChain(t *testing.T) {
	inner := Wrap("soft.NewCanvas", KindResource, errors.New("too large"))
	outer := Wrap("gfx.NewCanvas", KindBackend, inner)
	assert.True(t, IsKind(outer, KindBackend))
	assert.True(t, IsKind(outer, KindResource))
	assert.False(t, IsKind(outer, KindPanic))
	assert.False(t, IsKind(errors.New("plain"), KindBackend))
}

func TestPanicErrorUnwrap(t *testing.T) {
	sentinel := errors.New("device lost")
	pe := NewPanicError("render", sentinel)
	assert.ErrorIs(t, pe, sentinel)
	assert.Equal(t, "panic in render: device lost", pe.Error())
	assert.NotEmpty(t, pe.Stack)

	pe = NewPanicError("", "boom")
	assert.Nil(t, pe.Unwrap())
	assert.Equal(t, "panic: boom", pe.Error())
}

func TestReportUsesInstalledHandler(t *testing.T) {
	h := &recordingHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	Report(&Error{Op: "frame", Kind: KindRender, Err: errors.New("x")})
	Report(nil)
	require.Len(t, h.errs, 1)
	assert.False(t, h.errs[0].Timestamp.IsZero())
}

func TestRecoverReportsPanic(t *testing.T) {
	h := &recordingHandler{}
	SetHandler(h)
	defer SetHandler(nil)

	func() {
		defer Recover("scene.frame")
		panic("boom")
	}()

	require.Len(t, h.panics, 1)
	assert.Equal(t, "scene.frame", h.panics[0].Op)
	assert.Equal(t, "boom", h.panics[0].Value)
}

func TestLogHandlerWritesRecords(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Logger: slog.New(slog.NewTextHandler(&buf, nil)), Verbose: true}
	h.HandleError(&Error{Op: "gfx.NewFont", Kind: KindResource, Err: errors.New("no face")})
	h.HandlePanic(NewPanicError("scene.frame", "boom"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "gfx.NewFont"))
	assert.True(t, strings.Contains(out, "scene.frame"))
	assert.True(t, strings.Contains(out, "stack="))
}
