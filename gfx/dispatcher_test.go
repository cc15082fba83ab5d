package gfx_test

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/arbor/fault"
	"github.com/phanxgames/arbor/gfx"
	"github.com/phanxgames/arbor/gfx/soft"
)

type closeCounting struct {
	*soft.Backend
	closed *atomic.Int32
}

func (b closeCounting) Close() error {
	b.closed.Add(1)
	return b.Backend.Close()
}

func newDispatcher(t *testing.T) *gfx.Dispatcher {
	t.Helper()
	d, err := gfx.NewDispatcher(soft.NewBackend)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestTaskRunsOnRenderThread(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()
	assert.False(t, d.OnRenderThread(ctx))

	var inside bool
	require.NoError(t, d.Task(ctx, func(ctx context.Context, b gfx.Backend) error {
		inside = d.OnRenderThread(ctx)
		return nil
	}))
	assert.True(t, inside)
}

func TestReentrantTaskRunsInline(t *testing.T) {
	d := newDispatcher(t)
	before := d.Processed()

	var brush gfx.Brush
	err := d.Task(context.Background(), func(ctx context.Context, _ gfx.Backend) error {
		var err error
		brush, err = d.NewBrush(ctx, color.White)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, brush)
	assert.Equal(t, before+1, d.Processed(), "nested call must not be queued")
}

func TestTaskErrorKeepsIdentity(t *testing.T) {
	d := newDispatcher(t)
	sentinel := errors.New("device lost")
	err := d.Task(context.Background(), func(context.Context, gfx.Backend) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestTaskPanicIsReturnedToCaller(t *testing.T) {
	d := newDispatcher(t)
	sentinel := errors.New("out of memory")
	err := d.Task(context.Background(), func(context.Context, gfx.Backend) error {
		panic(sentinel)
	})
	var pe *fault.PanicError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, sentinel)

	// The render thread survives the panic.
	_, err = d.NewBrush(context.Background(), color.Black)
	assert.NoError(t, err)
}

func TestFailedCreationYieldsNilHandle(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	c, err := d.NewCanvas(ctx, 0, 0)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, soft.ErrCanvasSize)
	assert.True(t, fault.IsKind(err, fault.KindResource))

	// Draw calls against null handles are no-ops.
	assert.NoError(t, d.SetTarget(ctx, c))
	assert.NoError(t, d.FillRect(ctx, gfx.Rect{Width: 10, Height: 10}, nil))
	assert.NoError(t, d.StrokeEllipse(ctx, gfx.Rect{Width: 10, Height: 10}, nil))
	assert.NoError(t, d.DrawBitmap(ctx, nil, gfx.Rect{Width: 1, Height: 1}, 1))
	w, h, err := d.MeasureText(ctx, "x", nil)
	assert.NoError(t, err)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestConcurrentResourceCreation(t *testing.T) {
	const (
		workers = 8
		calls   = 1000
	)
	d := newDispatcher(t)
	before := d.Processed()

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < calls; i++ {
				want := color.RGBA{R: uint8(w), G: uint8(i >> 8), B: uint8(i), A: 255}
				br, err := d.NewBrush(context.Background(), want)
				if err != nil {
					return err
				}
				if got := br.Color(); got != want {
					return errors.New("brush colour cross-talk")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, before+workers*calls, d.Processed())
}

func TestSameGoroutineOrderIsFIFO(t *testing.T) {
	d := newDispatcher(t)
	var got []int
	for i := 0; i < 50; i++ {
		require.NoError(t, d.Do(context.Background(), func(context.Context) error {
			got = append(got, i)
			return nil
		}))
	}
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestCloseDrainsAndRejects(t *testing.T) {
	var closed atomic.Int32
	d, err := gfx.NewDispatcher(func() (gfx.Backend, error) {
		return closeCounting{Backend: soft.New(), closed: &closed}, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(context.Background(), func(context.Context) error {
				ran.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, int32(1), closed.Load())
	assert.ErrorIs(t, d.Do(context.Background(), func(context.Context) error { return nil }), gfx.ErrClosed)
}

func TestWakeRunsIdleHook(t *testing.T) {
	d := newDispatcher(t)
	fired := make(chan bool, 1)
	d.SetIdle(func(ctx context.Context) {
		fired <- d.OnRenderThread(ctx)
	})
	d.Wake()
	select {
	case onThread := <-fired:
		assert.True(t, onThread)
	case <-time.After(2 * time.Second):
		t.Fatal("idle hook did not run")
	}
}

func TestNewDispatcherBackendError(t *testing.T) {
	boom := errors.New("no adapter")
	d, err := gfx.NewDispatcher(func() (gfx.Backend, error) { return nil, boom })
	assert.Nil(t, d)
	assert.ErrorIs(t, err, boom)
	assert.True(t, fault.IsKind(err, fault.KindBackend))
}

func TestNestedCallWithForeignContextRunsInline(t *testing.T) {
	d := newDispatcher(t)
	before := d.Processed()

	done := make(chan error, 1)
	go func() {
		done <- d.Task(context.Background(), func(ctx context.Context, _ gfx.Backend) error {
			// Hooks that drop the render context still run on the render thread.
			if !d.OnRenderThread(context.Background()) {
				return errors.New("render goroutine not recognised")
			}
			_, err := d.NewBrush(context.Background(), color.White)
			return err
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("nested call with a background context deadlocked")
	}
	assert.Equal(t, before+1, d.Processed(), "nested call must not be queued")
	assert.False(t, d.OnRenderThread(context.Background()))
}

func TestProcessedCountedBeforeReturn(t *testing.T) {
	d := newDispatcher(t)
	before := d.Processed()
	for i := uint64(1); i <= 200; i++ {
		require.NoError(t, d.Do(context.Background(), func(context.Context) error { return nil }))
		require.Equal(t, before+i, d.Processed())
	}
}

func TestDisposeCanvas(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()
	c, err := d.NewCanvas(ctx, 8, 8)
	require.NoError(t, err)
	require.NoError(t, d.SetTarget(ctx, c))

	require.NoError(t, d.DisposeCanvas(ctx, c))
	require.NoError(t, d.DisposeCanvas(ctx, nil))
	require.NoError(t, d.DisposeBitmap(ctx, nil))
	w, h := c.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)

	// The disposed target is deselected, so drawing is a no-op.
	br, err := d.NewBrush(ctx, color.White)
	require.NoError(t, err)
	assert.NoError(t, d.FillRect(ctx, gfx.Rect{Width: 8, Height: 8}, br))
}
