package gfx

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/phanxgames/arbor/fault"
)

// ErrClosed is returned by Task once the dispatcher has been shut down.
var ErrClosed = errors.New("gfx: dispatcher closed")

const defaultQueueDepth = 64

// TaskFunc is a unit of work executed on the render thread. ctx identifies
// the render thread: passing it to further dispatcher calls runs them inline.
type TaskFunc func(ctx context.Context, b Backend) error

type task struct {
	fn   TaskFunc
	done chan error
}

type renderThreadKey struct{}

// Dispatcher owns one Backend and runs every call against it on a single
// goroutine locked to its OS thread (the render thread). Calls from other
// goroutines block until their task has run; calls made with a context
// handed out by the render thread run inline.
type Dispatcher struct {
	queue chan task
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}

	// mu guards closed against concurrent senders: senders hold it for
	// reading while enqueueing, Close takes it for writing.
	mu     sync.RWMutex
	closed bool

	backend   Backend
	renderG   atomic.Uint64
	idle      atomic.Pointer[func(ctx context.Context)]
	processed atomic.Uint64
	ctx       context.Context
	log       *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithQueueDepth sets how many tasks may wait before senders block on the
// enqueue itself. Senders always block on completion regardless.
func WithQueueDepth(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.queue = make(chan task, n)
		}
	}
}

// NewDispatcher starts the render thread and constructs the backend on it.
// A construction error stops the thread and is returned.
func NewDispatcher(newBackend func() (Backend, error), opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		queue: make(chan task, defaultQueueDepth),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ctx = context.WithValue(context.Background(), renderThreadKey{}, d)

	started := make(chan error, 1)
	go d.loop(newBackend, started)
	if err := <-started; err != nil {
		<-d.done
		return nil, fault.Wrap("gfx.NewDispatcher", fault.KindBackend, err)
	}
	return d, nil
}

func (d *Dispatcher) loop(newBackend func() (Backend, error), started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.done)
	d.renderG.Store(goroutineID())

	b, err := newBackend()
	if err != nil {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		started <- err
		return
	}
	d.backend = b
	started <- nil

	for {
		select {
		case t := <-d.queue:
			d.exec(t)
		case <-d.wake:
			d.runIdle()
		case <-d.stop:
			// Close holds the write lock while closing stop, so no sender is
			// mid-enqueue and the queue can be drained without blocking.
		drain:
			for {
				select {
				case t := <-d.queue:
					d.exec(t)
				default:
					break drain
				}
			}
			if err := d.backend.Close(); err != nil {
				d.log.Warn("gfx: backend close", "err", err)
			}
			d.backend = nil
			return
		}
	}
}

func (d *Dispatcher) exec(t task) {
	err := d.run(t.fn)
	d.processed.Add(1)
	t.done <- err
}

func (d *Dispatcher) run(fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fault.NewPanicError("gfx.Task", r)
		}
	}()
	return fn(d.ctx, d.backend)
}

func (d *Dispatcher) runIdle() {
	fn := d.idle.Load()
	if fn == nil {
		return
	}
	defer fault.Recover("gfx.idle")
	(*fn)(d.ctx)
}

// OnRenderThread reports whether the caller is running on this dispatcher's
// render thread. A context issued by the render thread answers without
// inspecting the goroutine; any other context, context.Background included,
// falls back to comparing the calling goroutine with the render goroutine.
func (d *Dispatcher) OnRenderThread(ctx context.Context) bool {
	if ctx != nil {
		if owner, _ := ctx.Value(renderThreadKey{}).(*Dispatcher); owner == d {
			return true
		}
	}
	g := d.renderG.Load()
	return g != 0 && g == goroutineID()
}

// Task runs fn on the render thread and returns its error. The caller blocks
// until fn has run. Errors returned by fn are passed through unchanged; a
// panic inside fn is returned as a *fault.PanicError.
//
// Tasks have no cancellation: ctx is only inspected to detect re-entrant
// calls from the render thread, which run inline. Re-entrant calls made with
// an unrelated context are detected too, at the cost of a stack lookup.
func (d *Dispatcher) Task(ctx context.Context, fn TaskFunc) error {
	if d.OnRenderThread(ctx) {
		return d.run(fn)
	}
	t := task{fn: fn, done: make(chan error, 1)}
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrClosed
	}
	d.queue <- t
	d.mu.RUnlock()
	return <-t.done
}

// Do runs fn on the render thread without exposing the backend. Use it to
// marshal tree and layout mutation onto the thread that reads them.
func (d *Dispatcher) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.Task(ctx, func(ctx context.Context, _ Backend) error {
		return fn(ctx)
	})
}

// SetIdle installs the hook run on the render thread after each Wake.
func (d *Dispatcher) SetIdle(fn func(ctx context.Context)) {
	if fn == nil {
		d.idle.Store(nil)
		return
	}
	d.idle.Store(&fn)
}

// Wake asks the render thread to run its idle hook. It never blocks;
// multiple wakes before the thread gets to them coalesce.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Processed returns the number of tasks the render thread has executed.
// Inline re-entrant calls are not counted.
func (d *Dispatcher) Processed() uint64 {
	return d.processed.Load()
}

// Close stops accepting tasks, drains the queue, closes the backend on the
// render thread and waits for the thread to exit. Close is idempotent. It
// must not be called from the render thread.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	close(d.stop)
	d.mu.Unlock()
	<-d.done
	return nil
}
