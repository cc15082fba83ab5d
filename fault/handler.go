package fault

import (
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Handler receives faults that have no caller to return to.
type Handler interface {
	HandleError(err *Error)
	HandlePanic(err *PanicError)
}

// LogHandler writes faults to a slog.Logger.
type LogHandler struct {
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
	// Verbose adds stack traces to panic records.
	Verbose bool
}

func (h *LogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleError logs err at error level.
func (h *LogHandler) HandleError(err *Error) {
	if err == nil {
		return
	}
	h.logger().Error("arbor fault",
		"op", err.Op, "kind", err.Kind.String(), "err", err.Err)
}

// HandlePanic logs a recovered panic at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	attrs := []any{"op", err.Op, "value", err.Value}
	if h.Verbose && err.Stack != "" {
		attrs = append(attrs, "stack", err.Stack)
	}
	h.logger().Error("arbor panic", attrs...)
}

var (
	handlerMu sync.RWMutex
	handler   Handler = &LogHandler{}
)

// SetHandler installs the process-wide handler. Call it during startup,
// before any Scene is created. Passing nil restores the default LogHandler.
func SetHandler(h Handler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		handler = &LogHandler{}
		return
	}
	handler = h
}

func current() Handler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}

// Report sends err to the installed handler.
func Report(err *Error) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	current().HandleError(err)
}

// ReportPanic sends a recovered panic to the installed handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	current().HandlePanic(err)
}

// Recover reports a panic in flight. Use as: defer fault.Recover("op").
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(NewPanicError(op, r))
	}
}

// CaptureStack returns the caller's stack, skipping CaptureStack and its
// immediate caller.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteByte('\n')
		if !more {
			break
		}
	}
	return sb.String()
}
