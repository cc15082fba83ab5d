// Package fault provides structured errors and the process-wide fault
// notifier used by arbor.
//
// Programmer errors in tree and layout code are not reported here; they
// degrade to false returns or no-ops. Backend faults travel back to the
// goroutine that issued the render task. Only faults that have no caller to
// return to, such as a panic escaping a frame pass, go through [Report] and
// [ReportPanic].
package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the category of a fault.
type Kind int

const (
	KindUnknown  Kind = iota
	KindBackend       // backend construction or device loss
	KindResource      // resource creation failed
	KindRender        // frame pass failed
	KindPanic         // recovered panic
	KindConfig        // configuration could not be loaded
)

func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindResource:
		return "resource"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is a structured fault raised by arbor.
type Error struct {
	// Op is the operation that failed (e.g. "gfx.NewBrush").
	Op   string
	Kind Kind
	Err  error
	// Timestamp is set by Report when left zero.
	Timestamp time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err annotated with op and kind, or nil when err is nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	for err != nil {
		if !errors.As(err, &fe) {
			return false
		}
		if fe.Kind == kind {
			return true
		}
		err = fe.Err
	}
	return false
}

// PanicError is a recovered panic.
type PanicError struct {
	Op    string
	Value any
	// Stack is the call stack captured at recovery.
	Stack     string
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error, so callers can
// match the original fault with errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicError builds a PanicError for a value obtained from recover.
func NewPanicError(op string, value any) *PanicError {
	return &PanicError{
		Op:        op,
		Value:     value,
		Stack:     CaptureStack(),
		Timestamp: time.Now(),
	}
}
