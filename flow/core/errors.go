package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	// ErrInvalidArgument marks construction errors: an operation was configured
	// with a value it cannot work with (negative sizes, nil callbacks, ...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrChainStarted is returned when a chain that already ran is modified or cloned.
	ErrChainStarted = errors.New("chain already started")

	// ErrStreamConsumed is returned by a terminal called on a stream that already ran.
	ErrStreamConsumed = errors.New("stream already consumed")

	// ErrEmptyStream is returned by terminals that need at least one item.
	ErrEmptyStream = errors.New("stream is empty")

	// ErrNoResult is returned when a reducer has nothing to report.
	ErrNoResult = errors.New("reducer has no result")
)

// InvalidArgument builds a construction error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ItemError is an unrecovered per-item error together with the item that
// was being processed when it was raised.
type ItemError struct {
	Err   error
	Key   any
	Value any
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item [%v => %v]: %v", e.Key, e.Value, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// LogicError is the panic value used for engine misuse: operating on a
// sentinel node, touching destroyed state, and the like. It is never routed
// through the error handler chain.
type LogicError struct {
	Msg string
}

func (e LogicError) Error() string {
	return "logic error: " + e.Msg
}

// Fail panics with a LogicError.
func Fail(format string, args ...any) {
	panic(LogicError{Msg: fmt.Sprintf(format, args...)})
}

// ErrPanic wraps a recovered panic value as an error.
// This is used when a user-provided function panics during stream processing.
// It includes a cleaned-up stack trace that excludes internal kvflow frames.
type ErrPanic struct {
	Value any
	Stack string // Cleaned stack trace
}

func (e ErrPanic) Error() string {
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// NewPanicError creates an ErrPanic from a recovered value with a cleaned stack trace.
func NewPanicError(recovered any) ErrPanic {
	return ErrPanic{
		Value: recovered,
		Stack: cleanStack(captureStack(4)), // skip: runtime.Callers, captureStack, NewPanicError, defer func
	}
}

// asError converts a recovered value into an error. LogicError values are
// re-panicked because they indicate a bug, not a data problem.
func asError(recovered any) error {
	if le, ok := recovered.(LogicError); ok {
		panic(le)
	}
	return NewPanicError(recovered)
}

// Catch runs fn and converts a panic raised inside it into an ErrPanic.
func Catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	fn()
	return nil
}

func captureStack(skip int) string {
	const maxFrames = 32
	var pcs [maxFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder

	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}

	return sb.String()
}

// cleanStack removes internal kvflow frames from a stack trace, keeping user
// code and standard library frames.
func cleanStack(stack string) string {
	lines := strings.Split(stack, "\n")
	var result []string
	var skipNext bool

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !strings.HasPrefix(line, "\t") {
			if strings.Contains(line, "github.com/lguimbarda/kvflow/flow/") {
				skipNext = true
				continue
			}
			skipNext = false
		} else if skipNext {
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
