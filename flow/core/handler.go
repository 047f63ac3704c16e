package core

// Decision is the outcome an ErrorHandler picks for a per-item error.
type Decision int

const (
	// Defer lets the next handler in the chain decide. When no handler is
	// left, the error escalates and ends the run.
	Defer Decision = iota
	// Continue treats the error as recovered: the item is dropped and the
	// run proceeds with the next one.
	Continue
	// Abort ends the run cleanly, without reporting the error.
	Abort
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Abort:
		return "abort"
	default:
		return "defer"
	}
}

// ErrorHandler decides what happens after an operation failed on one item.
type ErrorHandler interface {
	HandleError(err error, key, value any) Decision
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(err error, key, value any) Decision

func (f ErrorHandlerFunc) HandleError(err error, key, value any) Decision {
	return f(err, key, value)
}

// ErrorChain consults its handlers in order until one of them makes a decision.
type ErrorChain []ErrorHandler

// HandleError returns the first non-Defer decision, or Defer when every
// handler deferred (or the chain is empty).
func (c ErrorChain) HandleError(err error, key, value any) Decision {
	for _, h := range c {
		if d := h.HandleError(err, key, value); d != Defer {
			return d
		}
	}
	return Defer
}

// With returns a new chain with handlers appended.
func (c ErrorChain) With(handlers ...ErrorHandler) ErrorChain {
	out := make(ErrorChain, 0, len(c)+len(handlers))
	out = append(out, c...)
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
