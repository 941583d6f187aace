package csp

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error message in this package, so a
// bare error string still identifies its origin in aggregated logs.
const Namespace = "csp"

var (
	// ErrInvalidArgument is returned for programmer errors in construction:
	// a negative Channel capacity, or a duplicate name passed to
	// Nursery.Start.
	ErrInvalidArgument = errors.New(Namespace + ": invalid argument")

	// ErrInvalidPayload is returned by Send/SendNowait/Select when asked to
	// send the forbidden nil payload. It is raised synchronously, before
	// any waiter is enqueued or any channel state is mutated.
	ErrInvalidPayload = errors.New(Namespace + ": you can not send nil to a channel")

	// ErrTaskPanicked wraps a recovered panic from a task run under RunAll,
	// ForEach, Map, or a Nursery child.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")
)

// ChildFailure is raised at Nursery scope release, under the
// IgnoreAndRaise and CancelSiblingsAndRaise policies, when a non-main
// child is the first task to fail. It chains the child's original error.
type ChildFailure struct {
	// Name is the nursery-unique name of the failing child task.
	Name string
	// Err is the original error returned (or panic-wrapped) by the child.
	Err error
}

func (e *ChildFailure) Error() string {
	return Namespace + ": child task \"" + e.Name + "\" failed: " + e.Err.Error()
}

func (e *ChildFailure) Unwrap() error { return e.Err }

// Format supports %+v with the failing child's name alongside the
// wrapped error's own verbose form.
func (e *ChildFailure) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "child(name=%s): %+v", e.Name, e.Err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}
