package csp

import (
	"errors"
	"fmt"
)

// ItemError exposes the input index of a failed fan-out item, letting a
// caller correlate one error out of RunAll/ForEach/Map/*Stream's
// aggregated result back to the item that produced it.
type ItemError interface {
	error
	Unwrap() error
	Index() int
}

type itemError struct {
	err error
	idx int
}

func newItemError(err error, idx int) error {
	if err == nil {
		return nil
	}
	return &itemError{err: err, idx: idx}
}

func (e *itemError) Error() string { return e.err.Error() }
func (e *itemError) Unwrap() error { return e.err }
func (e *itemError) Index() int    { return e.idx }

func (e *itemError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "item(index=%d): %+v", e.idx, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ItemIndex returns the input index associated with err, if any item in
// err's chain carries one.
func ItemIndex(err error) (int, bool) {
	var ie ItemError
	if errors.As(err, &ie) {
		return ie.Index(), true
	}
	return 0, false
}
