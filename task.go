package csp

import (
	"context"
	"fmt"
)

// fanoutTask is the panic-safe, context-aware unit of work shared by the
// RunAll/ForEach/Map family and their streaming counterparts: fn runs on
// its own goroutine, a recovered panic is reported as ErrTaskPanicked
// exactly like a Nursery child, and a cancelled ctx returns ctx.Err()
// without waiting for fn to notice cancellation on its own.
type fanoutTask[R any] struct {
	fn func(context.Context) (R, error)
}

func newFanoutTask[R any](fn func(context.Context) (R, error)) *fanoutTask[R] {
	return &fanoutTask[R]{fn: fn}
}

func (t *fanoutTask[R]) execute(ctx context.Context) (R, error) {
	var (
		result R
		err    error
	)

	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
			close(done)
		}()
		result, err = t.fn(ctx)
	}()

	select {
	case <-ctx.Done():
		return *new(R), ctx.Err()
	case <-done:
		return result, err
	}
}
