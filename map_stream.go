package csp

import "context"

// MapStream is RunStream under a name that reads better at a call site
// that cares about the results, not the task framing.
func MapStream[T, R any](
	ctx context.Context, in *Channel, fn func(context.Context, T) (R, error), opts ...RunOption,
) (results *Channel, errs *Channel, err error) {
	return RunStream[T, R](ctx, in, fn, opts...)
}
