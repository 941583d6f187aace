package csp

import "context"

// Map fans out items through fn concurrently and returns results in
// input order together with the join of every item's error. It is
// RunAll under a name that reads better at a call site that cares about
// the results, not the task framing.
func Map[T, R any](
	ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...RunOption,
) ([]R, error) {
	return RunAll[T, R](ctx, items, fn, opts...)
}
