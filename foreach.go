package csp

import "context"

// ForEach applies fn to each item concurrently using RunAll with a dummy
// result type, returning only the aggregated error.
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts ...RunOption) error {
	wrapped := func(c context.Context, item T) (struct{}, error) { return struct{}{}, fn(c, item) }
	_, err := RunAll[T, struct{}](ctx, items, wrapped, opts...)
	return err
}
