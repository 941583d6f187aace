package csp

import "context"

// ForEachStream consumes items from in and applies fn concurrently
// (bounded by WithConcurrency, default unbounded), returning an errors
// Channel tagged with ItemError. It closes once in closes (or ctx is
// done, or a failing item cancels the scope under a CancelSiblings*
// policy) and every started item has finished.
func ForEachStream[T any](
	ctx context.Context, in *Channel, fn func(context.Context, T) error, opts ...RunOption,
) (errs *Channel, err error) {
	cfg := defaultRunConfig()
	for _, o := range opts {
		o(&cfg)
	}

	errs, err = NewChannel(streamBuffer)
	if err != nil {
		return nil, err
	}

	wrapped := func(c context.Context, item T) (struct{}, error) { return struct{}{}, fn(c, item) }
	d := newDispatcher[T, struct{}](cfg, wrapped, false, nil, errs)
	go d.run(ctx, in)

	return errs, nil
}
