package csp

import "context"

// streamBuffer sizes the results/errors Channels the streaming fan-out
// helpers construct, amortizing small bursts the way the teacher's
// stream helpers buffer their internal completion signal.
const streamBuffer = 1024

// RunStream consumes items from in, applies fn concurrently (bounded by
// WithConcurrency, default unbounded), and returns a results Channel and
// an errors Channel. Both close once in closes (or ctx is done, or a
// failing item cancels the scope under a CancelSiblings* policy) and
// every started item has finished. A non-nil error return means setup
// failed before anything was read from in; item failures are reported
// only on the returned errors Channel, tagged with ItemError.
//
// Results are delivered in completion order unless WithPreserveOrder is
// given, in which case they are delivered in input order instead.
func RunStream[T, R any](
	ctx context.Context, in *Channel, fn func(context.Context, T) (R, error), opts ...RunOption,
) (results *Channel, errs *Channel, err error) {
	cfg := defaultRunConfig()
	for _, o := range opts {
		o(&cfg)
	}

	results, err = NewChannel(streamBuffer)
	if err != nil {
		return nil, nil, err
	}
	errs, err = NewChannel(streamBuffer)
	if err != nil {
		return nil, nil, err
	}

	d := newDispatcher[T, R](cfg, fn, true, results, errs)
	go d.run(ctx, in)

	return results, errs, nil
}
