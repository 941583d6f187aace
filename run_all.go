package csp

import (
	"context"
	"errors"
)

// RunAll applies fn to every item concurrently under one Nursery,
// bounded by WithConcurrency (default unbounded), and returns every
// item's result (in input order, since every item is collected before
// returning regardless of completion order) together with the join of
// every item's error.
//
// WithRunPolicy controls whether a failing item cancels the items still
// running; it never changes what is returned, which is always every
// error observed (errors.Join; nil if none failed), not just the first.
func RunAll[T, R any](
	ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...RunOption,
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	cfg := defaultRunConfig()
	for _, o := range opts {
		o(&cfg)
	}

	type outcome struct {
		val R
		err error
		has bool
	}
	outcomes := make([]outcome, len(items))

	n, scopeCtx := Open(ctx, WithPolicy(cfg.policy))
	slots := newSlotPool(cfg.concurrency)

	for i := range items {
		idx, item := i, items[i]
		release := slots.acquire()
		_, _ = n.Start(scopeCtx, func(c context.Context) error {
			defer release()
			t := newFanoutTask(func(cc context.Context) (R, error) { return fn(cc, item) })
			v, err := t.execute(c)
			if err != nil {
				tagged := newItemError(err, idx)
				outcomes[idx] = outcome{err: tagged}
				return tagged
			}
			outcomes[idx] = outcome{val: v, has: true}
			return nil
		}, "")
	}

	// RunAll aggregates every item's error itself (see doc comment above),
	// so the nursery's own raised error is discarded here.
	_ = n.Close(nil)

	results := make([]R, 0, len(items))
	var errs []error
	for _, o := range outcomes {
		if o.has {
			results = append(results, o.val)
		}
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	return results, errors.Join(errs...)
}
