package csp

import "context"

// dispatcher drives the streaming fan-out helpers (RunStream/
// ForEachStream/MapStream): it reads items from an input Channel, starts
// one Nursery child per item bounded by a slotPool, and reports each
// item's outcome onto the results/errs Channels. Errors are sent in
// completion order; results are sent in completion order directly or via
// a reorderer under WithPreserveOrder.
type dispatcher[T, R any] struct {
	cfg        runConfig
	fn         func(context.Context, T) (R, error)
	sendResult bool
	results    *Channel
	errs       *Channel
}

func newDispatcher[T, R any](
	cfg runConfig, fn func(context.Context, T) (R, error), sendResult bool, results, errs *Channel,
) *dispatcher[T, R] {
	return &dispatcher[T, R]{cfg: cfg, fn: fn, sendResult: sendResult, results: results, errs: errs}
}

// run consumes in until it closes, ctx is done, or a failing item
// cancels the nursery scope under a CancelSiblings* policy, starting one
// bounded Nursery child per item, then waits for every started child and
// closes the channels it owns.
func (d *dispatcher[T, R]) run(ctx context.Context, in *Channel) {
	if d.results != nil {
		defer d.results.Close()
	}
	defer d.errs.Close()

	n, scopeCtx := Open(ctx, WithPolicy(d.cfg.policy))
	slots := newSlotPool(d.cfg.concurrency)

	var events chan completionEvent[R]
	var reorderDone chan struct{}
	if d.cfg.preserveOrder && d.results != nil {
		events = make(chan completionEvent[R], 1024)
		reorderDone = make(chan struct{})
		ro := newReorderer[R](events, d.results)
		go func() {
			defer close(reorderDone)
			ro.run(scopeCtx)
		}()
	}

	idx := 0
	for {
		v, ok, err := in.Receive(scopeCtx)
		if err != nil || !ok {
			break
		}
		item, _ := v.(T)
		i := idx
		idx++

		release := slots.acquire()
		_, _ = n.Start(scopeCtx, func(c context.Context) error {
			defer release()
			t := newFanoutTask(func(cc context.Context) (R, error) { return d.fn(cc, item) })
			v, err := t.execute(c)
			if err != nil {
				tagged := newItemError(err, i)
				_, _ = d.errs.Send(c, tagged)
				if events != nil {
					events <- completionEvent[R]{idx: i}
				}
				return tagged
			}
			if d.sendResult {
				if events != nil {
					events <- completionEvent[R]{idx: i, val: v, present: true}
				} else {
					_, _ = d.results.Send(c, v)
				}
			} else if events != nil {
				events <- completionEvent[R]{idx: i}
			}
			return nil
		}, "")
	}

	// The dispatcher reports every item's error on errs itself, so the
	// nursery's own raised error is discarded here.
	_ = n.Close(nil)

	if events != nil {
		close(events)
		<-reorderDone
	}
}
