package csp

import "context"

// reorderer enforces the WithPreserveOrder contract for the streaming
// fan-out helpers: it consumes completionEvents and sends results to its
// output Channel strictly in the original input order, buffering
// out-of-order completions until every earlier index has either emitted
// or been confirmed result-less. It runs as a single dedicated goroutine
// reading events and never closes results itself.
type reorderer[R any] struct {
	events  <-chan completionEvent[R]
	results *Channel
}

func newReorderer[R any](events <-chan completionEvent[R], results *Channel) *reorderer[R] {
	return &reorderer[R]{events: events, results: results}
}

// run drains events until it is closed, flushing every contiguous run of
// indices it can after each one it receives, then performs a best-effort
// final flush. A gap (an index that never reported in before events
// closed) stops the flush at that point; anything buffered behind it is
// never emitted. The dispatcher closes events only after every started
// item has sent its event, so it never leaves such a gap.
func (r *reorderer[R]) run(ctx context.Context) {
	next := 0
	buf := make(map[int]R)
	seenNoResult := make(map[int]struct{})

	for ev := range r.events {
		if ev.present {
			buf[ev.idx] = ev.val
		} else {
			seenNoResult[ev.idx] = struct{}{}
		}
		next = r.flushContiguous(ctx, next, buf, seenNoResult)
	}
	r.flushContiguous(ctx, next, buf, seenNoResult)
}

func (r *reorderer[R]) flushContiguous(ctx context.Context, next int, buf map[int]R, seenNoResult map[int]struct{}) int {
	for {
		if v, ok := buf[next]; ok {
			_, _ = r.results.Send(ctx, v)
			delete(buf, next)
			next++
			continue
		}
		if _, ok := seenNoResult[next]; ok {
			delete(seenNoResult, next)
			next++
			continue
		}
		break
	}
	return next
}
