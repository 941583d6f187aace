package csp

import (
	"container/list"
	"context"
	"math/rand"
)

// Result is what Select/SelectNowait return: the channel that resolved,
// its value, and ok. For a receive winner, ok == false is the
// closed-sentinel. For a send winner, ok == false means the channel
// closed before the item could be delivered (Value is then nil); ok ==
// true means Value is the item that was sent.
type Result struct {
	Channel *Channel
	Value   any
	Ok      bool
}

// Select chooses exactly one ready action among actions, completes it,
// cancels every other branch it owns, invokes the winner's callback (if
// any), and returns the winning channel and value. It suspends until one
// branch resolves or ctx is done.
//
// Any Send action carrying a nil item fails the whole call with
// ErrInvalidPayload before any waiter is enqueued or task spawned.
func Select(ctx context.Context, actions ...Action) (Result, error) {
	for _, a := range actions {
		if a.kind == actionSend && a.item == nil {
			return Result{}, ErrInvalidPayload
		}
	}

	order := shuffledIndices(len(actions))

	shared := newFuture()
	sendCancels := make([]context.CancelFunc, 0, len(actions))
	sendDone := make([]chan struct{}, 0, len(actions))
	receiveElems := make(map[int]*list.Element, len(actions))

	for _, i := range order {
		a := actions[i]
		switch a.kind {
		case actionReceive:
			receiveElems[i] = a.channel.addReceiver(shared)

		case actionSend:
			sendCtx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			sendCancels = append(sendCancels, cancel)
			sendDone = append(sendDone, done)
			go func(ch *Channel, item any) {
				defer close(done)
				_, _ = ch.send(sendCtx, item, shared)
			}(a.channel, a.item)
		}
	}

	var outerErr error
	select {
	case <-shared.done:
	case <-ctx.Done():
		outerErr = ctx.Err()
		shared.resolve(nil, nil, false)
	}

	// Clean up every branch this call owns, regardless of which one won.
	for i, elem := range receiveElems {
		actions[i].channel.removeReceiver(elem)
	}
	for _, cancel := range sendCancels {
		cancel()
	}
	for _, done := range sendDone {
		<-done
	}

	if outerErr != nil {
		return Result{}, outerErr
	}

	ch, value, ok := shared.result()
	res := Result{Channel: ch, Value: value, Ok: ok}

	for _, a := range actions {
		if a.channel == ch && a.callback != nil {
			if err := a.callback(ctx, ch, value, ok); err != nil {
				return res, err
			}
			break
		}
	}
	return res, nil
}

// SelectNowait attempts each action once, in randomized order, and
// returns the first that succeeds without suspending. It returns
// found == false if none was ready. A receive on an empty-but-open
// unbuffered channel cannot rendezvous synchronously and is treated as
// not ready; a receive on an empty, closed channel is ready and returns
// the closed-sentinel (Ok == false).
func SelectNowait(ctx context.Context, actions ...Action) (Result, bool) {
	for _, a := range actions {
		if a.kind == actionSend && a.item == nil {
			return Result{}, false
		}
	}

	for _, i := range shuffledIndices(len(actions)) {
		a := actions[i]
		switch a.kind {
		case actionSend:
			delivered, err := a.channel.SendNowait(a.item)
			if err != nil || !delivered {
				continue
			}
			res := Result{Channel: a.channel, Value: a.item, Ok: true}
			if a.callback != nil {
				if err := a.callback(ctx, a.channel, a.item, true); err != nil {
					return res, true
				}
			}
			return res, true

		case actionReceive:
			value, ok := a.channel.ReceiveNowait()
			if !ok && !a.channel.IsClosed() {
				continue
			}
			res := Result{Channel: a.channel, Value: value, Ok: ok}
			if a.callback != nil {
				if err := a.callback(ctx, a.channel, value, ok); err != nil {
					return res, true
				}
			}
			return res, true
		}
	}
	return Result{}, false
}

func shuffledIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rand.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}

