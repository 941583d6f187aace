package csp

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Channel is a typed-by-convention (values are opaque `any`), optionally
// buffered, closeable rendezvous point between goroutines. Capacity 0 is
// an unbuffered, synchronous-handoff channel; capacity > 0 is a bounded
// FIFO buffer. A nil payload is never a legal item — see ErrInvalidPayload
// — so callers distinguish "closed and drained" from "a value" with the
// boolean ok return of Receive/ReceiveNowait rather than by comparing
// against a sentinel.
//
// All mutation of buffer/senders/receivers/closed happens under mu; the
// handoff step (moveDataLocked) runs fully inside the lock and must be
// invoked after every mutation that could enable a sender/receiver pairing
// to fire, or a sender can be stranded behind a full buffer while a
// receiver waits behind an empty one.
type Channel struct {
	id string

	mu        sync.Mutex
	capacity  int
	buffer    []any
	senders   *list.List // of *future
	receivers *list.List // of *future
	closed    bool

	metrics channelMetrics
}

// ChannelOption configures a Channel at construction.
type ChannelOption func(*Channel)

// WithChannelMetrics attaches a metrics.Provider to a Channel for
// send/receive instrumentation. The default is a no-op provider.
func WithChannelMetrics(p MetricsProvider) ChannelOption {
	return func(c *Channel) { c.metrics = newChannelMetrics(p) }
}

// NewChannel constructs a Channel with the given capacity. Capacity 0
// means unbuffered (rendezvous); capacity < 0 is a programmer error.
func NewChannel(capacity int, opts ...ChannelOption) (*Channel, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: channel capacity must be >= 0, got %d", ErrInvalidArgument, capacity)
	}

	c := &Channel{
		id:        uuid.New().String(),
		capacity:  capacity,
		senders:   list.New(),
		receivers: list.New(),
		metrics:   newChannelMetrics(NoopMetricsProvider()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns a stable identifier assigned at construction, for diagnostics
// and log correlation only; it plays no role in channel semantics.
func (c *Channel) ID() string { return c.id }

func (c *Channel) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf(
		"Channel{id=%s capacity=%d buffered=%d senders=%d receivers=%d closed=%t}",
		c.id, c.capacity, len(c.buffer), c.senders.Len(), c.receivers.Len(), c.closed,
	)
}

// Capacity returns the channel's configured capacity (0 for unbuffered).
func (c *Channel) Capacity() int { return c.capacity }

// Size returns the number of items currently buffered.
func (c *Channel) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Empty reports whether the buffer currently holds no items.
func (c *Channel) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer) == 0
}

// Full reports whether the channel cannot currently buffer another item
// without a waiting receiver (unbuffered channels report full whenever
// anything is buffered at all, since that can only be a one-step transit
// item, see send's commit step).
func (c *Channel) Full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullLocked()
}

func (c *Channel) fullLocked() bool {
	if c.capacity <= 0 {
		return len(c.buffer) > 0
	}
	return len(c.buffer) >= c.capacity
}

// IsClosed reports whether Close has been called.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// canSendLocked reports whether an item could be accepted right now
// without suspending.
func (c *Channel) canSendLocked() bool {
	if c.closed {
		return false
	}
	if c.fullLocked() {
		return false
	}
	if c.capacity == 0 {
		return hasLiveWaiter(c.receivers)
	}
	return true
}

// hasLiveWaiter reports whether q holds at least one unresolved waiter.
func hasLiveWaiter(q *list.List) bool {
	for e := q.Front(); e != nil; e = e.Next() {
		if !e.Value.(*future).isResolved() {
			return true
		}
	}
	return false
}

// wakeupNextLocked resolves the oldest unresolved waiter in q with a bare
// wakeup (no payload): it exists only to tell that waiter "re-check your
// condition", not to deliver a value.
func wakeupNextLocked(q *list.List) {
	for e := q.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*future)
		q.Remove(e)
		if w.resolve(nil, nil, false) {
			return
		}
		e = next
	}
}

// moveDataLocked is the handoff step (spec §4.1.4): idempotent transfer
// between senders, buffer, and receivers. Must run after every mutation
// that could enable a pairing. It reports whether a handoff happened.
func (c *Channel) moveDataLocked() bool {
	if len(c.buffer) == 0 && c.closed {
		drainReceiversLocked(c.receivers)
		return false
	}
	if len(c.buffer) == 0 || !hasLiveWaiter(c.receivers) {
		return false
	}
	for e := c.receivers.Front(); e != nil; {
		next := e.Next()
		r := e.Value.(*future)
		c.receivers.Remove(e)
		if r.resolve(c, c.buffer[0], true) {
			c.buffer = c.buffer[1:]
			wakeupNextLocked(c.senders)
			return true
		}
		e = next
	}
	return false
}

// drainReceiversLocked resolves and removes every receiver waiter in q
// with the closed-sentinel. Elements are removed one at a time (rather
// than q.Init()) so any *list.Element a caller still holds remains safe
// to pass to list.Remove as a no-op.
func drainReceiversLocked(q *list.List) {
	for e := q.Front(); e != nil; {
		next := e.Next()
		r := e.Value.(*future)
		q.Remove(e)
		r.resolve(nil, nil, false)
		e = next
	}
}

// Close is idempotent. Every enqueued sender is resolved with false; if
// the buffer is already empty every enqueued receiver is resolved with
// the closed-sentinel, otherwise receivers keep draining the buffer until
// it is exhausted.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for e := c.senders.Front(); e != nil; {
		next := e.Next()
		w := e.Value.(*future)
		c.senders.Remove(e)
		w.resolve(nil, nil, false)
		e = next
	}
	if len(c.buffer) == 0 {
		drainReceiversLocked(c.receivers)
	}
	c.metrics.closed()
	return nil
}

// Send delivers item to the channel, suspending until it can be accepted,
// the channel closes, or ctx is done. It returns (false, nil) if the
// channel was or became closed before delivery.
func (c *Channel) Send(ctx context.Context, item any) (bool, error) {
	return c.send(ctx, item, nil)
}

// send is shared by the public Send and by Select's send branch, which
// passes the shared select future as external so at most one branch wins.
func (c *Channel) send(ctx context.Context, item any, external *future) (bool, error) {
	if item == nil {
		return false, ErrInvalidPayload
	}

	for {
		c.mu.Lock()
		if c.canSendLocked() {
			break
		}
		if external != nil && external.isResolved() {
			c.mu.Unlock()
			return false, nil
		}
		if c.closed {
			c.mu.Unlock()
			if external != nil {
				external.resolve(c, nil, false)
			}
			return false, nil
		}

		waiter := newFuture()
		elem := c.senders.PushBack(waiter)
		c.mu.Unlock()

		select {
		case <-waiter.done:
			// Re-check the acceptance condition on the next loop iteration.
		case <-ctx.Done():
			c.mu.Lock()
			c.senders.Remove(elem)
			// The wakeup we were given may have been meant for us to
			// retry; if we can't use it, forward it to the next sender so
			// liveness isn't lost (spec §5 cancellation semantics).
			if waiter.isResolved() && !c.canSendLocked() {
				wakeupNextLocked(c.senders)
			}
			c.mu.Unlock()
			return false, ctx.Err()
		}
	}

	defer c.mu.Unlock()
	if external == nil {
		delivered := c.sendNowaitLocked(item)
		c.metrics.sent(delivered)
		return delivered, nil
	}

	// external is shared across every branch Select owns, including
	// branches on other channels guarded by their own, independent
	// mutex: canSendLocked() being true here only proves this channel
	// could accept item, not that this branch is the one that gets to.
	// Claim the token before mutating anything, exactly as the receive
	// side's moveDataLocked gates its buffer pop on resolve's own
	// outcome — only the call that actually wins may commit.
	if !external.resolve(c, item, true) {
		return false, nil
	}
	delivered := c.sendNowaitLocked(item)
	c.metrics.sent(delivered)
	return delivered, nil
}

// SendNowait attempts to deliver item without suspending. It succeeds only
// if the channel is open and can accept immediately: not full, and for an
// unbuffered channel, only when a live receiver is already waiting.
func (c *Channel) SendNowait(item any) (bool, error) {
	if item == nil {
		return false, ErrInvalidPayload
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delivered := c.sendNowaitLocked(item)
	c.metrics.sent(delivered)
	return delivered, nil
}

func (c *Channel) sendNowaitLocked(item any) bool {
	if !c.canSendLocked() {
		return false
	}
	c.buffer = append(c.buffer, item)
	c.moveDataLocked()
	return true
}

// addReceiver enqueues f as a receiver waiter on c and runs the handoff
// step. It is shared by Receive (which enqueues a private waiter) and
// Select (which enqueues the shared select token directly, so a ready
// channel can resolve it without a goroutine in between).
func (c *Channel) addReceiver(f *future) *list.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem := c.receivers.PushBack(f)
	moved := c.moveDataLocked()
	// An unbuffered channel only "can send" while a live receiver exists;
	// adding one may let an existing sender proceed even though no data
	// moved yet.
	if !moved && len(c.buffer) == 0 && c.capacity == 0 && hasLiveWaiter(c.senders) {
		wakeupNextLocked(c.senders)
	}
	return elem
}

func (c *Channel) removeReceiver(elem *list.Element) {
	c.mu.Lock()
	c.receivers.Remove(elem)
	c.mu.Unlock()
}

// Receive returns the next item in FIFO order, or ok == false once the
// channel is closed and drained. It always suspends at least once: a
// receiver waiter is enqueued and the handoff step runs before waiting,
// so a pending send or a pending close can resolve it immediately.
func (c *Channel) Receive(ctx context.Context) (any, bool, error) {
	waiter := newFuture()
	elem := c.addReceiver(waiter)

	select {
	case <-waiter.done:
	case <-ctx.Done():
		c.removeReceiver(elem)
		return nil, false, ctx.Err()
	}

	c.removeReceiver(elem)

	_, value, ok := waiter.result()
	c.metrics.received(ok)
	return value, ok, nil
}

// ReceiveNowait returns the next buffered item, or ok == false if the
// buffer is currently empty — regardless of close state. Callers that
// need to distinguish "empty but open" from "closed and drained" should
// also check IsClosed.
func (c *Channel) ReceiveNowait() (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buffer) == 0 {
		return nil, false
	}
	v := c.buffer[0]
	c.buffer = c.buffer[1:]
	c.moveDataLocked()
	return v, true
}

// Callback is invoked by a winning Select/SelectNowait branch with the
// channel and the value (or closed-sentinel, ok == false) it resolved
// with. A Select call awaits it before returning.
type Callback func(ctx context.Context, ch *Channel, value any, ok bool) error

// Action is a discriminated Send{channel,item,callback} or
// Receive{channel,callback} value produced by Channel.S/Channel.R and
// consumed by Select/SelectNowait.
type Action struct {
	kind     actionKind
	channel  *Channel
	item     any
	callback Callback
}

type actionKind int

const (
	actionReceive actionKind = iota
	actionSend
)

// R builds a receive Action on c. cb may be nil.
func (c *Channel) R(cb Callback) Action {
	return Action{kind: actionReceive, channel: c, callback: cb}
}

// S builds a send Action on c carrying item. cb may be nil.
func (c *Channel) S(item any, cb Callback) Action {
	return Action{kind: actionSend, channel: c, item: item, callback: cb}
}
