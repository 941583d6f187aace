package csp

import "time"

// Timeout returns a fresh capacity-1 channel that receives a single
// sentinel value and closes once delay elapses. It is the trivial
// composition the package builds timed waits out of: select a Timeout
// channel's receive Action alongside the operation being bounded.
//
// The returned channel carries no meaning in its value beyond "the timer
// fired"; callers select on it for the wakeup, not the payload.
func Timeout(delay time.Duration) *Channel {
	ch, _ := NewChannel(1)
	time.AfterFunc(delay, func() {
		_, _ = ch.SendNowait(timeoutSentinel)
		_ = ch.Close()
	})
	return ch
}

// timeoutSentinel is the value delivered by a Timeout channel's single
// firing. It is unexported: callers only need the wakeup, not this value,
// and exporting it would invite comparing against it instead of just
// selecting on the channel.
var timeoutSentinel = &struct{ name string }{name: "timeout"}
