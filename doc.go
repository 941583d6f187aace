// Package csp provides a small structured-concurrency toolkit for
// goroutine-based programs: a closeable, optionally-buffered Channel, a
// multi-way Select over send/receive actions with fair randomized choice,
// and a Nursery that owns a scope of child tasks and applies a
// configurable failure policy when one of them fails.
//
// Channel lifecycle
//
// A Channel is created with NewChannel, sent to and received from by any
// number of goroutines, and closed at most once (Close is idempotent).
// Unlike a bare Go channel, Send/Receive report closure through a boolean
// rather than the zero-value/close-detection dance, and SendNowait/
// ReceiveNowait give the non-blocking variants used by SelectNowait.
//
// Select
//
// Select and SelectNowait take Action values built from a Channel's R
// (receive) or S (send) methods and resolve exactly one of them, cancelling
// the others before returning.
//
// Nursery
//
// Open/Close (or the Run convenience) bound a scope in which Nursery.Start
// schedules child goroutines; the scope does not exit until every child it
// started has reached a terminal state. See FailurePolicy for the four ways
// a nursery can react to a failing child or to the scope's own body failing.
//
// Fan-out helpers
//
// RunAll, ForEach and Map run a batch of tasks through a Nursery and
// collect results/errors in input order; RunStream, ForEachStream and
// MapStream do the same for an open-ended input Channel instead of a
// slice, delivering onto output Channels. The streaming family accepts
// WithPreserveOrder to deliver results in input order instead of
// completion order; the batch family accepts it with no effect.
package csp
