package csp

import "github.com/ygrebnov/csp/pool"

// slotPool bounds how many fan-out tasks run concurrently, wrapping the
// pool package's Pool abstraction as a counting semaphore over opaque
// tokens rather than reusable worker objects: acquire blocks once a
// fixed-size pool is exhausted, release returns the token. A concurrency
// of 0 (unbounded) backs itself with the dynamic pool instead, since
// reuse without a concurrency limit is exactly what sync.Pool already
// gives for free.
type slotPool struct {
	p pool.Pool
}

func newSlotPool(concurrency uint) *slotPool {
	newToken := func() interface{} { return struct{}{} }
	if concurrency == 0 {
		return &slotPool{p: pool.NewDynamic(newToken)}
	}
	return &slotPool{p: pool.NewFixed(concurrency, newToken)}
}

// acquire reserves a slot, blocking if the pool is bounded and full, and
// returns a function that releases it. Callers must call the returned
// function exactly once.
func (s *slotPool) acquire() func() {
	tok := s.p.Get()
	return func() { s.p.Put(tok) }
}
