package pool

import "sync"

// dynamicPool backs an unbounded slot pool with sync.Pool: a token is
// always available, either reused from a prior Put or freshly minted by
// newFn, so Get never blocks the way the bounded fixed pool can.
type dynamicPool struct {
	pool sync.Pool
}

// NewDynamic returns an unbounded Pool: Get never blocks, creating a new
// token via newFn whenever none is available to reuse.
func NewDynamic(newFn func() interface{}) Pool {
	return &dynamicPool{pool: sync.Pool{New: newFn}}
}

func (p *dynamicPool) Get() interface{} { return p.pool.Get() }

func (p *dynamicPool) Put(el interface{}) { p.pool.Put(el) }
