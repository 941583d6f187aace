package pool

// fixed is a counting semaphore over a fixed number of opaque tokens: Get
// blocks until a token is available, Put returns one. newFn mints the
// capacity's worth of tokens once, up front, so Get never has to decide
// whether to create or reuse — there is exactly one token per slot for the
// lifetime of the pool.
type fixed struct {
	tokens chan interface{}
}

// NewFixed returns a Pool bounded at capacity: Get blocks once every token
// is checked out, and unblocks as soon as a Put makes one available again.
func NewFixed(capacity uint, newFn func() interface{}) Pool {
	tokens := make(chan interface{}, capacity)
	for i := uint(0); i < capacity; i++ {
		tokens <- newFn()
	}
	return &fixed{tokens: tokens}
}

func (p *fixed) Get() interface{} {
	return <-p.tokens
}

// Put returns a token to the pool. Any token is accepted while the pool
// holds fewer than capacity tokens; a Put into a full pool drops the
// token rather than blocking or growing past capacity.
func (p *fixed) Put(el interface{}) {
	select {
	case p.tokens <- el:
	default:
	}
}
