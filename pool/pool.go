package pool

// Pool hands out and reclaims opaque tokens: Get acquires one, Put
// releases it back. A caller never inspects a token's value, only holds
// it for as long as the slot it represents is in use.
type Pool interface {
	// Get acquires a token, blocking if none is currently available and
	// the pool is bounded.
	Get() interface{}

	// Put releases a token previously returned by Get.
	Put(interface{})
}
