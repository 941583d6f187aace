package csp

// completionEvent is one streamed item's outcome, tagged with its input
// index so a reorderer can emit strictly in input order regardless of
// completion order. present == true means val holds a result to emit;
// false means no result to emit (the item errored, or the caller only
// wanted errors in the first place) but the index must still advance the
// cursor so later results are not blocked behind it.
type completionEvent[R any] struct {
	idx     int
	val     R
	present bool
}
