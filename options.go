package csp

// RunOption configures the RunAll/ForEach/Map/RunStream/ForEachStream/
// MapStream family of fan-out helpers built on Channel and Nursery.
type RunOption func(*runConfig)

// runConfig is the builder state assembled from RunOptions, mirroring
// the teacher's configOptions-then-apply shape.
type runConfig struct {
	concurrency   uint
	preserveOrder bool
	policy        FailurePolicy
}

// defaultRunConfig centralizes default values: unbounded concurrency,
// completion-order delivery, and cancel-on-first-failure (the closest
// analogue to the teacher's WithStopOnError default-off posture made
// safe-by-default for a structured-concurrency engine).
func defaultRunConfig() runConfig {
	return runConfig{concurrency: 0, preserveOrder: false, policy: CancelSiblingsAndRaise}
}

// WithConcurrency bounds how many items run at once via a fixed-size
// slot pool. 0 (the default) means unbounded: every item gets its own
// goroutine as soon as it is read.
func WithConcurrency(n uint) RunOption {
	return func(c *runConfig) { c.concurrency = n }
}

// WithPreserveOrder emits results in input order instead of completion
// order. Only meaningful for the streaming variants that return results
// (RunStream/MapStream): errors are always sent in completion order, and
// the batch variants already return input-ordered slices regardless of
// completion order.
func WithPreserveOrder() RunOption {
	return func(c *runConfig) { c.preserveOrder = true }
}

// WithRunPolicy overrides the FailurePolicy applied to the Nursery these
// helpers open internally, controlling only whether a failing item
// cancels the scope — the batch helpers always return every item's
// error (errors.Join), regardless of policy. Under a CancelSiblings*
// policy, items started after the cancellation fail with the context's
// error, and the streaming helpers stop reading from their input.
func WithRunPolicy(p FailurePolicy) RunOption {
	return func(c *runConfig) { c.policy = p }
}
