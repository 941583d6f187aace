package csp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FailurePolicy controls what a Nursery does when a task — main or
// child — returns a non-nil error or panics. It is checked in two
// places: whenever a child finishes (to decide whether to cancel its
// siblings) and once at Close (to decide what error, if any, the scope
// should propagate).
type FailurePolicy int

const (
	// IgnoreSilently lets the other children run to completion when a
	// child fails, and never raises. A main-task failure still cancels
	// every child.
	IgnoreSilently FailurePolicy = iota
	// CancelSiblingsSilently cancels the scope's remaining children as
	// soon as any task fails, but never raises.
	CancelSiblingsSilently
	// IgnoreAndRaise lets the other children run to completion when a
	// child fails, then raises the first failure recorded. A main-task
	// failure still cancels every child.
	IgnoreAndRaise
	// CancelSiblingsAndRaise cancels the scope's remaining children as
	// soon as any task fails, and raises the first failure recorded.
	CancelSiblingsAndRaise
)

// nurseryMainTaskName is the reserved name bound to the goroutine that
// called Open; Start rejects it like any other duplicate.
const nurseryMainTaskName = "main-task-0"

// TaskHandle identifies one task started under a Nursery.
type TaskHandle struct {
	id   string
	name string

	done chan struct{}
	mu   sync.Mutex
	err  error
}

func newTaskHandle(name string) *TaskHandle {
	return &TaskHandle{id: uuid.New().String(), name: name, done: make(chan struct{})}
}

// ID returns a diagnostic identifier assigned at start time; it plays no
// role in failure-policy logic.
func (h *TaskHandle) ID() string { return h.id }

// Name returns the nursery-unique name the task was started under.
func (h *TaskHandle) Name() string { return h.name }

// Done is closed once the task has returned or panicked.
func (h *TaskHandle) Done() <-chan struct{} { return h.done }

// Err returns the task's terminal error. It is only meaningful once Done
// is closed.
func (h *TaskHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *TaskHandle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// firstFailure records the earliest task failure a Nursery has observed;
// later failures are consumed (counted for metrics) but do not replace
// it, except that a failing main task always overwrites it — matching
// the release sequence's "main failure wins" rule.
type firstFailure struct {
	name string
	err  error
}

// Nursery coordinates a set of named child tasks against one cancelable
// scope context: a structured-concurrency boundary where every spawned
// goroutine is tracked, cancellation of the whole scope is a single
// decision point, and exactly one FailurePolicy governs how a failure in
// any task — main or child — is handled.
type Nursery struct {
	policy   FailurePolicy
	mainName string

	cancel context.CancelFunc

	taskNamePrefix string

	mu       sync.Mutex
	tasks    map[string]*TaskHandle
	nextTask int
	first    *firstFailure

	wg sync.WaitGroup

	mainErrOnce    sync.Once
	pendingMainErr error
	closeResult    error
	lc             *lifecycleCoordinator

	metrics nurseryMetrics
}

// NurseryOption configures a Nursery at Open/Run time.
type NurseryOption func(*Nursery)

// WithPolicy sets the FailurePolicy applied across the nursery's scope.
// The default is IgnoreSilently.
func WithPolicy(p FailurePolicy) NurseryOption {
	return func(n *Nursery) { n.policy = p }
}

// WithNurseryMetrics attaches a metrics.Provider for child-lifecycle
// instrumentation. The default is a no-op provider.
func WithNurseryMetrics(p MetricsProvider) NurseryOption {
	return func(n *Nursery) { n.metrics = newNurseryMetrics(p) }
}

// WithTaskNamePrefix changes the prefix auto-generated task names use
// (default "task"), so logs from two nested or sibling nurseries don't
// read as though they share one task namespace.
func WithTaskNamePrefix(prefix string) NurseryOption {
	return func(n *Nursery) { n.taskNamePrefix = prefix }
}

// Open registers the calling goroutine as the nursery's main task and
// returns the nursery plus the context every child — and the scope body
// itself — should run under. Cancelling that context is how the nursery
// enforces CancelSiblings* policies and the unconditional cancellation
// that follows a main-task failure.
func Open(ctx context.Context, opts ...NurseryOption) (*Nursery, context.Context) {
	scopeCtx, cancel := context.WithCancel(ctx)
	n := &Nursery{
		mainName:       nurseryMainTaskName,
		taskNamePrefix: "task",
		cancel:         cancel,
		tasks:          make(map[string]*TaskHandle),
		nextTask:       1,
		metrics:        newNurseryMetrics(NoopMetricsProvider()),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.tasks[n.mainName] = newTaskHandle(n.mainName)
	n.lc = newLifecycleCoordinator(n.finishMain, n.wg.Wait, n.decideResult)
	return n, scopeCtx
}

func (n *Nursery) nextTaskName() string {
	name := fmt.Sprintf("%s-%d", n.taskNamePrefix, n.nextTask)
	n.nextTask++
	return name
}

// Start spawns fn as a named child task bound to the nursery's scope
// context. An empty name generates "task-N", numbered from 1. A name
// already in use in this nursery — including the reserved main-task
// name — is rejected with ErrInvalidArgument and nothing is spawned.
func (n *Nursery) Start(ctx context.Context, fn func(context.Context) error, name string) (*TaskHandle, error) {
	n.mu.Lock()
	if name == "" {
		name = n.nextTaskName()
	}
	if _, exists := n.tasks[name]; exists {
		n.mu.Unlock()
		return nil, fmt.Errorf("%w: a task named %q already exists in this nursery", ErrInvalidArgument, name)
	}
	h := newTaskHandle(name)
	n.tasks[name] = h
	n.mu.Unlock()

	n.metrics.childStarted()
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		err := runGuarded(ctx, fn)
		h.finish(err)
		n.metrics.childDone(err)
		n.onChildDone(h, err)
	}()
	return h, nil
}

// GetTaskByName looks up a task, main or child, by its nursery-unique
// name.
func (n *Nursery) GetTaskByName(name string) (*TaskHandle, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.tasks[name]
	return h, ok
}

// onChildDone applies the failure policy to one finished child: records
// the first failure seen, and cancels the scope if the policy calls for
// it. A main-task failure is handled separately by Close, which always
// cancels regardless of policy.
func (n *Nursery) onChildDone(h *TaskHandle, err error) {
	if err == nil {
		return
	}
	n.mu.Lock()
	if n.first == nil {
		n.first = &firstFailure{name: h.name, err: err}
	}
	n.mu.Unlock()

	switch n.policy {
	case CancelSiblingsSilently, CancelSiblingsAndRaise:
		n.cancelChildren()
	}
}

// cancelChildren cancels the scope context and reports how many children
// were still running at the moment of cancellation.
func (n *Nursery) cancelChildren() {
	n.mu.Lock()
	pending := 0
	for name, h := range n.tasks {
		if name == n.mainName {
			continue
		}
		select {
		case <-h.done:
		default:
			pending++
		}
	}
	n.mu.Unlock()

	n.cancel()
	n.metrics.childrenCancelled(pending)
}

// Close runs the nursery's release sequence via its lifecycleCoordinator:
// a failing main task unconditionally cancels every remaining child,
// then every non-main child is waited on to reach a terminal state, and
// finally the configured FailurePolicy decides what error, if any, this
// call returns. It is safe to call more than once, including
// concurrently; only the first call's mainErr is recorded and only one
// release sequence ever runs — later callers block until it finishes and
// observe the same result.
func (n *Nursery) Close(mainErr error) error {
	n.mainErrOnce.Do(func() { n.pendingMainErr = mainErr })
	n.lc.run()
	return n.closeResult
}

// finishMain is the coordinator's first step: record the main task's
// outcome and, if it failed, cancel every remaining child unconditionally
// regardless of FailurePolicy.
func (n *Nursery) finishMain() {
	n.mu.Lock()
	mainHandle := n.tasks[n.mainName]
	if n.pendingMainErr != nil {
		n.first = &firstFailure{name: n.mainName, err: n.pendingMainErr}
	}
	n.mu.Unlock()
	mainHandle.finish(n.pendingMainErr)

	if n.pendingMainErr != nil {
		n.cancelChildren()
	}
}

// decideResult is the coordinator's final step, run after every non-main
// child has reached a terminal state: it applies the configured
// FailurePolicy to decide closeResult, and always releases the scope
// context.
func (n *Nursery) decideResult() {
	defer n.cancel()

	if n.policy == IgnoreSilently || n.policy == CancelSiblingsSilently {
		return
	}

	n.mu.Lock()
	first := n.first
	n.mu.Unlock()
	if first == nil {
		return
	}
	if first.name == n.mainName {
		n.closeResult = first.err
		return
	}
	n.closeResult = &ChildFailure{Name: first.name, Err: first.err}
}

// Run opens a nursery, executes body as the main task under the scope
// context, and closes the nursery with body's result — a panic in body
// is recovered and reported as ErrTaskPanicked, same as any child. It
// returns whatever Close decides should propagate under the configured
// FailurePolicy.
func Run(ctx context.Context, body func(context.Context, *Nursery) error, opts ...NurseryOption) error {
	n, scopeCtx := Open(ctx, opts...)
	mainErr := runGuarded(scopeCtx, func(ctx context.Context) error { return body(ctx, n) })
	return n.Close(mainErr)
}

// runGuarded executes fn and converts a recovered panic into an
// ErrTaskPanicked-wrapped error, the same treatment spec.md gives any
// task failure regardless of whether it returned an error or panicked.
func runGuarded(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return fn(ctx)
}
