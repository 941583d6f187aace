package csp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvStep(t *testing.T, ch <-chan string, d time.Duration) (string, bool) {
	t.Helper()
	select {
	case s := <-ch:
		return s, true
	case <-time.After(d):
		return "", false
	}
}

func TestLifecycleCoordinator_RunsStepsInOrder(t *testing.T) {
	steps := make(chan string, 10)

	lc := newLifecycleCoordinator(
		func() { steps <- "first" },
		func() { steps <- "second" },
		func() { steps <- "third" },
	)

	done := make(chan struct{})
	go func() { lc.run(); close(done) }()

	for _, want := range []string{"first", "second", "third"} {
		got, ok := recvStep(t, steps, 200*time.Millisecond)
		require.True(t, ok, "timed out waiting for step %q", want)
		require.Equal(t, want, got)
	}
	<-done
}

func TestLifecycleCoordinator_IdempotentUnderConcurrentRun(t *testing.T) {
	var calls int
	var mu sync.Mutex

	lc := newLifecycleCoordinator(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); lc.run() }()
	}
	wg.Wait()

	require.Equal(t, 1, calls)
}

func TestLifecycleCoordinator_NilStepsAreSkipped(t *testing.T) {
	ran := false
	lc := newLifecycleCoordinator(nil, func() { ran = true }, nil)
	lc.run()
	require.True(t, ran)
}
