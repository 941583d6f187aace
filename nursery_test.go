package csp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNursery_StartRejectsDuplicateName(t *testing.T) {
	n, ctx := Open(context.Background())
	_, err := n.Start(ctx, func(context.Context) error { return nil }, "worker")
	require.NoError(t, err)

	_, err = n.Start(ctx, func(context.Context) error { return nil }, "worker")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.NoError(t, n.Close(nil))
}

func TestNursery_StartRejectsMainTaskName(t *testing.T) {
	n, ctx := Open(context.Background())
	_, err := n.Start(ctx, func(context.Context) error { return nil }, nurseryMainTaskName)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.NoError(t, n.Close(nil))
}

func TestNursery_AutoGeneratedNames(t *testing.T) {
	n, ctx := Open(context.Background())
	h1, err := n.Start(ctx, func(context.Context) error { return nil }, "")
	require.NoError(t, err)
	h2, err := n.Start(ctx, func(context.Context) error { return nil }, "")
	require.NoError(t, err)
	require.Equal(t, "task-1", h1.Name())
	require.Equal(t, "task-2", h2.Name())
	require.NoError(t, n.Close(nil))
}

func TestNursery_WithTaskNamePrefix(t *testing.T) {
	n, ctx := Open(context.Background(), WithTaskNamePrefix("worker"))
	h, err := n.Start(ctx, func(context.Context) error { return nil }, "")
	require.NoError(t, err)
	require.Equal(t, "worker-1", h.Name())
	require.NoError(t, n.Close(nil))
}

func TestNursery_IgnoreSilently_NeverRaises(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(IgnoreSilently))
	_, err := n.Start(ctx, func(context.Context) error { return errors.New("boom") }, "child")
	require.NoError(t, err)
	require.NoError(t, n.Close(nil))
}

func TestNursery_IgnoreAndRaise_ReturnsChildFailure(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(IgnoreAndRaise))
	wantErr := errors.New("boom")
	_, err := n.Start(ctx, func(context.Context) error { return wantErr }, "child")
	require.NoError(t, err)

	closeErr := n.Close(nil)
	var cf *ChildFailure
	require.ErrorAs(t, closeErr, &cf)
	require.Equal(t, "child", cf.Name)
	require.ErrorIs(t, cf.Err, wantErr)
}

func TestNursery_CancelSiblingsAndRaise_CancelsRemainingChildren(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(CancelSiblingsAndRaise))

	var cancelledObserved int32
	var wg sync.WaitGroup
	wg.Add(1)
	_, err := n.Start(ctx, func(cctx context.Context) error {
		defer wg.Done()
		<-cctx.Done()
		atomic.AddInt32(&cancelledObserved, 1)
		return cctx.Err()
	}, "slow")
	require.NoError(t, err)

	_, err = n.Start(ctx, func(context.Context) error {
		return errors.New("fails fast")
	}, "fast")
	require.NoError(t, err)

	wg.Wait()
	closeErr := n.Close(nil)
	require.Error(t, closeErr)
	require.Equal(t, int32(1), atomic.LoadInt32(&cancelledObserved))
}

func TestNursery_MainFailureAlwaysCancelsRegardlessOfPolicy(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(IgnoreSilently))

	var wg sync.WaitGroup
	wg.Add(1)
	var sawCancel bool
	_, err := n.Start(ctx, func(cctx context.Context) error {
		defer wg.Done()
		<-cctx.Done()
		sawCancel = true
		return nil
	}, "child")
	require.NoError(t, err)

	closeErr := n.Close(errors.New("main blew up"))
	wg.Wait()
	require.NoError(t, closeErr) // IgnoreSilently still swallows, but cancellation must have happened
	require.True(t, sawCancel)
}

func TestNursery_MainFailureWinsOverChildFailure(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(CancelSiblingsAndRaise))

	var wg sync.WaitGroup
	wg.Add(1)
	_, err := n.Start(ctx, func(context.Context) error {
		defer wg.Done()
		return errors.New("child failure")
	}, "child")
	require.NoError(t, err)
	wg.Wait()

	mainErr := errors.New("main failure")
	closeErr := n.Close(mainErr)
	require.ErrorIs(t, closeErr, mainErr)
}

func TestNursery_CloseIsSafeConcurrentlyAndOnlyRunsOnce(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(IgnoreAndRaise))
	wantErr := errors.New("boom")
	_, err := n.Start(ctx, func(context.Context) error { return wantErr }, "child")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = n.Close(nil)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		var cf *ChildFailure
		require.ErrorAs(t, r, &cf)
		require.Equal(t, "child", cf.Name)
	}
}

func TestRun_PanicInBodyBecomesErrTaskPanicked(t *testing.T) {
	err := Run(context.Background(), func(context.Context, *Nursery) error {
		panic("kaboom")
	}, WithPolicy(IgnoreAndRaise))
	require.ErrorIs(t, err, ErrTaskPanicked)
}

func TestRun_BodySucceedsWithCompletedChildren(t *testing.T) {
	var ran int32
	err := Run(context.Background(), func(ctx context.Context, n *Nursery) error {
		_, startErr := n.Start(ctx, func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}, "child")
		return startErr
	}, WithPolicy(IgnoreAndRaise))
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestNursery_GetTaskByName(t *testing.T) {
	n, ctx := Open(context.Background())
	h, err := n.Start(ctx, func(context.Context) error { return nil }, "named")
	require.NoError(t, err)

	got, ok := n.GetTaskByName("named")
	require.True(t, ok)
	require.Same(t, h, got)

	_, ok = n.GetTaskByName("missing")
	require.False(t, ok)
	require.NoError(t, n.Close(nil))
}

func TestNursery_PanicInChildIsReported(t *testing.T) {
	n, ctx := Open(context.Background(), WithPolicy(IgnoreAndRaise))
	_, err := n.Start(ctx, func(context.Context) error {
		panic("child panic")
	}, "child")
	require.NoError(t, err)

	closeErr := n.Close(nil)
	require.ErrorIs(t, closeErr, ErrTaskPanicked)
}

func TestNursery_TaskHandleDoneAndErr(t *testing.T) {
	n, ctx := Open(context.Background())
	wantErr := errors.New("boom")
	h, err := n.Start(ctx, func(context.Context) error { return wantErr }, "child")
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	require.ErrorIs(t, h.Err(), wantErr)
	require.NoError(t, n.Close(nil))
}
