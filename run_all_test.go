package csp

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunAll_EmptyInputReturnsNil(t *testing.T) {
	results, err := RunAll[int, int](context.Background(), nil, func(context.Context, int) (int, error) { return 0, nil })
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRunAll_PreservesInputOrderRegardlessOfCompletion(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := RunAll(context.Background(), items, func(_ context.Context, v int) (int, error) {
		return v * v, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 4, 9, 16, 25}, results)
}

func TestRunAll_AggregatesEveryItemError(t *testing.T) {
	items := []int{0, 1, 2, 3}
	_, err := RunAll(context.Background(), items, func(_ context.Context, v int) (int, error) {
		if v%2 == 0 {
			return 0, errors.New("even")
		}
		return v, nil
	}, WithRunPolicy(IgnoreAndRaise))

	require.Error(t, err)
	var idxs []int
	for _, e := range splitJoined(err) {
		idx, ok := ItemIndex(e)
		require.True(t, ok)
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	require.Equal(t, []int{0, 2}, idxs)
}

func splitJoined(err error) []error {
	type unwrapper interface{ Unwrap() []error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return []error{err}
}

func TestRunAll_ConcurrencyOptionRunsEveryItem(t *testing.T) {
	const limit = 2
	var completed, inFlight, maxSeen int32

	items := make([]int, 20)
	_, err := RunAll(context.Background(), items, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxSeen)
			if n <= prev || atomic.CompareAndSwapInt32(&maxSeen, prev, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		atomic.AddInt32(&completed, 1)
		return struct{}{}, nil
	}, WithConcurrency(limit))

	require.NoError(t, err)
	require.Equal(t, int32(20), atomic.LoadInt32(&completed))
	require.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(limit))
}

func TestForEach_RunsEveryItem(t *testing.T) {
	var sum int32
	items := []int{1, 2, 3, 4}
	err := ForEach(context.Background(), items, func(_ context.Context, v int) error {
		atomic.AddInt32(&sum, int32(v))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(10), atomic.LoadInt32(&sum))
}

func TestMap_IsRunAllUnderAnotherName(t *testing.T) {
	results, err := Map(context.Background(), []string{"a", "bb", "ccc"}, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, results)
}

func TestRunStream_DeliversResultsAndCloses(t *testing.T) {
	in, err := NewChannel(0)
	require.NoError(t, err)

	results, errs, err := RunStream(context.Background(), in, func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})
	require.NoError(t, err)

	go func() {
		for i := 1; i <= 3; i++ {
			_, _ = in.Send(context.Background(), i)
		}
		_ = in.Close()
	}()

	var got []int
	for {
		v, ok, recvErr := results.Receive(context.Background())
		require.NoError(t, recvErr)
		if !ok {
			break
		}
		got = append(got, v.(int))
	}
	sort.Ints(got)
	require.Equal(t, []int{2, 4, 6}, got)

	_, ok, recvErr := errs.Receive(context.Background())
	require.NoError(t, recvErr)
	require.False(t, ok)
}

func TestRunStream_PreserveOrderDeliversInInputOrder(t *testing.T) {
	in, err := NewChannel(0)
	require.NoError(t, err)

	results, _, err := RunStream(context.Background(), in, func(_ context.Context, v int) (int, error) {
		return v, nil
	}, WithPreserveOrder())
	require.NoError(t, err)

	go func() {
		for i := 0; i < 5; i++ {
			_, _ = in.Send(context.Background(), i)
		}
		_ = in.Close()
	}()

	var got []int
	for {
		v, ok, recvErr := results.Receive(context.Background())
		require.NoError(t, recvErr)
		if !ok {
			break
		}
		got = append(got, v.(int))
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestForEachStream_ReportsItemErrorsTagged(t *testing.T) {
	in, err := NewChannel(0)
	require.NoError(t, err)

	errs, err := ForEachStream(context.Background(), in, func(_ context.Context, v int) error {
		if v == 2 {
			return errors.New("bad item")
		}
		return nil
	}, WithRunPolicy(IgnoreAndRaise))
	require.NoError(t, err)

	go func() {
		for i := 0; i < 4; i++ {
			_, _ = in.Send(context.Background(), i)
		}
		_ = in.Close()
	}()

	var idxs []int
	for {
		v, ok, recvErr := errs.Receive(context.Background())
		require.NoError(t, recvErr)
		if !ok {
			break
		}
		idx, has := ItemIndex(v.(error))
		require.True(t, has)
		idxs = append(idxs, idx)
	}
	require.Equal(t, []int{2}, idxs)
}

func TestMapStream_IsRunStreamUnderAnotherName(t *testing.T) {
	in, err := NewChannel(0)
	require.NoError(t, err)

	results, _, err := MapStream(context.Background(), in, func(_ context.Context, v int) (string, error) {
		return string(rune('a' + v)), nil
	})
	require.NoError(t, err)

	go func() {
		_, _ = in.Send(context.Background(), 0)
		_ = in.Close()
	}()

	v, ok, recvErr := results.Receive(context.Background())
	require.NoError(t, recvErr)
	require.True(t, ok)
	require.Equal(t, "a", v)
}
