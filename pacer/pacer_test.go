package pacer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMapKeepsInputOrder(t *testing.T) {
	items := []int{30, 20, 10}

	// Earlier items sleep longer so completion order is reversed.
	got, err := Map(context.Background(), items, time.Millisecond, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("item-%d", n), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"item-30", "item-20", "item-10"}, got)
}

func TestMapFailureDoesNotStopSiblings(t *testing.T) {
	boom := errors.New("boom")
	var mu sync.Mutex
	var called []string

	got, err := Map(context.Background(), []string{"a", "b", "c"}, time.Millisecond, func(_ context.Context, s string) (*string, error) {
		mu.Lock()
		called = append(called, s)
		mu.Unlock()

		if s == "b" {
			return nil, boom
		}
		v := s + "!"
		return &v, nil
	})

	require.ErrorIs(t, err, boom)
	require.Len(t, got, 3)
	require.NotNil(t, got[0])
	assert.Equal(t, "a!", *got[0])
	assert.Nil(t, got[1])
	require.NotNil(t, got[2])
	assert.Equal(t, "c!", *got[2])
	assert.ElementsMatch(t, []string{"a", "b", "c"}, called)
}

func TestMapErrorSlotStaysZeroEvenIfOpReturnsValue(t *testing.T) {
	got, err := Map(context.Background(), []int{1, 2}, 0, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 99, errors.New("bad")
		}
		return n * 10, nil
	})

	require.Error(t, err)
	assert.Equal(t, []int{10, 0}, got)
}

func TestMapDispatchDoesNotWaitForCompletion(t *testing.T) {
	release := make(chan struct{})

	// Item 0 and 1 block until item 2 has been started. Serial dispatch
	// would never reach item 2 and the ops would time out.
	got, err := Map(context.Background(), []int{0, 1, 2}, 5*time.Millisecond, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			close(release)
			return n, nil
		}
		select {
		case <-release:
			return n, nil
		case <-time.After(2 * time.Second):
			return 0, errors.New("dispatch was serialized")
		}
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestMapSpacesDispatches(t *testing.T) {
	const interval = 20 * time.Millisecond

	var mu sync.Mutex
	started := make(map[int]time.Time)

	_, err := Map(context.Background(), []int{0, 1, 2}, interval, func(_ context.Context, n int) (struct{}, error) {
		mu.Lock()
		started[n] = time.Now()
		mu.Unlock()
		return struct{}{}, nil
	})
	require.NoError(t, err)

	for i := 1; i < 3; i++ {
		gap := started[i].Sub(started[i-1])
		assert.GreaterOrEqual(t, gap, interval, "gap between dispatch %d and %d", i-1, i)
	}
}

func TestMapEmptyInput(t *testing.T) {
	got, err := Map(context.Background(), nil, DefaultInterval, func(_ context.Context, n int) (int, error) {
		t.Fatalf("op must not be called")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapStopsDispatchingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, err := Map(ctx, []int{1, 2, 3}, time.Second, func(_ context.Context, n int) (int, error) {
		cancel()
		return n, nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1, 0, 0}, got)
}
