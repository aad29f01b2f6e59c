package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	l := New(5, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "first 5 calls must not block")
	assert.Equal(t, 5, l.Pending())
}

func TestSlidingWindow_SixthCallWaitsForOldest(t *testing.T) {
	window := 300 * time.Millisecond
	l := New(5, window)
	ctx := context.Background()

	oldest := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(ctx))
	}

	require.NoError(t, l.Acquire(ctx))
	waited := time.Since(oldest)

	// The 6th call cannot be admitted before the oldest timestamp has
	// left the trailing window.
	assert.GreaterOrEqual(t, waited, window)
}

func TestSlidingWindow_PruneFreesSlots(t *testing.T) {
	l := New(2, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, l.Pending())

	start := time.Now()
	require.NoError(t, l.Acquire(ctx))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestSlidingWindow_AcquireHonorsContext(t *testing.T) {
	l := New(1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindow_ConcurrentAcquire(t *testing.T) {
	l := New(5, 100*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(ctx))
		}()
	}
	wg.Wait()

	// 15 calls at 5 per 100ms need at least two extra windows.
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestRegistry_OneLimiterPerVenue(t *testing.T) {
	r := NewRegistry(5, time.Second)

	a := r.For("binance")
	b := r.For("kraken")
	assert.NotSame(t, a, b)
	assert.Same(t, a, r.For("binance"))
}
