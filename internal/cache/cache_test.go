package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCachesResult(t *testing.T) {
	c := New()
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "rows", nil
	}

	v, err := c.Get(context.Background(), "bookings|p=1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "rows", v)

	v, err = c.Get(context.Background(), "bookings|p=1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "rows", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetDeduplicatesInFlightFetches(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", fetch)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetStoresAndResurfacesErrors(t *testing.T) {
	c := New()
	var calls atomic.Int32
	boom := errors.New("bookings could not be loaded")
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	}

	_, err := c.Get(context.Background(), "k", fetch)
	require.ErrorIs(t, err, boom)

	// The failure is a cached outcome, not silently retried.
	_, err = c.Get(context.Background(), "k", fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := New()
	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}

	v, _ := c.Get(context.Background(), "bookings|p=1", fetch)
	assert.Equal(t, 1, v)
	other, _ := c.Get(context.Background(), "stays|last=7", fetch)
	assert.Equal(t, 2, other)

	c.Invalidate(func(key string) bool { return strings.HasPrefix(key, "bookings|") })

	v, _ = c.Get(context.Background(), "bookings|p=1", fetch)
	assert.Equal(t, 3, v, "stale entry must refetch")
	other, _ = c.Get(context.Background(), "stays|last=7", fetch)
	assert.Equal(t, 2, other, "unmatched entry must stay cached")
}

func TestPrefetchWarmsKeyWithoutBlocking(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.Prefetch("k", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "warm", nil
	})

	require.Eventually(t, func() bool {
		_, ok := c.peek("k")
		return ok
	}, time.Second, 5*time.Millisecond)

	// A later read is a pure cache hit.
	v, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		t.Fatal("fetch must not run for a warmed key")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "warm", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPrefetchSkipsFreshEntries(t *testing.T) {
	c := New()
	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "fresh", nil
	})
	require.NoError(t, err)

	c.Prefetch("k", func(ctx context.Context) (any, error) {
		t.Error("prefetch must not refetch a fresh key")
		return nil, nil
	})
	time.Sleep(20 * time.Millisecond)

	v, ok := c.peek("k")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestInvalidateDuringFetchForcesRefetch(t *testing.T) {
	c := New()
	inFlight := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		v, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
			close(inFlight)
			<-release
			return "old rows", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "old rows", v)
	}()

	<-inFlight
	// A mutation lands while the fetch is running: its result must not be
	// trusted once it arrives.
	c.InvalidateAll()
	close(release)
	<-done

	v, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "new rows", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new rows", v)
}

func TestInvalidateDuringPrefetchForcesRefetch(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	c.Prefetch("k", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "old rows", nil
	})

	<-started
	c.InvalidateAll()
	close(release)

	// The first read may still join the in-flight prefetch, but once it
	// lands the entry is stale and the next read refetches.
	require.Eventually(t, func() bool {
		v, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
			return "new rows", nil
		})
		return err == nil && v == "new rows"
	}, time.Second, 5*time.Millisecond)
}

func TestPrefetchFailureIsNotLost(t *testing.T) {
	c := New()
	boom := errors.New("gateway down")
	started := make(chan struct{})
	c.Prefetch("k", func(ctx context.Context) (any, error) {
		close(started)
		return nil, boom
	})
	<-started

	// Whether the read joins the in-flight prefetch or lands after it
	// completed, the stored failure surfaces.
	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}
