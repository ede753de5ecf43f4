package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func setup(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return New(WithClock(clock.Now), WithLogger(logger)), clock
}

var cartKey = Key{Resource: "cart", Scope: "S1"}

func counting(calls *int32, v any) Fetcher {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}
}

func TestFetchServesFreshValue(t *testing.T) {
	c, clock := setup(t)
	ctx := context.Background()
	p := Policy{StaleTime: 5 * time.Minute}
	var calls int32

	v, err := c.Fetch(ctx, cartKey, p, counting(&calls, "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	clock.Advance(4 * time.Minute)
	_, err = c.Fetch(ctx, cartKey, p, counting(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fresh value is served from cache")

	clock.Advance(2 * time.Minute)
	v, err = c.Fetch(ctx, cartKey, p, counting(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchZeroStaleTimeAlwaysFetches(t *testing.T) {
	c, _ := setup(t)
	var calls int32
	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background(), cartKey, Policy{}, counting(&calls, i))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls)
}

func TestConcurrentFetchesShareOneRequest(t *testing.T) {
	c, _ := setup(t)
	release := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), cartKey, Policy{}, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the flight.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestInvalidateDropsInFlightResult(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()
	c.Set(cartKey, "old")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)
	go func() {
		v, _ := c.Refetch(ctx, cartKey, Policy{}, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "late", nil
		})
		done <- v
	}()

	<-started
	c.Invalidate(cartKey)
	close(release)
	assert.Equal(t, "late", <-done, "the caller still gets its own response")

	v, ok := c.Peek(cartKey)
	require.True(t, ok)
	assert.Equal(t, "old", v, "a superseded generation never overwrites the cache")
	assert.True(t, c.Snapshot(cartKey, Policy{StaleTime: time.Hour}).Stale)

	var calls int32
	v, err := c.Fetch(ctx, cartKey, Policy{StaleTime: time.Hour}, counting(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.Equal(t, int32(1), calls, "invalidated key is refetched")
}

func TestFailureKeepsLastKnownGood(t *testing.T) {
	c, _ := setup(t)
	c.Set(cartKey, "good")
	boom := errors.New("boom")

	_, err := c.Refetch(context.Background(), cartKey, Policy{}, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	v, ok := c.Peek(cartKey)
	require.True(t, ok)
	assert.Equal(t, "good", v)

	snap := c.Snapshot(cartKey, Policy{})
	assert.Equal(t, StatusError, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
	assert.True(t, snap.HasValue)
}

func TestRetry(t *testing.T) {
	transient := errors.New("transient")
	terminal := errors.New("terminal")
	retryable := func(err error) bool { return errors.Is(err, transient) }

	tests := []struct {
		name      string
		policy    Policy
		failures  []error
		wantCalls int32
		wantErr   error
	}{
		{
			name:      "transient then success",
			policy:    Policy{Retry: 3, ShouldRetry: retryable},
			failures:  []error{transient, transient},
			wantCalls: 3,
		},
		{
			name:      "terminal error is not retried",
			policy:    Policy{Retry: 3, ShouldRetry: retryable},
			failures:  []error{terminal},
			wantCalls: 1,
			wantErr:   terminal,
		},
		{
			name:      "retries are bounded",
			policy:    Policy{Retry: 1, ShouldRetry: retryable},
			failures:  []error{transient, transient, transient},
			wantCalls: 2,
			wantErr:   transient,
		},
		{
			name:      "no retry by default",
			policy:    Policy{},
			failures:  []error{transient},
			wantCalls: 1,
			wantErr:   transient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := setup(t)
			var calls int32
			_, err := c.Refetch(context.Background(), cartKey, tt.policy, func(ctx context.Context) (any, error) {
				n := atomic.AddInt32(&calls, 1)
				if int(n) <= len(tt.failures) {
					return nil, tt.failures[n-1]
				}
				return "ok", nil
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestCancelledFetchIsDiscarded(t *testing.T) {
	c, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	fetchDone := make(chan struct{})

	go func() {
		defer close(fetchDone)
		_, err := c.Refetch(ctx, cartKey, Policy{}, func(context.Context) (any, error) {
			close(started)
			<-release
			return "after-cancel", nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	<-started
	cancel()
	<-fetchDone
	close(release)

	require.Eventually(t, func() bool {
		return c.Snapshot(cartKey, Policy{}).Status != StatusLoading
	}, time.Second, time.Millisecond)
	_, ok := c.Peek(cartKey)
	assert.False(t, ok, "results arriving after cancellation are not stored")
}

func TestAbandonedFlightIsRerun(t *testing.T) {
	c, _ := setup(t)
	leaderCtx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var calls int32

	fetch := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return "v", nil
	}

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		_, _ = c.Refetch(leaderCtx, cartKey, Policy{}, fetch)
	}()
	<-started

	followerDone := make(chan any)
	go func() {
		v, err := c.Refetch(context.Background(), cartKey, Policy{}, fetch)
		assert.NoError(t, err)
		followerDone <- v
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-leaderDone
	assert.Equal(t, "v", <-followerDone)
}

func TestInvalidateScopeAndResource(t *testing.T) {
	c, _ := setup(t)
	cartS1 := Key{"cart", "S1"}
	historyS1 := Key{"history", "S1"}
	cartS2 := Key{"cart", "S2"}
	for _, k := range []Key{cartS1, historyS1, cartS2} {
		c.Set(k, k.String())
	}
	p := Policy{StaleTime: time.Hour}

	c.InvalidateScope("S1")
	assert.True(t, c.Snapshot(cartS1, p).Stale)
	assert.True(t, c.Snapshot(historyS1, p).Stale)
	assert.False(t, c.Snapshot(cartS2, p).Stale)

	c.InvalidateResource("cart")
	assert.True(t, c.Snapshot(cartS2, p).Stale)
}

func TestRemoveAndClear(t *testing.T) {
	c, _ := setup(t)
	a, b := Key{"store", "1"}, Key{"stores", ""}
	c.Set(a, 1)
	c.Set(b, 2)
	genA := c.Generation(a)

	c.Remove(a)
	_, ok := c.Peek(a)
	assert.False(t, ok)
	assert.Greater(t, c.Generation(a), genA)

	c.Clear()
	_, ok = c.Peek(b)
	assert.False(t, ok)
	assert.Equal(t, StatusIdle, c.Snapshot(b, Policy{}).Status)
}

func TestTypedHelpers(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	n, err := Get(ctx, c, cartKey, Policy{StaleTime: time.Hour}, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	got, ok := PeekAs[int](c, cartKey)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	_, err = Get(ctx, c, cartKey, Policy{StaleTime: time.Hour}, func(context.Context) (string, error) { return "x", nil })
	assert.ErrorContains(t, err, "not string")

	s, err := Reload(ctx, c, cartKey, Policy{}, func(context.Context) (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, "x", s)
}

func TestPoll(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	seen := make(chan any, 16)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Poll(ctx, cartKey, Policy{RefetchInterval: 5 * time.Millisecond}, func(context.Context) (any, error) {
			return atomic.AddInt32(&calls, 1), nil
		}, func(v any, err error) {
			assert.NoError(t, err)
			select {
			case seen <- v:
			default:
			}
		})
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-seen:
		case <-time.After(time.Second):
			t.Fatal("poll did not tick")
		}
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	v, ok := c.Peek(cartKey)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v.(int32), int32(3))
}

func TestPollRequiresInterval(t *testing.T) {
	c, _ := setup(t)
	err := c.Poll(context.Background(), cartKey, Policy{}, nil, nil)
	assert.ErrorContains(t, err, "no refetch interval")
}
