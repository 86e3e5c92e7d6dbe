// Copyright 2025 The LoTE Trust Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package asynccache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSingleFlightCoalescesConcurrentCallers(t *testing.T) {
	var calls atomic.Int64
	c, err := New[string, int](10, time.Hour, func(ctx context.Context, key string) (int, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return 42, nil
	})
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	results := make([]int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "x")
			require.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestFreshnessExpiresAfterTTL(t *testing.T) {
	var calls atomic.Int64
	c, err := New[string, int](10, 20*time.Millisecond, func(ctx context.Context, key string) (int, error) {
		return int(calls.Add(1)), nil
	})
	require.NoError(t, err)

	v1, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, 1, v1)

	time.Sleep(40 * time.Millisecond)

	v2, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, 2, v2, "expired entry should have been re-fetched")
}

func TestLRUEvictsLeastRecentlyAccessed(t *testing.T) {
	c, err := New[string, string](2, time.Hour, func(ctx context.Context, key string) (string, error) {
		return "v:" + key, nil
	})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "a")
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "b")
	require.NoError(t, err)

	// Touch "a" so "b" becomes the least-recently-used entry.
	_, err = c.Get(context.Background(), "a")
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "c")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	_, bPresent := c.lookupFresh("b")
	require.False(t, bPresent, "b should have been evicted as least-recently-used")
	_, aPresent := c.lookupFresh("a")
	require.True(t, aPresent, "a was touched more recently and should survive")
}

func TestFailureEvictsBeforePropagating(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("boom")
	c, err := New[string, int](10, time.Hour, func(ctx context.Context, key string) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			return 0, boom
		}
		return int(n), nil
	})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "k")
	require.ErrorIs(t, err, boom)

	v, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, 2, v, "a subsequent Get must re-invoke f rather than serve the error")
}

func TestConstructionRejectsNonPositiveBounds(t *testing.T) {
	_, err := New[string, int](0, time.Second, func(ctx context.Context, key string) (int, error) { return 0, nil })
	require.Error(t, err)

	_, err = New[string, int](1, 0, func(ctx context.Context, key string) (int, error) { return 0, nil })
	require.Error(t, err)
}

func TestWaiterCancellationDoesNotAbortOtherWaiters(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	c, err := New[string, int](10, time.Hour, func(ctx context.Context, key string) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 42, nil
	})
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	var cancelledErr error
	var survivorVal int
	var survivorErr error
	go func() {
		defer wg.Done()
		_, cancelledErr = c.Get(cancelledCtx, "x")
	}()
	go func() {
		defer wg.Done()
		<-started // make sure both callers are attached to the same flight
		survivorVal, survivorErr = c.Get(context.Background(), "x")
	}()

	<-started
	cancel()
	time.Sleep(20 * time.Millisecond) // give the cancelled waiter time to return
	close(release)
	wg.Wait()

	require.ErrorIs(t, cancelledErr, context.Canceled)
	require.NoError(t, survivorErr)
	require.Equal(t, 42, survivorVal, "the supplier must still deliver a result to the waiter that stayed")
	require.EqualValues(t, 1, calls.Load(), "only one supplier invocation should have run")
}

func TestLastWaiterLeavingCancelsSupplier(t *testing.T) {
	var suppliedCtx context.Context
	supplierDone := make(chan struct{})
	c, err := New[string, int](10, time.Hour, func(ctx context.Context, key string) (int, error) {
		defer close(supplierDone)
		<-ctx.Done()
		suppliedCtx = ctx
		return 0, ctx.Err()
	})
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Get(cancelledCtx, "x")
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-supplierDone:
	case <-time.After(time.Second):
		t.Fatal("supplier should have observed cancellation once its only waiter left")
	}
	require.ErrorIs(t, suppliedCtx.Err(), context.Canceled)
}

func TestDistinctKeysProceedInParallel(t *testing.T) {
	var inFlight atomic.Int64
	var maxInFlight atomic.Int64
	c, err := New[string, int](10, time.Hour, func(ctx context.Context, key string) (int, error) {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, k := range []string{"a", "b", "c"} {
		k := k
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), k)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Greater(t, maxInFlight.Load(), int64(1), "distinct keys should overlap in flight")
}
