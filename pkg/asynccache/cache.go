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

// Package asynccache implements a bounded, TTL-expiring, single-flight
// async cache: a mapping K -> V backed by a suspendable supplier, where
// concurrent callers for the same key share one in-flight computation.
// It pairs hashicorp/golang-lru for bounded eviction with a mutex-guarded
// creation timestamp for TTL expiry, and golang.org/x/sync/singleflight
// so concurrent misses for the same key coalesce into one supplier call
// rather than merely de-duplicating against an already-populated entry.
//
// A waiter who cancels its own ctx while a Supplier call is in flight for
// its key leaves that call running for any other waiter still attached to
// it; the Supplier's own ctx is independent of every individual caller's
// ctx and is cancelled only once the last attached waiter has gone (see
// flight in this file). A waiter count momentarily dropping to zero and
// bouncing back up while the Supplier call is still unwinding from that
// cancellation is the one corner the package leaves implementation-defined,
// per the documented "if none remain" escape hatch.
package asynccache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Supplier computes the value for a key. It may suspend (block on ctx) and
// may fail; a failing call is never cached.
type Supplier[K comparable, V any] func(ctx context.Context, key K) (V, error)

// entry is what the cache actually stores: a value plus the time it was
// populated, so Get can decide freshness without a second map lookup.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// flight tracks one in-flight Supplier call shared across waiters via
// singleflight. ctx/cancel belong to the call itself, not to any one
// waiter; waiters decrements as callers leave (by receiving their result
// or by their own ctx being cancelled) and cancel is invoked once it
// reaches zero, stopping the Supplier early when nobody is left to
// receive its result.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Cache is a bounded (N), TTL-expiring (T) async cache over a Supplier.
//
// Concurrency: the mutex below guards only the golang-lru map and the
// flights map, never the Supplier call itself. Get joins the shared call
// via singleflight.Group.DoChan rather than Do, so each caller can select
// between the shared result and its own ctx being cancelled independently,
// distinct keys proceed fully in parallel, and concurrent callers for the
// same key share one call.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	lru     *lru.Cache[K, entry[V]]
	group   singleflight.Group
	flights map[string]*flight
	ttl     time.Duration
	f       Supplier[K, V]
}

// New constructs a Cache with bounded size capacity and freshness window
// ttl. Both must be positive; this is a configuration error, checked
// eagerly at construction.
func New[K comparable, V any](capacity int, ttl time.Duration, f Supplier[K, V]) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("asynccache: capacity must be >= 1, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("asynccache: ttl must be > 0, got %s", ttl)
	}
	l, err := lru.New[K, entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("asynccache: constructing LRU: %w", err)
	}
	return &Cache[K, V]{lru: l, flights: make(map[string]*flight), ttl: ttl, f: f}, nil
}

// Get returns the cached value for key, populating it via f if absent,
// expired, or never computed. Concurrent Get calls for the same key
// observe exactly one invocation of f (single-flight); on failure the
// entry is removed before the error reaches any waiter, and the next Get
// re-invokes f (failure eviction).
//
// Cancelling ctx while f is in flight for key returns ctx.Err() to this
// caller only; f keeps running for any other caller still attached to the
// same flight, and is cancelled itself only once every attached caller has
// left (see flight).
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if v, ok := c.lookupFresh(key); ok {
		return v, nil
	}

	// singleflight keys are strings; K is an arbitrary comparable type, so
	// format it. Distinct K values that format identically would share one
	// flight, and a caller joining it would receive the value computed for
	// the other key. The key types this cache is used with
	// (VerificationContext, strings, URIs) format distinctly, so no such
	// collision arises for them.
	flightKey := fmt.Sprint(key)

	c.mu.Lock()
	fl, ok := c.flights[flightKey]
	if !ok {
		flCtx, cancel := context.WithCancel(context.Background())
		fl = &flight{ctx: flCtx, cancel: cancel}
		c.flights[flightKey] = fl
	}
	fl.waiters++
	c.mu.Unlock()

	resultCh := c.group.DoChan(flightKey, func() (interface{}, error) {
		defer func() {
			c.mu.Lock()
			if c.flights[flightKey] == fl {
				delete(c.flights, flightKey)
			}
			c.mu.Unlock()
			fl.cancel()
		}()
		// Re-check freshness: another goroutine may have populated the
		// entry between our lookupFresh above and winning the flight.
		if v, ok := c.lookupFresh(key); ok {
			return v, nil
		}
		val, err := c.f(fl.ctx, key)
		if err != nil {
			c.mu.Lock()
			c.lru.Remove(key)
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Lock()
		c.lru.Add(key, entry[V]{value: val, createdAt: time.Now()})
		c.mu.Unlock()
		return val, nil
	})

	defer func() {
		c.mu.Lock()
		fl.waiters--
		if fl.waiters == 0 {
			fl.cancel()
		}
		c.mu.Unlock()
	}()

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate removes key unconditionally, e.g. when a wrapping Source
// decides a "not found" result should not be pinned for the TTL.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Len reports the current number of cached entries (<= capacity).
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache[K, V]) lookupFresh(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.lru.Get(key) // Get, not Peek: access updates LRU recency.
	c.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}
	if time.Since(e.createdAt) >= c.ttl {
		c.mu.Lock()
		c.lru.Remove(key)
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}
