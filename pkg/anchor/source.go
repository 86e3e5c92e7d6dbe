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

package anchor

import (
	"context"
	"time"

	"github.com/eudiw/lote-trust-core/pkg/asynccache"
)

// GetFunc is the shape of an AnchorSource's lookup: given a query, it
// returns the matching non-empty anchor set, or ok=false if this source
// has nothing for q. ok=false with a nil error means "absent here", never
// "empty": returning a NonEmpty guarantees that contractually.
type GetFunc[Q comparable, A any] func(ctx context.Context, q Q) (anchors NonEmpty[A], ok bool, err error)

// Source is a query -> anchors lookup. Go has no declaration-site variance,
// so the combinators that would need contravariance in Q (ContraMap) are
// free functions rather than methods, since Go methods cannot introduce
// new type parameters.
type Source[Q comparable, A any] struct {
	get GetFunc[Q, A]
}

// NewSource wraps a GetFunc as a Source.
func NewSource[Q comparable, A any](f GetFunc[Q, A]) Source[Q, A] {
	return Source[Q, A]{get: f}
}

// Get runs the lookup.
func (s Source[Q, A]) Get(ctx context.Context, q Q) (NonEmpty[A], bool, error) {
	return s.get(ctx, q)
}

// Or returns a source that tries s first, falling back to other only when
// s reports ok=false (absent) and no error. An error from s is returned
// immediately without consulting other.
func (s Source[Q, A]) Or(other Source[Q, A]) Source[Q, A] {
	return NewSource(func(ctx context.Context, q Q) (NonEmpty[A], bool, error) {
		anchors, ok, err := s.get(ctx, q)
		if err != nil || ok {
			return anchors, ok, err
		}
		return other.get(ctx, q)
	})
}

// ContraMap adapts a Source[Q,A] into a Source[Q2,A] by mapping the new
// query type down to the underlying one before delegating. Expressed as
// a free function because Go methods cannot add their own type parameters.
func ContraMap[Q2 comparable, Q comparable, A any](s Source[Q, A], h func(Q2) Q) Source[Q2, A] {
	return NewSource(func(ctx context.Context, q2 Q2) (NonEmpty[A], bool, error) {
		return s.get(ctx, h(q2))
	})
}

// Cached wraps s with an asynccache.Cache keyed by Q's structural equality
// (Q is comparable, so Go's native map/== semantics give this for free).
// The supplier invoked by the cache calls through to s; a "not found"
// result (ok=false, nil error) is deliberately never cached: absent means
// "not configured here", which a transient fetch ought to re-attempt on
// every call rather than pin for the TTL, since it usually reflects a
// caller-side misconfiguration the operator may still correct.
func Cached[Q comparable, A any](s Source[Q, A], ttl time.Duration, capacity int) (Source[Q, A], error) {
	type result struct {
		anchors NonEmpty[A]
		ok      bool
	}
	c, err := asynccache.New[Q, result](capacity, ttl, func(ctx context.Context, q Q) (result, error) {
		anchors, ok, err := s.get(ctx, q)
		if err != nil {
			return result{}, err
		}
		return result{anchors: anchors, ok: ok}, nil
	})
	if err != nil {
		return Source[Q, A]{}, err
	}
	return NewSource(func(ctx context.Context, q Q) (NonEmpty[A], bool, error) {
		r, err := c.Get(ctx, q)
		if err != nil {
			return NonEmpty[A]{}, false, err
		}
		if !r.ok {
			c.Invalidate(q)
		}
		return r.anchors, r.ok, nil
	}), nil
}
