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

// Package anchor provides the AnchorSource abstraction (a query to anchors
// lookup) along with its combinators, and the SupportedQueries router that
// composes disjoint sources into one.
package anchor

import "errors"

// ErrEmptySequence is returned by NewNonEmpty when given a zero-length
// slice. Producing it anywhere else in this package is a contract
// violation: an AnchorSource's Some(s) must always carry a non-empty s.
var ErrEmptySequence = errors.New("anchor: non-empty sequence constructed from empty input")

// NonEmpty is a sequence guaranteed, by construction, to hold at least one
// element. The zero value is not valid; always go through NewNonEmpty or
// one of this package's producers.
type NonEmpty[A any] struct {
	items []A
}

// NewNonEmpty validates xs and wraps it. It is the only way to construct a
// NonEmpty from a plain slice.
func NewNonEmpty[A any](xs []A) (NonEmpty[A], error) {
	if len(xs) == 0 {
		return NonEmpty[A]{}, ErrEmptySequence
	}
	return NonEmpty[A]{items: xs}, nil
}

// MustNonEmpty is NewNonEmpty but panics on an empty input. Reserved for
// call sites that have already checked length, e.g. tests.
func MustNonEmpty[A any](xs []A) NonEmpty[A] {
	ne, err := NewNonEmpty(xs)
	if err != nil {
		panic(err)
	}
	return ne
}

// Slice returns a copy of the underlying elements.
func (ne NonEmpty[A]) Slice() []A {
	out := make([]A, len(ne.items))
	copy(out, ne.items)
	return out
}

// Len returns the number of elements; always >= 1 for a validly
// constructed NonEmpty.
func (ne NonEmpty[A]) Len() int {
	return len(ne.items)
}

// First returns the first element. Safe to call unconditionally since a
// NonEmpty always has at least one element.
func (ne NonEmpty[A]) First() A {
	return ne.items[0]
}
