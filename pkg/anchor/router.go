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
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// OutcomeKind distinguishes the three ways a routed lookup can resolve.
// QueryNotSupported and MisconfiguredSource must never be collapsed into one value:
// operational dashboards need "caller asked for something we don't serve"
// (QueryNotSupported) to read differently from "we were supposed to serve
// it, but the source came back empty" (MisconfiguredSource).
type OutcomeKind int

const (
	Found OutcomeKind = iota
	MisconfiguredSource
	QueryNotSupported
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "Found"
	case MisconfiguredSource:
		return "MisconfiguredSource"
	case QueryNotSupported:
		return "QueryNotSupported"
	default:
		return "Unknown"
	}
}

// Outcome is the result of routing a query through a SupportedQueries.
type Outcome[A any] struct {
	Kind    OutcomeKind
	Anchors NonEmpty[A]
}

// Group associates a set of queries with the single Source that answers
// all of them. Queries must be pairwise distinct within a Group and across
// every Group passed to the same constructor call (disjointness).
type Group[Q comparable, A any] struct {
	Queries []Q
	Source  Source[Q, A]
}

// SupportedQueries is an immutable router over disjoint query sets, each
// backed by its own Source. Construction fails eagerly if any query
// appears in more than one group.
type SupportedQueries[Q comparable, A any] struct {
	groups []Group[Q, A]
	index  map[Q]Source[Q, A]
}

// New builds a SupportedQueries from disjoint groups. Returns an error
// (rather than panicking) on overlap: configuration errors must fail
// eagerly but are still a caller-recoverable condition, not a contract
// violation.
func New[Q comparable, A any](groups ...Group[Q, A]) (SupportedQueries[Q, A], error) {
	index := make(map[Q]Source[Q, A])
	for _, g := range groups {
		for _, q := range g.Queries {
			if _, dup := index[q]; dup {
				return SupportedQueries[Q, A]{}, fmt.Errorf("anchor: query %v supported by more than one group", q)
			}
			index[q] = g.Source
		}
	}
	return SupportedQueries[Q, A]{groups: append([]Group[Q, A]{}, groups...), index: index}, nil
}

// Get routes q to its configured Source and classifies the result. An
// error return means the underlying Source's lookup itself failed (a
// transient fetch error, not a routing decision); it is distinct from all
// three Outcome kinds.
func (sq SupportedQueries[Q, A]) Get(ctx context.Context, q Q) (Outcome[A], error) {
	src, ok := sq.index[q]
	if !ok {
		return Outcome[A]{Kind: QueryNotSupported}, nil
	}
	anchors, found, err := src.Get(ctx, q)
	if err != nil {
		return Outcome[A]{}, err
	}
	if !found {
		return Outcome[A]{Kind: MisconfiguredSource}, nil
	}
	return Outcome[A]{Kind: Found, Anchors: anchors}, nil
}

// Compose disjoint-unions sq and other. Fails if their query sets overlap.
func (sq SupportedQueries[Q, A]) Compose(other SupportedQueries[Q, A]) (SupportedQueries[Q, A], error) {
	return New(append(append([]Group[Q, A]{}, sq.groups...), other.groups...)...)
}

// Transform re-keys sq from Q to Q2 via k, and adapts every underlying
// Source from Q2 back to Q via h (ContraMap), so that calling Get with a
// Q2 value ends up invoking the original Source with h(q2).
//
// k must be injective on each group (distinct queries within one group
// must map to distinct Q2 values), otherwise that group would silently
// shrink, which is a contract violation this function refuses to permit
// silently. Overlap introduced across groups by k is caught by New's
// disjointness check.
func Transform[Q2 comparable, Q comparable, A any](sq SupportedQueries[Q, A], h func(Q2) Q, k func(Q) Q2) (SupportedQueries[Q2, A], error) {
	var errs *multierror.Error
	newGroups := make([]Group[Q2, A], 0, len(sq.groups))
	for _, g := range sq.groups {
		seen := make(map[Q2]struct{}, len(g.Queries))
		mapped := make([]Q2, 0, len(g.Queries))
		for _, q := range g.Queries {
			q2 := k(q)
			if _, dup := seen[q2]; dup {
				errs = multierror.Append(errs, fmt.Errorf("anchor: Transform's k is not injective on query %v (collides at %v)", q, q2))
				continue
			}
			seen[q2] = struct{}{}
			mapped = append(mapped, q2)
		}
		newGroups = append(newGroups, Group[Q2, A]{
			Queries: mapped,
			Source:  ContraMap(g.Source, h),
		})
	}
	if errs != nil {
		return SupportedQueries[Q2, A]{}, errs.ErrorOrNil()
	}
	return New(newGroups...)
}
