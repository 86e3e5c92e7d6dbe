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

package lote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// graphFetcher serves a fixed URI -> LoTE graph and counts fetch calls
// per URI, so tests can assert on sibling-refetch behavior.
type graphFetcher struct {
	mu    sync.Mutex
	docs  map[string]*LoTE
	fails map[string]error
	calls map[string]int
}

func newGraphFetcher(docs map[string]*LoTE) *graphFetcher {
	return &graphFetcher{docs: docs, fails: map[string]error{}, calls: map[string]int{}}
}

func (g *graphFetcher) fetch(_ context.Context, uri string) (*LoTE, error) {
	g.mu.Lock()
	g.calls[uri]++
	g.mu.Unlock()
	if err, ok := g.fails[uri]; ok {
		return nil, err
	}
	doc, ok := g.docs[uri]
	if !ok {
		return nil, fmt.Errorf("no document registered for %s", uri)
	}
	return doc, nil
}

func (g *graphFetcher) callCount(uri string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[uri]
}

func collect(out <-chan Event) []Event {
	var events []Event
	for e := range out {
		events = append(events, e)
	}
	return events
}

func byKind(events []Event, k EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func TestLoaderCycleAndChildError(t *testing.T) {
	// root -> {a, b}; a -> root (cycle); b -> fails.
	root := &LoTE{PointersToOther: []Pointer{{Location: "a"}, {Location: "b"}}}
	a := &LoTE{PointersToOther: []Pointer{{Location: "root"}}}
	g := newGraphFetcher(map[string]*LoTE{"root": root, "a": a})
	g.fails["b"] = errors.New("fetch failed for b")

	loader, err := NewLoader(g.fetch, Params{MaxDepth: 5, MaxLists: 10, SiblingParallelism: 2})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "root"))

	primaries := byKind(events, Primary)
	require.Len(t, primaries, 1)
	require.Equal(t, "root", primaries[0].URI)

	others := byKind(events, Other)
	require.Len(t, others, 1)
	require.Equal(t, "a", others[0].URI)

	problems := byKind(events, Problem)
	require.Len(t, problems, 2)

	var sawCycle, sawFetchError bool
	for _, p := range problems {
		switch p.ProblemKind {
		case CircularReferenceDetected:
			sawCycle = true
			require.Equal(t, "root", p.URI)
		case FetchError:
			sawFetchError = true
			require.Equal(t, "b", p.URI)
			require.Error(t, p.Cause)
		}
	}
	require.True(t, sawCycle, "a's pointer back to root must be reported as a cycle")
	require.True(t, sawFetchError, "b's fetch failure must be reported independently of a's cycle")
}

func TestLoaderDepthCutoff(t *testing.T) {
	// A chain 0 -> 1 -> 2 -> 3, with MaxDepth = 1: node "1" loads (depth 1),
	// node "2" is beyond the limit (depth 2 > 1).
	docs := map[string]*LoTE{
		"0": {PointersToOther: []Pointer{{Location: "1"}}},
		"1": {PointersToOther: []Pointer{{Location: "2"}}},
		"2": {PointersToOther: []Pointer{{Location: "3"}}},
	}
	g := newGraphFetcher(docs)
	loader, err := NewLoader(g.fetch, Params{MaxDepth: 1, MaxLists: 10, SiblingParallelism: 2})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "0"))

	require.Len(t, byKind(events, Primary), 1)
	others := byKind(events, Other)
	require.Len(t, others, 1)
	require.Equal(t, "1", others[0].URI)

	problems := byKind(events, Problem)
	require.Len(t, problems, 1)
	require.Equal(t, MaxDepthReached, problems[0].ProblemKind)
	require.Equal(t, "2", problems[0].URI)
	require.Equal(t, 1, problems[0].Limit)

	require.Equal(t, 0, g.callCount("3"), "a node beyond max depth must never be fetched")
}

func TestLoaderMaxListsBound(t *testing.T) {
	// A wide fan-out from root to 20 distinct children, MaxLists = 5: at
	// most 5 successful loads total (including root) may occur.
	var pointers []Pointer
	docs := map[string]*LoTE{}
	for i := 0; i < 20; i++ {
		uri := fmt.Sprintf("child-%d", i)
		pointers = append(pointers, Pointer{Location: uri})
		docs[uri] = &LoTE{}
	}
	docs["root"] = &LoTE{PointersToOther: pointers}
	g := newGraphFetcher(docs)

	loader, err := NewLoader(g.fetch, Params{MaxDepth: 5, MaxLists: 5, SiblingParallelism: 8})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "root"))

	successes := len(byKind(events, Primary)) + len(byKind(events, Other))
	require.LessOrEqual(t, successes, 5, "at most MaxLists successful loads may occur")

	maxListsProblems := 0
	for _, p := range byKind(events, Problem) {
		if p.ProblemKind == MaxListsReached {
			maxListsProblems++
		}
	}
	require.Greater(t, maxListsProblems, 0, "the remaining children must report MaxListsReached")
	childrenSucceeded := successes - 1
	require.Equal(t, 20-childrenSucceeded, maxListsProblems)
}

func TestLoaderSharedDescendantIsRefetchedPerSiblingBranch(t *testing.T) {
	// root -> {a, b}; both a and b point to "shared". Each branch's path
	// set is independent, so "shared" is fetched twice (once per branch),
	// not deduplicated across siblings.
	docs := map[string]*LoTE{
		"root":   {PointersToOther: []Pointer{{Location: "a"}, {Location: "b"}}},
		"a":      {PointersToOther: []Pointer{{Location: "shared"}}},
		"b":      {PointersToOther: []Pointer{{Location: "shared"}}},
		"shared": {},
	}
	g := newGraphFetcher(docs)
	loader, err := NewLoader(g.fetch, Params{MaxDepth: 5, MaxLists: 100, SiblingParallelism: 4})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "root"))

	sharedOthers := 0
	for _, e := range byKind(events, Other) {
		if e.URI == "shared" {
			sharedOthers++
		}
	}
	require.Equal(t, 2, sharedOthers, "shared must be loaded once per sibling branch that references it")
	require.Equal(t, 2, g.callCount("shared"))
}

func TestLoaderReservationReleasedOnCycleAndFetchFailure(t *testing.T) {
	// A cycle step and a failing fetch must not permanently consume a
	// MaxLists slot: with MaxLists exactly large enough for the
	// successful nodes alone, the traversal must still complete them all.
	docs := map[string]*LoTE{
		"root": {PointersToOther: []Pointer{{Location: "cyclic"}, {Location: "bad"}, {Location: "good"}}},
		"cyclic": {PointersToOther: []Pointer{{Location: "root"}}},
		"good":   {},
	}
	g := newGraphFetcher(docs)
	g.fails["bad"] = errors.New("boom")

	// Successful loads: root, cyclic, good = 3.
	loader, err := NewLoader(g.fetch, Params{MaxDepth: 5, MaxLists: 3, SiblingParallelism: 1})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "root"))

	successes := len(byKind(events, Primary)) + len(byKind(events, Other))
	require.Equal(t, 3, successes)

	maxListsHit := 0
	for _, p := range byKind(events, Problem) {
		if p.ProblemKind == MaxListsReached {
			maxListsHit++
		}
	}
	require.Equal(t, 0, maxListsHit, "cycle/failure reservations must be released, not consumed")
}

func TestLoaderConstructionValidatesParams(t *testing.T) {
	_, err := NewLoader(nil, Params{MaxDepth: 1, MaxLists: 1, SiblingParallelism: 1})
	require.Error(t, err)

	noop := func(_ context.Context, _ string) (*LoTE, error) { return &LoTE{}, nil }
	_, err = NewLoader(noop, Params{MaxDepth: 0, MaxLists: 1, SiblingParallelism: 1})
	require.Error(t, err)
	_, err = NewLoader(noop, Params{MaxDepth: 1, MaxLists: 0, SiblingParallelism: 1})
	require.Error(t, err)
	_, err = NewLoader(noop, Params{MaxDepth: 1, MaxLists: 1, SiblingParallelism: 0})
	require.Error(t, err)
}

func TestLoaderSelfCycleAtRoot(t *testing.T) {
	docs := map[string]*LoTE{
		"root": {PointersToOther: []Pointer{{Location: "root"}}},
	}
	g := newGraphFetcher(docs)
	loader, err := NewLoader(g.fetch, Params{MaxDepth: 5, MaxLists: 10, SiblingParallelism: 2})
	require.NoError(t, err)

	events := collect(loader.Load(context.Background(), "root"))
	require.Len(t, byKind(events, Primary), 1)
	problems := byKind(events, Problem)
	require.Len(t, problems, 1)
	require.Equal(t, CircularReferenceDetected, problems[0].ProblemKind)
}

func TestLoaderRateLimiterCancellationSurfacesAsFetchError(t *testing.T) {
	docs := map[string]*LoTE{
		"root": {PointersToOther: []Pointer{{Location: "a"}}},
		"a":    {},
	}
	g := newGraphFetcher(docs)
	loader, err := NewLoader(g.fetch, Params{
		MaxDepth:           5,
		MaxLists:           10,
		SiblingParallelism: 1,
		RateLimit:          rate.NewLimiter(rate.Every(time.Hour), 1),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collect(loader.Load(ctx, "root"))
	require.Empty(t, byKind(events, Primary), "a canceled context must prevent even the root fetch")

	problems := byKind(events, Problem)
	require.Len(t, problems, 1)
	require.Equal(t, FetchError, problems[0].ProblemKind)
	require.ErrorIs(t, problems[0].Cause, context.Canceled)
	require.Equal(t, 0, g.callCount("root"), "the rate limiter must block the fetch before it is ever attempted")
}
