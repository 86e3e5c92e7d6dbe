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
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/eudiw/lote-trust-core/pkg/logging"
)

// Fetcher retrieves and parses the LoTE document at uri. It may suspend
// and may fail; this is the only network/parsing boundary the core
// depends on.
type Fetcher func(ctx context.Context, uri string) (*LoTE, error)

// Params configures one Loader. RateLimit is optional (nil means
// unthrottled) and paces fetch calls across the whole traversal, not
// per-chunk.
type Params struct {
	MaxDepth           int
	MaxLists           int
	SiblingParallelism int
	RateLimit          *rate.Limiter
}

func (p Params) validate() error {
	if p.MaxDepth < 1 {
		return fmt.Errorf("lote: max_depth must be >= 1, got %d", p.MaxDepth)
	}
	if p.MaxLists < 1 {
		return fmt.Errorf("lote: max_lists must be >= 1, got %d", p.MaxLists)
	}
	if p.SiblingParallelism < 1 {
		return fmt.Errorf("lote: sibling_parallelism must be >= 1, got %d", p.SiblingParallelism)
	}
	return nil
}

// Loader performs the bounded, pre-order traversal of a LoTE and its
// pointers-to-other.
type Loader struct {
	fetch  Fetcher
	params Params
}

// NewLoader validates params eagerly and returns a Loader.
func NewLoader(fetch Fetcher, params Params) (*Loader, error) {
	if fetch == nil {
		return nil, fmt.Errorf("lote: fetch must not be nil")
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Loader{fetch: fetch, params: params}, nil
}

// Load starts one traversal from uri and returns the finite event stream
// described by LoadResult. The channel is closed when the traversal (and
// all its recursive sibling tasks) completes. Cancelling ctx propagates to
// every in-flight fetch still outstanding; events already sent remain
// valid. Events are sent with blocking sends, so a caller that cancels ctx
// must keep draining the channel until it closes; a step still mid-flight
// otherwise blocks on its send forever.
func (l *Loader) Load(ctx context.Context, uri string) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		var loadedCount atomic.Int64
		l.step(ctx, uri, 0, nil, &loadedCount, out)
	}()
	return out
}

// step implements one node of the traversal. It blocks until its entire
// subtree (including all sibling chunks) has finished, so the caller's
// chunk-level sync.WaitGroup correctly awaits full completion before the
// next chunk starts.
//
// Every branch below sends exactly one Event on out before returning (or
// recursing). These sends are unconditional, blocking channel sends: Load's
// contract requires the caller to keep draining the channel until it
// closes, even after cancelling ctx, precisely so that "partially emitted
// events remain valid" holds. A caller that cancels ctx and then abandons
// the channel before it closes leaves any step still mid-flight blocked on
// its send; see Load's doc comment.
func (l *Loader) step(ctx context.Context, uri string, depth int, visiting *pathSet, loadedCount *atomic.Int64, out chan<- Event) {
	log := logging.FromContext(ctx)

	if depth > l.params.MaxDepth {
		out <- maxDepthEvent(uri, l.params.MaxDepth)
		log.Warnw("lote: max depth reached", "uri", uri, "maxDepth", l.params.MaxDepth)
		return
	}

	if !l.reserveSlot(loadedCount) {
		out <- maxListsEvent(uri, l.params.MaxLists)
		log.Warnw("lote: max lists reached", "uri", uri, "maxLists", l.params.MaxLists)
		return
	}

	if visiting.has(uri) {
		loadedCount.Add(-1) // release the reservation; this step loads nothing.
		out <- circularEvent(uri)
		log.Warnw("lote: circular reference detected", "uri", uri)
		return
	}
	visiting = visiting.with(uri)

	if l.params.RateLimit != nil {
		if err := l.params.RateLimit.Wait(ctx); err != nil {
			loadedCount.Add(-1)
			out <- errorEvent(uri, err)
			log.Errorw("lote: rate limiter wait failed", "uri", uri, "error", err)
			return
		}
	}

	doc, err := l.fetch(ctx, uri)
	if err != nil {
		loadedCount.Add(-1)
		out <- errorEvent(uri, err)
		log.Errorw("lote: fetch failed", "uri", uri, "error", err)
		return
	}

	if depth == 0 {
		out <- primaryEvent(doc, uri)
	} else {
		out <- otherEvent(doc, uri, depth)
	}
	log.Debugw("lote: loaded list", "uri", uri, "depth", depth, "pointers", len(doc.PointersToOther))

	l.recurseChunked(ctx, doc.PointersToOther, depth+1, visiting, loadedCount, out)
}

// reserveSlot atomically claims one of MaxLists slots via a CAS loop,
// returning false if the bound has already been reached. This keeps the
// "at most max_lists successful loads" property exact under concurrent
// sibling tasks racing the same counter, while still counting a slot
// against the bound only for the duration a fetch might succeed; a cycle
// short-circuit, a failed rate-limiter wait or a failed fetch releases its
// reservation. The depth check runs before any slot is reserved.
func (l *Loader) reserveSlot(loadedCount *atomic.Int64) bool {
	for {
		cur := loadedCount.Load()
		if cur >= int64(l.params.MaxLists) {
			return false
		}
		if loadedCount.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// recurseChunked partitions pointers into fixed-size chunks of
// SiblingParallelism, running one goroutine per pointer within a chunk and
// awaiting the whole chunk before starting the next (declaration order
// across chunks, arbitrary interleaving within one). A plain
// sync.WaitGroup is used rather than golang.org/x/sync/errgroup: errgroup
// cancels every sibling's context on the first child error, which would
// make sibling task failures dependent on one another instead of
// independent.
func (l *Loader) recurseChunked(ctx context.Context, pointers []Pointer, depth int, visiting *pathSet, loadedCount *atomic.Int64, out chan<- Event) {
	chunkSize := l.params.SiblingParallelism
	for start := 0; start < len(pointers); start += chunkSize {
		end := start + chunkSize
		if end > len(pointers) {
			end = len(pointers)
		}
		chunk := pointers[start:end]

		var wg sync.WaitGroup
		wg.Add(len(chunk))
		for _, p := range chunk {
			p := p
			go func() {
				defer wg.Done()
				l.step(ctx, p.Location, depth, visiting, loadedCount, out)
			}()
		}
		wg.Wait()
	}
}
