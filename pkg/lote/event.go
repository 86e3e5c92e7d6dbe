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

// EventKind tags an Event's variant.
type EventKind int

const (
	// Primary is emitted at most once per traversal, as the first event,
	// when the root document loads; a traversal whose root fetch fails
	// emits none.
	Primary EventKind = iota
	// Other is emitted for each successfully loaded referenced list.
	Other
	// Problem is emitted for bound violations and fetch failures; the
	// specific ProblemKind distinguishes which.
	Problem
)

// ProblemKind distinguishes the four ways a traversal step can fail to
// produce a loaded list.
type ProblemKind int

const (
	MaxDepthReached ProblemKind = iota
	MaxListsReached
	CircularReferenceDetected
	FetchError
)

func (k ProblemKind) String() string {
	switch k {
	case MaxDepthReached:
		return "MaxDepthReached"
	case MaxListsReached:
		return "MaxListsReached"
	case CircularReferenceDetected:
		return "CircularReferenceDetected"
	case FetchError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Event is one item of a LoadResult event stream. Exactly one of the
// EventKind-specific fields is meaningful, selected by Kind.
type Event struct {
	Kind EventKind

	// Populated for Primary and Other.
	LoTE  *LoTE
	URI   string
	Depth int // 0 for Primary, >= 1 for Other.

	// Populated for Problem.
	ProblemKind ProblemKind
	Limit       int   // the max_depth/max_lists value that was hit.
	Cause       error // populated only for FetchError.
}

func primaryEvent(l *LoTE, uri string) Event {
	return Event{Kind: Primary, LoTE: l, URI: uri}
}

func otherEvent(l *LoTE, uri string, depth int) Event {
	return Event{Kind: Other, LoTE: l, URI: uri, Depth: depth}
}

func maxDepthEvent(uri string, limit int) Event {
	return Event{Kind: Problem, ProblemKind: MaxDepthReached, URI: uri, Limit: limit}
}

func maxListsEvent(uri string, limit int) Event {
	return Event{Kind: Problem, ProblemKind: MaxListsReached, URI: uri, Limit: limit}
}

func circularEvent(uri string) Event {
	return Event{Kind: Problem, ProblemKind: CircularReferenceDetected, URI: uri}
}

func errorEvent(uri string, cause error) Event {
	return Event{Kind: Problem, ProblemKind: FetchError, URI: uri, Cause: cause}
}
