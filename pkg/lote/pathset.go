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

// pathSet is the DFS-local "visiting" set, realized as an immutable
// cons-list rather than a shared mutable set guarded by a lock. Each
// recursive call receives its own *pathSet and extends it with `with`,
// which allocates a new node rather than mutating the caller's, so
// sibling goroutines sharing the same parent pointer never race, and
// nothing needs to be "removed on exit": the extended set simply falls
// out of scope when that call returns, which is exactly equivalent to an
// explicit insert-then-remove and is why the same URI reachable through
// two sibling branches is fetched twice. This is intentional, not a bug:
// each branch's cycle check only concerns itself with its own ancestry.
type pathSet struct {
	uri    string
	parent *pathSet
}

// has reports whether uri is on the path from the root to this node. A nil
// receiver represents the empty set.
func (p *pathSet) has(uri string) bool {
	for n := p; n != nil; n = n.parent {
		if n.uri == uri {
			return true
		}
	}
	return false
}

// with returns a new pathSet extending p with uri.
func (p *pathSet) with(uri string) *pathSet {
	return &pathSet{uri: uri, parent: p}
}
