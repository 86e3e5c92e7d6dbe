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

import "github.com/eudiw/lote-trust-core/pkg/config"

// NewLoaderFromEnv builds a Loader using pkg/config's envconfig-sourced
// Defaults for Params. This is purely a convenience on top of NewLoader;
// it never reads the environment itself when the caller already has
// explicit Params; use NewLoader directly for that path.
func NewLoaderFromEnv(fetch Fetcher) (*Loader, error) {
	d, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	return NewLoader(fetch, Params{
		MaxDepth:           d.MaxDepth,
		MaxLists:           d.MaxLists,
		SiblingParallelism: d.SiblingParallelism,
	})
}
