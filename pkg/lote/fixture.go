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
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseFixture decodes a YAML-encoded LoTE document. This is not used to
// parse the real ETSI wire format (the caller's Fetcher owns that); it
// exists so tests and local tooling can describe a LoTE document as a
// YAML fixture instead of a Go struct literal, the way Kubernetes manifest
// fixtures are authored throughout this codebase's lineage.
func ParseFixture(data []byte) (*LoTE, error) {
	var l LoTE
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("lote: parsing YAML fixture: %w", err)
	}
	return &l, nil
}
