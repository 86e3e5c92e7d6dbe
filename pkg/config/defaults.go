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

// Package config provides an optional, envconfig-driven convenience
// layer for choosing Loader/Cache defaults. The core itself has no
// environment coupling: configuration is purely by constructor
// arguments. This package exists only so an adapter can build those
// constructor arguments from the process environment if it wants to,
// the way a webhook binary might configure itself via
// kelseyhightower/envconfig.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/eudiw/lote-trust-core/pkg/anchor"
)

// Defaults holds the loader/cache parameters an adapter may source from
// the environment instead of hard-coding them.
type Defaults struct {
	MaxDepth           int           `envconfig:"LOTE_MAX_DEPTH" default:"5"`
	MaxLists           int           `envconfig:"LOTE_MAX_LISTS" default:"200"`
	SiblingParallelism int           `envconfig:"LOTE_SIBLING_PARALLELISM" default:"4"`
	CacheTTL           time.Duration `envconfig:"LOTE_CACHE_TTL" default:"15m"`
	CacheCapacity      int           `envconfig:"LOTE_CACHE_CAPACITY" default:"256"`
}

// FromEnv reads Defaults from the process environment, applying the
// struct tag defaults for anything unset. envconfig joins the "lote"
// prefix to each tag, so a field is read from e.g. LOTE_LOTE_MAX_DEPTH
// first and, when that is unset, from the tag name itself (LOTE_MAX_DEPTH).
func FromEnv() (Defaults, error) {
	var d Defaults
	if err := envconfig.Process("lote", &d); err != nil {
		return Defaults{}, err
	}
	return d, nil
}

// CachedFromEnv wraps s with an asynccache.Cache sized and aged from the
// process environment (LOTE_CACHE_TTL, LOTE_CACHE_CAPACITY), the Source-level
// counterpart to pkg/lote.NewLoaderFromEnv. Declared here rather than on
// anchor.Source itself because Go methods cannot introduce the type
// parameters anchor.Cached needs.
func CachedFromEnv[Q comparable, A any](s anchor.Source[Q, A]) (anchor.Source[Q, A], error) {
	d, err := FromEnv()
	if err != nil {
		return anchor.Source[Q, A]{}, err
	}
	return anchor.Cached(s, d.CacheTTL, d.CacheCapacity)
}
