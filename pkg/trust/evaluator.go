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

// Package trust implements the chain-trust evaluator: it combines a
// per-purpose anchor.Source with a pluggable chain validator to produce a
// tri-valued outcome, with optional once-only recovery on a negative
// result.
package trust

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/eudiw/lote-trust-core/pkg/anchor"
	"github.com/eudiw/lote-trust-core/pkg/logging"
	"github.com/eudiw/lote-trust-core/pkg/verification"
)

// Unit is the query type for a per-purpose anchor.Source: the purpose is
// already baked into which Source is looked up, so the source itself
// takes no further query parameter.
type Unit struct{}

// ChainValidation is the validator's own result: either the chain is
// trusted under a specific anchor, or it is not, with a cause.
type ChainValidation[A any] struct {
	ok     bool
	anchor A
	cause  error
}

// TrustedResult constructs a Trusted(anchor) outcome.
func TrustedResult[A any](a A) ChainValidation[A] {
	return ChainValidation[A]{ok: true, anchor: a}
}

// NotTrustedResult constructs a NotTrusted(cause) outcome. cause must not
// be nil: a NotTrusted with no cause is a validator bug.
func NotTrustedResult[A any](cause error) ChainValidation[A] {
	if cause == nil {
		cause = fmt.Errorf("trust: validator reported NotTrusted with a nil cause")
	}
	return ChainValidation[A]{ok: false, cause: cause}
}

// Trusted reports whether this is a Trusted(anchor) outcome.
func (c ChainValidation[A]) Trusted() bool { return c.ok }

// Anchor returns the terminating anchor. Only meaningful when Trusted().
func (c ChainValidation[A]) Anchor() A { return c.anchor }

// Cause returns the rejection cause. Only meaningful when !Trusted().
func (c ChainValidation[A]) Cause() error { return c.cause }

// Validator decides whether chain terminates in one of anchors.
// Implementations must catch their own failures and report them as
// NotTrustedResult; the signature has no error return because the
// contract forbids throwing.
type Validator[C any, A any] func(ctx context.Context, chain C, anchors anchor.NonEmpty[A]) ChainValidation[A]

// RecoveryFunc is consulted on a NotTrusted outcome for a purpose that has
// one configured. It may offer an alternative anchor set to retry
// validation against; ok=false declines to recover.
type RecoveryFunc[A any] func(ctx context.Context, cause error) (alt anchor.NonEmpty[A], ok bool, err error)

// Outcome is evaluate's tri-/tetra-valued result: Configured=false means
// NotConfigured (the purpose has no anchor source); otherwise Validation
// holds the Trusted/NotTrusted result.
type Outcome[A any] struct {
	Configured bool
	Validation ChainValidation[A]
}

// Evaluator combines a Validator with a per-purpose anchor source map and
// optional per-purpose recovery.
type Evaluator[C any, A any] struct {
	validate Validator[C, A]
	anchors  map[verification.Context]anchor.Source[Unit, A]
	recovery map[verification.Context]RecoveryFunc[A]
}

// New constructs an Evaluator from a validator and a purpose->anchor
// source map. recovery may be nil.
func New[C any, A any](validate Validator[C, A], anchorsByPurpose map[verification.Context]anchor.Source[Unit, A], recovery map[verification.Context]RecoveryFunc[A]) *Evaluator[C, A] {
	return &Evaluator[C, A]{validate: validate, anchors: anchorsByPurpose, recovery: recovery}
}

// Evaluate looks up the purpose's anchor source (NotConfigured if
// absent), obtains its non-empty anchor set (a configuration error if
// empty), invokes the validator, and, on NotTrusted with a configured
// recovery, retries at most once against the recovered anchor set.
func (e *Evaluator[C, A]) Evaluate(ctx context.Context, chain C, purpose verification.Context) (Outcome[A], error) {
	log := logging.FromContext(ctx)

	src, configured := e.anchors[purpose]
	if !configured {
		return Outcome[A]{Configured: false}, nil
	}

	anchors, found, err := src.Get(ctx, Unit{})
	if err != nil {
		return Outcome[A]{}, fmt.Errorf("trust: fetching anchors for %s: %w", purpose, err)
	}
	if !found {
		// Contract violation: a configured purpose whose source yields no
		// anchors. Fail loud, never silently NotTrusted.
		return Outcome[A]{}, fmt.Errorf("trust: purpose %s is configured but its anchor source returned no anchors (misconfigured source)", purpose)
	}

	result := e.validate(ctx, chain, anchors)
	if result.Trusted() {
		return Outcome[A]{Configured: true, Validation: result}, nil
	}

	recover, hasRecovery := e.recovery[purpose]
	if !hasRecovery {
		return Outcome[A]{Configured: true, Validation: result}, nil
	}

	alt, ok, err := recover(ctx, result.Cause())
	if err != nil || !ok {
		if err != nil {
			log.Warnw("trust: recovery declined due to error, propagating original cause", zap.String("purpose", purpose.String()), zap.Error(err))
		}
		return Outcome[A]{Configured: true, Validation: result}, nil
	}

	recovered := e.validate(ctx, chain, alt)
	if recovered.Trusted() {
		return Outcome[A]{Configured: true, Validation: recovered}, nil
	}
	// Recovery also NotTrusted: the original cause is returned rather than
	// the recovery's own cause, so a caller always sees why the primary
	// anchor set rejected the chain.
	log.Debugw("trust: recovery also not trusted, returning original cause", zap.String("purpose", purpose.String()))
	return Outcome[A]{Configured: true, Validation: result}, nil
}

// Compose merges e and other's purpose maps. Where both configure the
// same purpose, other's entry wins, matching ordinary Go map-merge idiom,
// rather than requiring disjointness.
func (e *Evaluator[C, A]) Compose(other *Evaluator[C, A]) *Evaluator[C, A] {
	anchors := make(map[verification.Context]anchor.Source[Unit, A], len(e.anchors)+len(other.anchors))
	for k, v := range e.anchors {
		anchors[k] = v
	}
	for k, v := range other.anchors {
		anchors[k] = v
	}
	recovery := make(map[verification.Context]RecoveryFunc[A], len(e.recovery)+len(other.recovery))
	for k, v := range e.recovery {
		recovery[k] = v
	}
	for k, v := range other.recovery {
		recovery[k] = v
	}
	// The composed validator prefers other's, since other's anchors and
	// recovery took priority above; a composed evaluator over two distinct
	// validator implementations is an unusual shape, so favoring `other`
	// throughout keeps the merge self-consistent.
	return &Evaluator[C, A]{validate: other.validate, anchors: anchors, recovery: recovery}
}

// ContraMap wraps validate so that a caller's alternative chain
// representation C2 can be validated by an Evaluator built for C. Free
// function, not a method, for the same reason as anchor.ContraMap.
func ContraMap[C2 any, C any, A any](e *Evaluator[C, A], h func(C2) C) *Evaluator[C2, A] {
	wrapped := func(ctx context.Context, chain C2, anchors anchor.NonEmpty[A]) ChainValidation[A] {
		return e.validate(ctx, h(chain), anchors)
	}
	return &Evaluator[C2, A]{validate: wrapped, anchors: e.anchors, recovery: e.recovery}
}

// CombineErrors aggregates causes from more than one contributing
// evaluation (e.g. diagnosing a composed Evaluator where recovery across
// several sub-evaluators each failed) into a single error via
// hashicorp/go-multierror, so callers can type-assert *multierror.Error to
// inspect each contributing cause individually.
func CombineErrors(causes ...error) error {
	var merr *multierror.Error
	for _, c := range causes {
		if c != nil {
			merr = multierror.Append(merr, c)
		}
	}
	return merr.ErrorOrNil()
}
