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

// Package attestation implements the attestation dispatcher: it
// classifies a structural attestation identifier into the (issuance,
// revocation) verification-purpose pair that governs it, then delegates
// to pkg/trust.
package attestation

import (
	"context"

	"github.com/eudiw/lote-trust-core/pkg/trust"
	"github.com/eudiw/lote-trust-core/pkg/verification"
)

// Format tags an AttestationID's concrete shape.
type Format int

const (
	Mdoc Format = iota
	SDJWTVC
	// KeyAttn: a wallet-unit attestation is carried as a raw attested key,
	// not an mdoc or SD-JWT-VC wrapper, so it needs its own structural tag
	// to dispatch WalletUnitAttestation(Status).
	KeyAttn
)

// AttestationID is the structural tag of an attestation: mdoc(docType),
// sdjwtvc(vct), or keyattn(format).
type AttestationID struct {
	format Format
	value  string // docType, vct, or key-attestation format, per Format.
}

func NewMdoc(docType string) AttestationID   { return AttestationID{format: Mdoc, value: docType} }
func NewSDJWTVC(vct string) AttestationID    { return AttestationID{format: SDJWTVC, value: vct} }
func NewKeyAttn(format string) AttestationID { return AttestationID{format: KeyAttn, value: format} }

func (id AttestationID) Format() Format { return id.format }
func (id AttestationID) Value() string  { return id.value }

// Predicate classifies an AttestationID.
type Predicate func(AttestationID) bool

// EAAClassification pairs one use case with its predicate. A slice, not a
// map, so "first matching classification" has a well-defined order.
type EAAClassification struct {
	UseCase   string
	Predicate Predicate
}

// Classifications is the full set of predicates the dispatcher consults,
// in the fixed order PIDs, PubEAAs, QEAAs, KeyAttns, then EAAs in slice
// order.
type Classifications struct {
	PIDs     Predicate
	PubEAAs  Predicate
	QEAAs    Predicate
	KeyAttns Predicate
	EAAs     []EAAClassification
}

// Dispatcher yields (issuance_purpose, revocation_purpose) for an
// AttestationID using the first matching classification.
type Dispatcher struct {
	classifications Classifications
}

// New constructs a Dispatcher from a fixed classification set.
func New(c Classifications) Dispatcher {
	return Dispatcher{classifications: c}
}

// Purposes classifies id and returns the (issuance, revocation) pair.
// ok=false means no classification matched.
func (d Dispatcher) Purposes(id AttestationID) (issuance, revocation verification.Context, ok bool) {
	c := d.classifications
	switch {
	case c.PIDs != nil && c.PIDs(id):
		return verification.New(verification.PID), verification.New(verification.PIDStatus), true
	case c.PubEAAs != nil && c.PubEAAs(id):
		return verification.New(verification.PubEAA), verification.New(verification.PubEAAStatus), true
	case c.QEAAs != nil && c.QEAAs(id):
		return verification.New(verification.QEAA), verification.New(verification.QEAAStatus), true
	case c.KeyAttns != nil && c.KeyAttns(id):
		return verification.New(verification.WalletUnitAttestation), verification.New(verification.WalletUnitAttestationStatus), true
	}
	for _, e := range c.EAAs {
		if e.Predicate != nil && e.Predicate(id) {
			issuance, err := verification.EAAContext(e.UseCase)
			if err != nil {
				continue
			}
			revocation, err := verification.EAAStatusContext(e.UseCase)
			if err != nil {
				continue
			}
			return issuance, revocation, true
		}
	}
	return verification.Context{}, verification.Context{}, false
}

// Evaluate classifies id, picks the issuance or revocation purpose
// according to flavor, and delegates to evaluator.Evaluate. matched=false
// (with a zero Outcome) means no classification matched id.
func Evaluate[C any, A any](ctx context.Context, d Dispatcher, evaluator *trust.Evaluator[C, A], chain C, id AttestationID, flavor verification.Flavor) (outcome trust.Outcome[A], matched bool, err error) {
	issuance, revocation, ok := d.Purposes(id)
	if !ok {
		return trust.Outcome[A]{}, false, nil
	}
	purpose := issuance
	if flavor == verification.Revocation {
		purpose = revocation
	}
	o, err := evaluator.Evaluate(ctx, chain, purpose)
	return o, true, err
}
