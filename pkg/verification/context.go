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

// Package verification defines the closed set of verification purposes
// the wallet ecosystem recognizes, and the static table mapping each
// purpose to the profile and service-type flavor that supplies its
// anchors.
package verification

import "fmt"

// Kind enumerates the fixed and parameterized VerificationContext variants.
type Kind int

const (
	WalletInstanceAttestation Kind = iota
	WalletUnitAttestation
	WalletUnitAttestationStatus
	PID
	PIDStatus
	PubEAA
	PubEAAStatus
	QEAA
	QEAAStatus
	WalletRelyingPartyRegistrationCertificate
	WalletRelyingPartyAccessCertificate
	EAA
	EAAStatus
	Custom
)

var kindNames = map[Kind]string{
	WalletInstanceAttestation:                 "WalletInstanceAttestation",
	WalletUnitAttestation:                      "WalletUnitAttestation",
	WalletUnitAttestationStatus:                "WalletUnitAttestationStatus",
	PID:                                        "PID",
	PIDStatus:                                  "PIDStatus",
	PubEAA:                                     "PubEAA",
	PubEAAStatus:                               "PubEAAStatus",
	QEAA:                                       "QEAA",
	QEAAStatus:                                 "QEAAStatus",
	WalletRelyingPartyRegistrationCertificate:  "WalletRelyingPartyRegistrationCertificate",
	WalletRelyingPartyAccessCertificate:        "WalletRelyingPartyAccessCertificate",
	EAA:                                        "EAA",
	EAAStatus:                                  "EAAStatus",
	Custom:                                     "Custom",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// parameterized reports whether a Kind carries a use-case string.
func (k Kind) parameterized() bool {
	return k == EAA || k == EAAStatus || k == Custom
}

// Context is a closed tagged union over verification purposes. It is a
// small comparable struct (an int tag plus a string), so Go's native
// equality and map-key hashing give structural equality for free, no
// hand-written Equals/HashCode needed.
type Context struct {
	kind    Kind
	useCase string
}

// New constructs a Context for a fixed (non-parameterized) Kind. Passing a
// parameterized Kind (EAA, EAAStatus, Custom) is a programmer error and
// panics, since those always require a use case: use EAAContext,
// EAAStatusContext, or CustomContext instead.
func New(k Kind) Context {
	if k.parameterized() {
		panic(fmt.Sprintf("verification: Kind %s requires a use case; use the parameterized constructor", k))
	}
	return Context{kind: k}
}

// EAAContext constructs EAA(useCase). useCase must be non-empty.
func EAAContext(useCase string) (Context, error) {
	if useCase == "" {
		return Context{}, fmt.Errorf("verification: EAA use case must not be empty")
	}
	return Context{kind: EAA, useCase: useCase}, nil
}

// EAAStatusContext constructs EAAStatus(useCase). useCase must be
// non-empty. EAA(x) and EAAStatus(x) are always paired for the same
// non-empty x; callers that build one typically build the other
// alongside it (see attestation.Dispatcher).
func EAAStatusContext(useCase string) (Context, error) {
	if useCase == "" {
		return Context{}, fmt.Errorf("verification: EAAStatus use case must not be empty")
	}
	return Context{kind: EAAStatus, useCase: useCase}, nil
}

// CustomContext constructs Custom(useCase). useCase must be non-empty.
func CustomContext(useCase string) (Context, error) {
	if useCase == "" {
		return Context{}, fmt.Errorf("verification: Custom use case must not be empty")
	}
	return Context{kind: Custom, useCase: useCase}, nil
}

// Kind returns the variant tag.
func (c Context) Kind() Kind { return c.kind }

// UseCase returns the parameterized use case, or "" for fixed variants.
func (c Context) UseCase() string { return c.useCase }

// String renders a debug form, e.g. "PID" or "EAA(mdl)".
func (c Context) String() string {
	if c.kind.parameterized() {
		return fmt.Sprintf("%s(%s)", c.kind, c.useCase)
	}
	return c.kind.String()
}
