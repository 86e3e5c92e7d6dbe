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

// Package lote implements the recursive List-of-Trusted-Entities loader
// and the per-purpose trust-anchor projector. It consumes already-parsed
// LoTE documents; parsing the wire format (JWT, JSON, the ETSI profile
// schema) is the caller's responsibility.
package lote

import "github.com/eudiw/lote-trust-core/pkg/verification"

// CertificateObject is a raw certificate as carried by a LoTE document:
// DER or PEM bytes, the core does not care which. Use ParseCertificates
// to obtain *x509.Certificate values.
type CertificateObject []byte

// DigitalIdentity holds the certificates a Service advertises for the
// identity it describes.
type DigitalIdentity struct {
	X509Certificates []CertificateObject `yaml:"x509Certificates"`
}

// ServiceInformation carries the fields the projector cares about: which
// service type this entry is (issuance vs. revocation, etc.) and the
// certificates backing it.
type ServiceInformation struct {
	TypeIdentifier  verification.ServiceTypeId `yaml:"typeIdentifier"`
	DigitalIdentity DigitalIdentity            `yaml:"digitalIdentity"`
}

// Service wraps ServiceInformation; the real ETSI profile carries
// additional fields (service status, history) the core does not consume.
type Service struct {
	Information ServiceInformation `yaml:"information"`
}

// TrustedEntity is one entry in a LoTE's entities sequence.
type TrustedEntity struct {
	Services []Service `yaml:"services"`
}

// Pointer references another LoTE document.
type Pointer struct {
	Location string `yaml:"location"`
}

// LoTE is the abstract shape the core consumes. It is immutable once
// loaded; ownership is shared freely by whoever holds a reference, and
// projecting anchors from it is a cheap, pure read.
type LoTE struct {
	SchemeType      string          `yaml:"schemeType"`
	PointersToOther []Pointer       `yaml:"pointersToOther"`
	Entities        []TrustedEntity `yaml:"entities"`
}
