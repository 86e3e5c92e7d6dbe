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
	"crypto/x509"
	"fmt"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/eudiw/lote-trust-core/pkg/anchor"
	"github.com/eudiw/lote-trust-core/pkg/verification"
)

// ProjectAnchors concatenates, in declaration order and with duplicates
// preserved, every digital_identity.x509_certificates across every service
// whose type_identifier equals serviceType, across every entity in l. An
// empty concatenation reports ok=false, never an empty NonEmpty.
func ProjectAnchors(l *LoTE, serviceType verification.ServiceTypeId) (anchor.NonEmpty[CertificateObject], bool) {
	var certs []CertificateObject
	for _, entity := range l.Entities {
		for _, svc := range entity.Services {
			if svc.Information.TypeIdentifier != serviceType {
				continue
			}
			certs = append(certs, svc.Information.DigitalIdentity.X509Certificates...)
		}
	}
	if len(certs) == 0 {
		return anchor.NonEmpty[CertificateObject]{}, false
	}
	return anchor.MustNonEmpty(certs), true
}

// ParseCertificates decodes a CertificateObject (PEM or DER, whichever the
// LoTE document carried) into usable *x509.Certificate values, via
// sigstore/sigstore's cryptoutils, the same helper used for Fulcio/Rekor/
// CTLog key material elsewhere in the sigstore ecosystem.
func ParseCertificates(obj CertificateObject) ([]*x509.Certificate, error) {
	if certs, err := cryptoutils.UnmarshalCertificatesFromPEM(obj); err == nil && len(certs) > 0 {
		return certs, nil
	}
	cert, err := x509.ParseCertificate(obj)
	if err != nil {
		return nil, fmt.Errorf("lote: certificate is neither valid PEM nor DER: %w", err)
	}
	return []*x509.Certificate{cert}, nil
}

// FromLoTEs builds a SupportedQueries[verification.Context, CertificateObject]
// by, for each profile whose LoTE is present in lotes, projecting
// purposeToService's mapping for that profile's purpose set into a fresh
// anchor.Source restricted to those purposes, then disjoint-unioning the
// results.
func FromLoTEs(lotes map[verification.ProfileKey]*LoTE, table verification.Table, purposes []verification.Context) (anchor.SupportedQueries[verification.Context, CertificateObject], error) {
	byProfile := make(map[verification.ProfileKey][]verification.Context)
	for _, purpose := range purposes {
		binding, ok := table.ProfileOf(purpose)
		if !ok {
			continue // purpose has no static binding; not this constructor's concern.
		}
		byProfile[binding.Profile] = append(byProfile[binding.Profile], purpose)
	}

	var groups []anchor.Group[verification.Context, CertificateObject]
	for profile, purposesForProfile := range byProfile {
		l, present := lotes[profile]
		if !present {
			continue // no loaded LoTE for this profile; its purposes simply have no source.
		}
		l := l // capture
		src := anchor.NewSource(func(_ context.Context, purpose verification.Context) (anchor.NonEmpty[CertificateObject], bool, error) {
			binding, ok := table.ProfileOf(purpose)
			if !ok {
				return anchor.NonEmpty[CertificateObject]{}, false, nil
			}
			return ProjectAnchors(l, binding.ServiceType)
		})
		groups = append(groups, anchor.Group[verification.Context, CertificateObject]{
			Queries: purposesForProfile,
			Source:  src,
		})
	}
	return anchor.New(groups...)
}
