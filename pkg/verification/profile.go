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

package verification

import "strings"

// ServiceTypeId is an opaque URI-valued string identifying, within one
// LoTE profile, which service a ServiceInformation entry describes
// (issuance vs. revocation).
type ServiceTypeId string

// ProfileKey names the LoTE profile (e.g. "PID providers") whose trust
// list supplies a purpose's anchors. It is caller-defined; the core treats
// it as an opaque lookup key into a caller-supplied map of loaded LoTEs.
type ProfileKey string

// Flavor selects between a profile's two advertised service-type
// identifiers.
type Flavor int

const (
	Issuance Flavor = iota
	Revocation
)

// ProfileBinding is one row of the static purpose -> profile/flavor table.
type ProfileBinding struct {
	Profile ProfileKey
	Flavor  Flavor
	// ServiceType is the service-type identifier this purpose's profile
	// advertises for Flavor. It is part of the static table, not inferred
	// from any loaded LoTE document's declaration order.
	ServiceType ServiceTypeId
	// DisplayName and SchemeTerritory are additive diagnostic metadata
	// carried for callers; they are never consulted when selecting
	// anchors, and no code in this module reads them.
	DisplayName     string
	SchemeTerritory string
}

// flavorOf is mechanical: a purpose whose Kind name ends in "Status"
// selects Revocation; everything else selects Issuance.
func flavorOf(k Kind) Flavor {
	if strings.HasSuffix(k.String(), "Status") {
		return Revocation
	}
	return Issuance
}

// Table is the static purpose -> (profile, flavor) binding. It is built
// once via NewTable and is immutable thereafter.
type Table struct {
	fixed   map[Kind]ProfileBinding
	eaa     ProfileBinding
	eaaStat ProfileBinding
}

// ProfileOf looks up the binding for a Context. EAA/EAAStatus share one
// binding per Kind regardless of use case: the use case does not change
// the profile, flavor or service type, so pkg/lote.FromLoTEs projects the
// same anchors for every EAA(x) (and likewise for every EAAStatus(x)).
func (t Table) ProfileOf(c Context) (ProfileBinding, bool) {
	switch c.Kind() {
	case EAA:
		return t.eaa, t.eaa.Profile != ""
	case EAAStatus:
		return t.eaaStat, t.eaaStat.Profile != ""
	case Custom:
		return ProfileBinding{}, false
	default:
		b, ok := t.fixed[c.Kind()]
		return b, ok
	}
}

// TableEntry configures one fixed Kind's binding when building a Table.
// ServiceType is the identifier the Kind's profile advertises for the
// flavor flavorOf(Kind) selects; it comes from the profile's own
// configuration, never from a loaded LoTE document.
type TableEntry struct {
	Kind            Kind
	Profile         ProfileKey
	ServiceType     ServiceTypeId
	DisplayName     string
	SchemeTerritory string
}

// NewTable builds the static table from fixed-kind entries plus the EAA
// and EAAStatus profile/service-type (use-case-independent). Flavor is
// derived mechanically from each Kind's name, never passed in.
func NewTable(entries []TableEntry, eaaProfile ProfileKey, eaaServiceType ServiceTypeId, eaaStatusProfile ProfileKey, eaaStatusServiceType ServiceTypeId) Table {
	fixed := make(map[Kind]ProfileBinding, len(entries))
	for _, e := range entries {
		fixed[e.Kind] = ProfileBinding{
			Profile:         e.Profile,
			Flavor:          flavorOf(e.Kind),
			ServiceType:     e.ServiceType,
			DisplayName:     e.DisplayName,
			SchemeTerritory: e.SchemeTerritory,
		}
	}
	return Table{
		fixed:   fixed,
		eaa:     ProfileBinding{Profile: eaaProfile, Flavor: flavorOf(EAA), ServiceType: eaaServiceType},
		eaaStat: ProfileBinding{Profile: eaaStatusProfile, Flavor: flavorOf(EAAStatus), ServiceType: eaaStatusServiceType},
	}
}
