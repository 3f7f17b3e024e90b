/*
 *
 * Copyright 2024 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package deltasub

import (
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
)

// Resource is one entry of a delta response's resources field (spec §6).
type Resource struct {
	Name    string
	Version string
	Aliases []string
	TTL     *durationpb.Duration
	// Payload is nil for alias-only entries and for heartbeats; present
	// otherwise. The core never looks inside it — decoding belongs to the
	// collaborator upstream of this package (spec §1).
	Payload *anypb.Any
}

func (r Resource) hasPayload() bool { return r.Payload != nil }

// Response is a decoded incremental discovery response (spec §6).
type Response struct {
	TypeURL            string
	SystemVersionInfo  string
	Nonce              string
	Resources          []Resource
	RemovedResources   []string
}

// validatedResponse is the outcome of the pre-mutation validation pass
// (spec §9's "re-architecture of exception-driven validation" into an
// explicit result-typed pass). Only a valid response is ever applied to
// the resource table.
type validatedResponse struct {
	nonHeartbeat []Resource // resources to forward to the watcher, in response order
}

// validate runs every structural check from spec §4.5 (V1-V3) against
// resp, without mutating table. heartbeatsEnabled gates heartbeat
// classification per spec §6's feature gate and §9's supplemented detail
// (the original consults a feature gate before the structural checks).
//
// Classification order mirrors the original exactly: for each resource,
// check duplicate-name first (covering both resources and
// removed_resources as one name-union), then heartbeat, then — only for
// resources that are not alias-only — the type-URL match.
func validate(resp Response, table resourceTable, heartbeatsEnabled bool) (validatedResponse, error) {
	seen := make(map[string]struct{}, len(resp.Resources)+len(resp.RemovedResources))
	var nonHeartbeat []Resource

	for _, r := range resp.Resources {
		if _, dup := seen[r.Name]; dup {
			return validatedResponse{}, newErrorf(errorTypeDuplicateResource,
				"duplicate name %q found among added/updated resources", r.Name)
		}
		seen[r.Name] = struct{}{}

		if isHeartbeat(r, table, heartbeatsEnabled) {
			continue
		}
		nonHeartbeat = append(nonHeartbeat, r)

		aliasOnly := !r.hasPayload() && len(r.Aliases) > 0
		if aliasOnly {
			continue
		}
		if r.hasPayload() && r.Payload.GetTypeUrl() != resp.TypeURL {
			return validatedResponse{}, newErrorf(errorTypeTypeURLMismatch,
				"type URL %q embedded in resource %q does not match the response-wide type URL %q",
				r.Payload.GetTypeUrl(), r.Name, resp.TypeURL)
		}
	}

	for _, name := range resp.RemovedResources {
		if _, dup := seen[name]; dup {
			return validatedResponse{}, newErrorf(errorTypeDuplicateResource,
				"duplicate name %q found in the union of added and removed resources", name)
		}
		seen[name] = struct{}{}
	}

	return validatedResponse{nonHeartbeat: nonHeartbeat}, nil
}

// isHeartbeat implements the classification from spec §4.5: enabled,
// already known, version unchanged, and no payload.
func isHeartbeat(r Resource, table resourceTable, heartbeatsEnabled bool) bool {
	if !heartbeatsEnabled {
		return false
	}
	state, ok := table.get(r.Name)
	if !ok {
		return false
	}
	return !r.hasPayload() && !state.isWaitingForServer() && r.Version == state.version
}
