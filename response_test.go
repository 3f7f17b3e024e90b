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
	"testing"

	"google.golang.org/protobuf/types/known/anypb"
)

const testTypeURL = "type.googleapis.com/test.Foo"

func TestValidateRejectsDuplicateInAdded(t *testing.T) {
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Payload: &anypb.Any{TypeUrl: testTypeURL}},
			{Name: "a", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	}
	_, err := validate(resp, newResourceTable(), true)
	if err == nil {
		t.Fatalf("validate() = nil error, want duplicate-resource error")
	}
}

func TestValidateRejectsDuplicateAcrossAddedAndRemoved(t *testing.T) {
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
		RemovedResources: []string{"a"},
	}
	_, err := validate(resp, newResourceTable(), true)
	if err == nil {
		t.Fatalf("validate() = nil error, want duplicate-resource error")
	}
}

func TestValidateRejectsTypeURLMismatch(t *testing.T) {
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Payload: &anypb.Any{TypeUrl: "type.googleapis.com/test.Bar"}},
		},
	}
	_, err := validate(resp, newResourceTable(), true)
	if err == nil {
		t.Fatalf("validate() = nil error, want type-URL-mismatch error")
	}
}

func TestValidateAllowsAliasOnlyWithoutPayload(t *testing.T) {
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Aliases: []string{"alias-a"}},
		},
	}
	validated, err := validate(resp, newResourceTable(), true)
	if err != nil {
		t.Fatalf("validate() = %v, want nil error for alias-only resource", err)
	}
	if len(validated.nonHeartbeat) != 1 {
		t.Errorf("nonHeartbeat = %v, want the alias-only resource included", validated.nonHeartbeat)
	}
}

func TestValidateSkipsHeartbeatResources(t *testing.T) {
	table := newResourceTable()
	table.setKnown("a", "v1")
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Version: "v1"}, // no payload, version unchanged: a heartbeat
		},
	}
	validated, err := validate(resp, table, true)
	if err != nil {
		t.Fatalf("validate() = %v, want nil error", err)
	}
	if len(validated.nonHeartbeat) != 0 {
		t.Errorf("nonHeartbeat = %v, want heartbeat resource excluded", validated.nonHeartbeat)
	}
}

func TestValidateHeartbeatDisabledForwardsNoPayloadResource(t *testing.T) {
	table := newResourceTable()
	table.setKnown("a", "v1")
	resp := Response{
		TypeURL: testTypeURL,
		Resources: []Resource{
			{Name: "a", Version: "v1"}, // no payload, no aliases, not classified as a heartbeat (gate disabled)
		},
	}
	validated, err := validate(resp, table, false)
	if err != nil {
		t.Fatalf("validate() = %v, want nil error: a no-payload, no-alias resource that isn't a heartbeat must still be forwarded (§8 boundary behaviour)", err)
	}
	if len(validated.nonHeartbeat) != 1 || validated.nonHeartbeat[0].Name != "a" {
		t.Errorf("nonHeartbeat = %v, want [{a v1}]", validated.nonHeartbeat)
	}
}

func TestIsHeartbeatRequiresKnownResource(t *testing.T) {
	table := newResourceTable()
	r := Resource{Name: "a", Version: "v1"}
	if isHeartbeat(r, table, true) {
		t.Errorf("isHeartbeat() = true for a resource absent from the table, want false")
	}
}

func TestIsHeartbeatRequiresVersionMatch(t *testing.T) {
	table := newResourceTable()
	table.setKnown("a", "v1")
	r := Resource{Name: "a", Version: "v2"}
	if isHeartbeat(r, table, true) {
		t.Errorf("isHeartbeat() = true for a version change, want false")
	}
}

func TestIsHeartbeatRequiresNoPayload(t *testing.T) {
	table := newResourceTable()
	table.setKnown("a", "v1")
	r := Resource{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}}
	if isHeartbeat(r, table, true) {
		t.Errorf("isHeartbeat() = true for a resource carrying a payload, want false")
	}
}
