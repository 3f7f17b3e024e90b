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

import "testing"

func TestResourceTableSetWaitingThenKnown(t *testing.T) {
	table := newResourceTable()
	table.setWaiting("foo")

	state, ok := table.get("foo")
	if !ok {
		t.Fatalf("get(%q) = not found, want found", "foo")
	}
	if !state.isWaitingForServer() {
		t.Errorf("isWaitingForServer() = false, want true")
	}

	table.setKnown("foo", "v1")
	state, ok = table.get("foo")
	if !ok {
		t.Fatalf("get(%q) = not found, want found", "foo")
	}
	if state.isWaitingForServer() {
		t.Errorf("isWaitingForServer() = true, want false")
	}
	if state.version != "v1" {
		t.Errorf("version = %q, want %q", state.version, "v1")
	}
}

func TestResourceTableRemove(t *testing.T) {
	table := newResourceTable()
	table.setKnown("foo", "v1")
	table.remove("foo")

	if _, ok := table.get("foo"); ok {
		t.Errorf("get(%q) after remove = found, want not found", "foo")
	}
}

func TestResourceTableGetMissing(t *testing.T) {
	table := newResourceTable()
	if _, ok := table.get("missing"); ok {
		t.Errorf("get(%q) = found, want not found", "missing")
	}
}
