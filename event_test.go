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

func TestFireOnceEventFireTwice(t *testing.T) {
	e := newFireOnceEvent()
	if e.HasFired() {
		t.Fatalf("HasFired() = true before Fire, want false")
	}
	if !e.Fire() {
		t.Errorf("Fire() = false on first call, want true")
	}
	if e.Fire() {
		t.Errorf("Fire() = true on second call, want false")
	}
	if !e.HasFired() {
		t.Errorf("HasFired() = false after Fire, want true")
	}
	select {
	case <-e.Done():
	default:
		t.Errorf("Done() channel not closed after Fire")
	}
}
