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

// resourceState is the per-resource-name bookkeeping entry (spec §3): a
// name is either still waiting on the server for a version, or it has a
// known, last-acknowledged version.
type resourceState struct {
	waiting bool
	version string
}

func waitingForServer() resourceState { return resourceState{waiting: true} }

func known(version string) resourceState { return resourceState{version: version} }

func (s resourceState) isWaitingForServer() bool { return s.waiting }

// resourceTable is the mapping from resource name to its state (component
// A). Insertion order is never relied upon, matching spec §3 ("Insertion
// order irrelevant").
type resourceTable map[string]resourceState

func newResourceTable() resourceTable {
	return make(resourceTable)
}

func (t resourceTable) get(name string) (resourceState, bool) {
	s, ok := t[name]
	return s, ok
}

func (t resourceTable) setWaiting(name string) {
	t[name] = waitingForServer()
}

func (t resourceTable) setKnown(name, version string) {
	t[name] = known(version)
}

func (t resourceTable) remove(name string) {
	delete(t, name)
}
