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

// nameSet is a set of resource names, used for the pending-delta buffer's
// two sides.
type nameSet map[string]struct{}

func newNameSet() nameSet { return make(nameSet) }

func (s nameSet) add(name string)      { s[name] = struct{}{} }
func (s nameSet) delete(name string)   { delete(s, name) }
func (s nameSet) has(name string) bool { _, ok := s[name]; return ok }

func (s nameSet) slice() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	return out
}

func (s nameSet) clear() {
	for name := range s {
		delete(s, name)
	}
}

// pendingDelta is the pending-delta buffer (component B): the names
// accumulated for subscribe/unsubscribe since the last request was built.
// Invariant (spec §3): toSubscribe and toUnsubscribe are always disjoint.
type pendingDelta struct {
	toSubscribe   nameSet
	toUnsubscribe nameSet
}

func newPendingDelta() *pendingDelta {
	return &pendingDelta{toSubscribe: newNameSet(), toUnsubscribe: newNameSet()}
}

// updateInterest applies a user interest change to the resource table and
// the pending-delta buffer, per spec §4.2. For every added name: mark it
// waiting (discarding any cached version — the user is signaling renewed
// interest), drop it from toUnsubscribe, and add it to toSubscribe. For
// every removed name: drop its table entry, drop it from toSubscribe, and
// add it to toUnsubscribe.
//
// Ordering matters for the edge case this codifies: if the same name
// appears in both added and removed, the removal wins only if it runs
// after the addition touches that name — callers pass disjoint sets in
// practice, but this function still processes added before removed to
// match the teacher's behavior on the rare case they aren't.
func (p *pendingDelta) updateInterest(table resourceTable, added, removed []string) {
	for _, name := range added {
		table.setWaiting(name)
		p.toUnsubscribe.delete(name)
		p.toSubscribe.add(name)
	}
	for _, name := range removed {
		table.remove(name)
		p.toSubscribe.delete(name)
		p.toUnsubscribe.add(name)
	}
}

func (p *pendingDelta) clear() {
	p.toSubscribe.clear()
	p.toUnsubscribe.clear()
}

func (p *pendingDelta) isEmpty() bool {
	return len(p.toSubscribe) == 0 && len(p.toUnsubscribe) == 0
}
