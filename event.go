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

import "sync"

// fireOnceEvent represents a one-time event, fired exactly once. It is
// modeled on the teacher's grpcsync.Event (used throughout xdsclient for
// the "closed" flag), rewritten locally since internal/grpcsync isn't
// importable outside the grpc-go module tree.
type fireOnceEvent struct {
	once sync.Once
	ch   chan struct{}
}

func newFireOnceEvent() *fireOnceEvent {
	return &fireOnceEvent{ch: make(chan struct{})}
}

// Fire causes e to complete. It is safe to call multiple times, and
// concurrently. It returns true if this call to Fire caused the signaling
// channel to close.
func (e *fireOnceEvent) Fire() bool {
	fired := false
	e.once.Do(func() {
		fired = true
		close(e.ch)
	})
	return fired
}

// HasFired returns whether Fire has been called.
func (e *fireOnceEvent) HasFired() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed after Fire is called.
func (e *fireOnceEvent) Done() <-chan struct{} {
	return e.ch
}
