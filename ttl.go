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

import "time"

// ttlTracker arms and cancels per-resource expiry timers (component C).
// A firing timer is always reported through schedule, so with a
// dispatcher that hands callbacks to the controller's own goroutine, the
// controller observes TTL expiry the same way it observes everything else.
// With an inline schedule function, expiry runs on the timer's goroutine.
type ttlTracker struct {
	timers   map[string]*time.Timer
	schedule func(func())
	onExpiry func([]string)
}

// newTTLTracker returns a ttlTracker that reports expired names through
// onExpiry, always invoked via schedule (so it lands back on the owning
// goroutine rather than on a timer goroutine).
func newTTLTracker(schedule func(func()), onExpiry func([]string)) *ttlTracker {
	return &ttlTracker{
		timers:   make(map[string]*time.Timer),
		schedule: schedule,
		onExpiry: onExpiry,
	}
}

// scope collects TTL refresh/cancel operations for a single response so
// they can be described as a batch (spec §4.5, §9), mirroring the
// original's ttl_.scopedTtlUpdate(). Go's timers don't actually care about
// batching — each arm/cancel is independent — but the scope exists so the
// call site (HandleResponse in subscription.go) reads the same way the original does: open a
// scope, touch every resource, close it.
type ttlScope struct {
	t *ttlTracker
}

func (t *ttlTracker) beginScope() *ttlScope { return &ttlScope{t: t} }

func (s *ttlScope) refresh(name string, ttl time.Duration) {
	s.t.refresh(name, ttl)
}

func (s *ttlScope) cancel(name string) {
	s.t.cancel(name)
}

func (s *ttlScope) commit() {}

func (t *ttlTracker) refresh(name string, ttl time.Duration) {
	if timer, ok := t.timers[name]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(ttl, func() { t.fire(name, &timer) })
	t.timers[name] = timer
}

func (t *ttlTracker) cancel(name string) {
	if timer, ok := t.timers[name]; ok {
		timer.Stop()
		delete(t.timers, name)
	}
}

// cancelAll stops every outstanding timer. Used when the tracker's owner
// is destroyed (spec §5, "dropping the state machine cancels all
// outstanding TTL timers").
func (t *ttlTracker) cancelAll() {
	for name, timer := range t.timers {
		timer.Stop()
		delete(t.timers, name)
	}
}

func (t *ttlTracker) fire(name string, timer **time.Timer) {
	t.schedule(func() {
		// The timer may have been canceled or re-armed between firing and
		// this callback actually running on the owning goroutine; only
		// treat it as expired if it's still the live timer for this name.
		if live, ok := t.timers[name]; !ok || live != *timer {
			return
		}
		delete(t.timers, name)
		t.onExpiry([]string{name})
	})
}
