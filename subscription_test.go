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
	"sort"
	"sync"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
)

// fakeWatcher records every callback it receives, for assertions in
// tests. It's the test-double analogue of the teacher's fake xDS client
// watchers used throughout xdsclient's tests.
type fakeWatcher struct {
	mu         sync.Mutex
	updates    []fakeUpdate
	failures   []fakeFailure
	rejectNext error
}

type fakeUpdate struct {
	added   []Resource
	removed []string
	version string
}

type fakeFailure struct {
	reason UpdateFailureReason
	err    error
}

func (w *fakeWatcher) OnConfigUpdate(added []Resource, removed []string, version string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, fakeUpdate{added: added, removed: removed, version: version})
	if w.rejectNext != nil {
		err := w.rejectNext
		w.rejectNext = nil
		return err
	}
	return nil
}

func (w *fakeWatcher) OnUpdateFailed(reason UpdateFailureReason, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = append(w.failures, fakeFailure{reason: reason, err: err})
}

func (w *fakeWatcher) lastUpdate() (fakeUpdate, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.updates) == 0 {
		return fakeUpdate{}, false
	}
	return w.updates[len(w.updates)-1], true
}

func (w *fakeWatcher) updateCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.updates)
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestS1FirstRequestAfterInterest(t *testing.T) {
	sub := NewSubscription(testTypeURL, NewConfig(true), &fakeWatcher{}, nil)

	sub.UpdateInterest([]string{"a", "b"}, nil)
	req := sub.NextRequest(nil)

	if got, want := sortedStrings(req.ResourceNamesSubscribe), []string{"a", "b"}; !equalStrings(got, want) {
		t.Errorf("ResourceNamesSubscribe = %v, want %v", got, want)
	}
	if len(req.ResourceNamesUnsubscribe) != 0 {
		t.Errorf("ResourceNamesUnsubscribe = %v, want empty", req.ResourceNamesUnsubscribe)
	}
	if len(req.InitialResourceVersions) != 0 {
		t.Errorf("InitialResourceVersions = %v, want empty (nothing known yet)", req.InitialResourceVersions)
	}
	if req.HasResponseNonce {
		t.Errorf("HasResponseNonce = true, want false")
	}
}

func TestS2AckThenIncremental(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a", "b"}, nil)
	sub.NextRequest(nil)

	ack := sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	})

	if ack.IsNACK() {
		t.Fatalf("ack.IsNACK() = true, want ACK")
	}
	if ack.Nonce != "n1" {
		t.Errorf("ack.Nonce = %q, want %q", ack.Nonce, "n1")
	}
	update, ok := watcher.lastUpdate()
	if !ok {
		t.Fatalf("watcher received no update")
	}
	if len(update.added) != 1 || update.added[0].Name != "a" {
		t.Errorf("update.added = %v, want [{a v1}]", update.added)
	}
	if len(update.removed) != 0 {
		t.Errorf("update.removed = %v, want empty", update.removed)
	}

	sub.UpdateInterest(nil, []string{"b"})
	req := sub.NextRequest(&ack)

	if len(req.ResourceNamesSubscribe) != 0 {
		t.Errorf("ResourceNamesSubscribe = %v, want empty", req.ResourceNamesSubscribe)
	}
	if got, want := req.ResourceNamesUnsubscribe, []string{"b"}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("ResourceNamesUnsubscribe = %v, want %v", got, want)
	}
	if len(req.InitialResourceVersions) != 0 {
		t.Errorf("InitialResourceVersions = %v, want omitted on a non-first request", req.InitialResourceVersions)
	}
	if req.ResponseNonce != "n1" {
		t.Errorf("ResponseNonce = %q, want %q", req.ResponseNonce, "n1")
	}
}

func TestS3StreamReconnectPreservesKnownVersions(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a", "b"}, nil)
	sub.NextRequest(nil)
	ack := sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	})
	sub.UpdateInterest(nil, []string{"b"})
	sub.NextRequest(&ack)

	sub.HandleEstablishmentFailure()
	sub.ResetForNewStream()
	req := sub.NextRequest(nil)

	if got, want := req.ResourceNamesSubscribe, []string{"a"}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("ResourceNamesSubscribe = %v, want %v", got, want)
	}
	if req.InitialResourceVersions["a"] != "v1" {
		t.Errorf("InitialResourceVersions[a] = %q, want v1", req.InitialResourceVersions["a"])
	}
	if len(req.ResourceNamesUnsubscribe) != 0 {
		t.Errorf("ResourceNamesUnsubscribe = %v, want empty", req.ResourceNamesUnsubscribe)
	}
	if len(watcher.failures) != 1 || watcher.failures[0].reason != ConnectionFailure {
		t.Errorf("watcher.failures = %v, want one ConnectionFailure", watcher.failures)
	}
}

func TestS4DuplicateNameRejection(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)

	ack := sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}},
			{Name: "a", Version: "v2", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	})

	if !ack.IsNACK() {
		t.Fatalf("ack.IsNACK() = false, want NACK")
	}
	if int(ack.ErrorDetail.Code) != 13 { // codes.Internal
		t.Errorf("ack.ErrorDetail.Code = %d, want Internal (13)", ack.ErrorDetail.Code)
	}
	if watcher.updateCount() != 0 {
		t.Errorf("watcher received %d updates, want 0 (response must be rejected before mutation)", watcher.updateCount())
	}
	if len(watcher.failures) != 1 || watcher.failures[0].reason != UpdateRejected {
		t.Errorf("watcher.failures = %v, want one UpdateRejected", watcher.failures)
	}
	if _, ok := sub.lastKnownVersion("a"); ok {
		t.Errorf("table has a known version for %q after a rejected response, want no state change", "a")
	}
}

func TestS5HeartbeatSuppression(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a"}, nil)
	sub.NextRequest(nil)
	sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	})

	ack := sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n2",
		Resources: []Resource{
			{Name: "a", Version: "v1"}, // no payload, version unchanged
		},
	})

	if ack.IsNACK() {
		t.Fatalf("ack.IsNACK() = true, want ACK even for a heartbeat-only response")
	}
	update, ok := watcher.lastUpdate()
	if !ok {
		t.Fatalf("watcher received no update")
	}
	if len(update.added) != 0 || len(update.removed) != 0 {
		t.Errorf("update = %+v, want empty added and removed for a heartbeat", update)
	}
}

func TestS6TTLExpiry(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a"}, nil)
	sub.NextRequest(nil)
	sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}, TTL: durationpb.New(30 * time.Millisecond)},
		},
	})

	deadline := time.After(time.Second)
	for {
		if update, ok := watcher.lastUpdate(); ok && len(update.removed) == 1 {
			if update.removed[0] != "a" {
				t.Errorf("update.removed = %v, want [a]", update.removed)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for TTL-driven removal")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, ok := sub.lastKnownVersion("a"); ok {
		t.Errorf("table still has a known version for %q after TTL expiry, want reverted to waiting", "a")
	}
}

func TestWatcherRejectionRetainsMutationsAndNacks(t *testing.T) {
	watcher := &fakeWatcher{rejectNext: newErrorf(errorTypeWatcherRejected, "nope")}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a"}, nil)
	sub.NextRequest(nil)

	ack := sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}},
		},
	})

	if !ack.IsNACK() {
		t.Fatalf("ack.IsNACK() = false, want NACK when the watcher rejects the update")
	}
	version, ok := sub.lastKnownVersion("a")
	if !ok || version != "v1" {
		t.Errorf("lastKnownVersion(a) = %q, %v, want v1, true (mutation retained despite rejection)", version, ok)
	}
}

func TestSubscriptionUpdatePending(t *testing.T) {
	sub := NewSubscription(testTypeURL, NewConfig(true), &fakeWatcher{}, nil)
	if !sub.SubscriptionUpdatePending() {
		t.Errorf("SubscriptionUpdatePending() = false before the first request, want true")
	}
	sub.NextRequest(nil)
	if sub.SubscriptionUpdatePending() {
		t.Errorf("SubscriptionUpdatePending() = true with nothing pending, want false")
	}
	sub.MarkDynamicContextChanged()
	if !sub.SubscriptionUpdatePending() {
		t.Errorf("SubscriptionUpdatePending() = false after MarkDynamicContextChanged, want true")
	}
}

func TestCloseCancelsOutstandingTTLTimers(t *testing.T) {
	watcher := &fakeWatcher{}
	sub := NewSubscription(testTypeURL, NewConfig(true), watcher, nil)
	sub.UpdateInterest([]string{"a"}, nil)
	sub.NextRequest(nil)
	sub.HandleResponse(Response{
		TypeURL: testTypeURL,
		Nonce:   "n1",
		Resources: []Resource{
			{Name: "a", Version: "v1", Payload: &anypb.Any{TypeUrl: testTypeURL}, TTL: durationpb.New(20 * time.Millisecond)},
		},
	})

	sub.Close()
	sub.Close() // must be safe to call twice

	time.Sleep(40 * time.Millisecond)
	if watcher.updateCount() != 1 {
		t.Errorf("watcher received %d updates after Close, want 1 (no TTL removal should fire)", watcher.updateCount())
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
