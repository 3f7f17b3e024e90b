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

// Subscription is the per-type-URL delta subscription state machine
// (spec §2, component F). It owns the resource state table, the
// pending-delta buffer, and the TTL tracker for one type URL, and
// translates user interest changes and server responses into the
// requests and ACKs described in spec §4.
//
// Every exported method must be called from the same single thread — see
// Dispatcher's doc comment. A Subscription performs no internal locking;
// the Dispatcher only protects TTL-fired calls into onTTLExpired from
// racing with everything else.
type Subscription struct {
	typeURL string
	cfg     *Config
	watcher Watcher
	logger  *prefixLogger

	table   resourceTable
	pending *pendingDelta
	ttl     *ttlTracker

	firstRequestSent      bool
	dynamicContextChanged bool

	closed *fireOnceEvent
}

// NewSubscription creates a Subscription for typeURL. watcher receives
// add/remove/failure notifications; it must be non-nil. dispatcher
// marshals TTL-fired callbacks back onto the caller's single thread — if
// nil, TTL callbacks run inline on whatever goroutine the *time.Timer
// fires on, which is only safe if the caller never calls other
// Subscription methods concurrently with a pending TTL firing.
func NewSubscription(typeURL string, cfg *Config, watcher Watcher, dispatcher Dispatcher) *Subscription {
	if dispatcher == nil {
		dispatcher = inlineDispatcher{}
	}
	s := &Subscription{
		typeURL: typeURL,
		cfg:     cfg,
		watcher: watcher,
		logger:  newPrefixLogger(typeURL),
		table:   newResourceTable(),
		pending: newPendingDelta(),
		closed:  newFireOnceEvent(),
	}
	s.ttl = newTTLTracker(dispatcher.Schedule, s.onTTLExpired)
	return s
}

// UpdateInterest folds a user-driven interest change into the resource
// table and pending-delta buffer (spec §4.2).
func (s *Subscription) UpdateInterest(added, removed []string) {
	if s.closed.HasFired() {
		return
	}
	s.pending.updateInterest(s.table, added, removed)
	for _, name := range removed {
		s.ttl.cancel(name)
	}
}

// MarkDynamicContextChanged records that observability labels the server
// should see (e.g. node metadata) have mutated since the last request
// (spec §3's dynamic_context_changed flag). It does not by itself change
// what NextRequest puts on the wire — that stays driven entirely by the
// pending-delta buffer and the first-request rule — it only makes
// SubscriptionUpdatePending report true so the caller knows a request is
// worth sending even when interest hasn't changed.
func (s *Subscription) MarkDynamicContextChanged() {
	s.dynamicContextChanged = true
}

// SubscriptionUpdatePending reports whether NextRequest would produce a
// request carrying new information (spec §4.3): either the pending-delta
// buffer is non-empty, or this would be the first request on the stream,
// or the dynamic context changed since the last request.
func (s *Subscription) SubscriptionUpdatePending() bool {
	return !s.pending.isEmpty() || !s.firstRequestSent || s.dynamicContextChanged
}

// NextRequest builds the next delta request to send (spec §4.4). ack is
// the acknowledgement of the most recently handled response, or nil if
// this request isn't acknowledging anything (e.g. the very first request
// on a stream). It assumes the returned request is then actually sent,
// and clears dynamicContextChanged accordingly — matching spec §4.4 step
// 5's "caller is responsible for marking dynamic_context_changed = false
// after a successful send", collapsed into this call since nothing in
// this package observes the request between being built and being sent.
func (s *Subscription) NextRequest(ack *Ack) Request {
	req := buildRequest(s.typeURL, s.table, s.pending, &s.firstRequestSent, ack)
	s.dynamicContextChanged = false
	return req
}

// HandleResponse validates resp, applies it to the resource table, and
// notifies the watcher, implementing spec §4.5 end to end. It always
// returns an Ack — ACK on success, NACK on validation failure or watcher
// rejection — for the caller to pass to the next NextRequest call.
func (s *Subscription) HandleResponse(resp Response) Ack {
	validated, err := validate(resp, s.table, s.cfg.HeartbeatsEnabled)
	if err != nil {
		s.logger.Warningf("rejecting response for %q: %v", resp.TypeURL, err)
		s.watcher.OnUpdateFailed(UpdateRejected, err)
		return nack(resp.Nonce, s.typeURL, s.cfg, err)
	}

	scope := s.ttl.beginScope()
	for _, r := range resp.Resources {
		if r.TTL != nil {
			scope.refresh(r.Name, r.TTL.AsDuration())
		} else {
			scope.cancel(r.Name)
		}
	}
	scope.commit()

	for _, r := range validated.nonHeartbeat {
		s.table.setKnown(r.Name, r.Version)
	}
	for _, name := range resp.RemovedResources {
		// Only revert a name that's actually in the table (spec §4.5 step
		// 4; delta_subscription_state.cc guards the same way): a removal
		// of a name we never held interest in must not insert a spurious
		// Waiting entry that then gets advertised on the next reconnect.
		if _, ok := s.table.get(name); ok {
			s.table.setWaiting(name)
		}
		s.ttl.cancel(name)
	}

	if err := s.watcher.OnConfigUpdate(validated.nonHeartbeat, resp.RemovedResources, resp.SystemVersionInfo); err != nil {
		// The table mutations above are retained even though the watcher
		// rejected the update — see DESIGN.md's Open Question decision.
		s.logger.Warningf("watcher rejected update for %q: %v", resp.TypeURL, err)
		s.watcher.OnUpdateFailed(UpdateRejected, err)
		return nack(resp.Nonce, s.typeURL, s.cfg, err)
	}

	return ackFor(resp.Nonce, s.typeURL)
}

// HandleEstablishmentFailure notifies the watcher that the ADS stream
// failed to establish (spec §4.6's stream-reconnect scenario starts from
// this call). It does not touch the resource table: on the next
// successful stream, buildRequest's first-request path re-advertises
// every currently known resource from scratch.
func (s *Subscription) HandleEstablishmentFailure() {
	s.logger.Warningf("ADS stream failed to establish")
	s.watcher.OnUpdateFailed(ConnectionFailure, nil)
}

// ResetForNewStream marks the next NextRequest call as a first request,
// so it carries initial_resource_versions for every known resource (spec
// §4.6/§4.7: a reconnect resumes from last-known state instead of from
// empty). It does not touch the resource table or pending-delta buffer —
// any interest changes queued while disconnected are preserved and folded
// into that first request alongside the resumption state.
func (s *Subscription) ResetForNewStream() {
	s.firstRequestSent = false
}

// onTTLExpired is the ttlTracker's onExpiry callback (spec §4.6): it
// reverts the expired names in the table to waiting (the entries are
// kept), and reports the removal to the watcher the same way a server-driven
// removal would be reported, with version "" since there is no response
// this corresponds to.
func (s *Subscription) onTTLExpired(names []string) {
	if s.closed.HasFired() {
		return
	}
	for _, name := range names {
		s.table.setWaiting(name)
	}
	s.logger.Infof("TTL expired for %v", names)
	if err := s.watcher.OnConfigUpdate(nil, names, ""); err != nil {
		s.watcher.OnUpdateFailed(UpdateRejected, err)
	}
}

// Close cancels every outstanding TTL timer and marks the Subscription
// as no longer accepting callbacks. It is safe to call Close more than
// once.
func (s *Subscription) Close() {
	if !s.closed.Fire() {
		return
	}
	s.ttl.cancelAll()
}

// lastKnownVersion is a small test/debug accessor for a resource's
// currently cached version; it returns ("", false) if the resource is
// unknown to the table or still waiting on the server.
func (s *Subscription) lastKnownVersion(name string) (string, bool) {
	state, ok := s.table.get(name)
	if !ok || state.isWaitingForServer() {
		return "", false
	}
	return state.version, true
}
