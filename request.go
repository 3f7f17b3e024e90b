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

import statuspb "google.golang.org/genproto/googleapis/rpc/status"

// Request is the next delta request to send, as built by buildRequest
// (spec §6, component D).
type Request struct {
	TypeURL                  string
	InitialResourceVersions  map[string]string
	ResourceNamesSubscribe   []string
	ResourceNamesUnsubscribe []string
	ResponseNonce            string
	HasResponseNonce         bool
	ErrorDetail              *statuspb.Status
}

// buildRequest implements spec §4.4. It mutates table, pending, and
// firstRequestSent in place, and returns the request to send.
//
// firstRequestSent is passed by pointer because building the first
// request on a stream has side effects beyond what it returns: every
// table entry is folded into pending.toSubscribe (even ones already
// Waiting) and toUnsubscribe is discarded outright, so a brand-new server
// is told the complete interest set exactly once per stream.
func buildRequest(typeURL string, table resourceTable, pending *pendingDelta, firstRequestSent *bool, ack *Ack) Request {
	req := Request{TypeURL: typeURL}

	if !*firstRequestSent {
		*firstRequestSent = true
		initial := make(map[string]string)
		for name, state := range table {
			if !state.isWaitingForServer() {
				initial[name] = state.version
			}
			pending.toSubscribe.add(name)
		}
		pending.toUnsubscribe.clear()
		if len(initial) > 0 {
			req.InitialResourceVersions = initial
		}
	}

	req.ResourceNamesSubscribe = pending.toSubscribe.slice()
	req.ResourceNamesUnsubscribe = pending.toUnsubscribe.slice()
	pending.clear()

	if ack != nil {
		req.ResponseNonce = ack.Nonce
		req.HasResponseNonce = true
		if ack.IsNACK() {
			req.ErrorDetail = ack.ErrorDetail
		}
	}

	return req
}
