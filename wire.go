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
	corepb "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	discoverypb "github.com/envoyproxy/go-control-plane/envoy/service/discovery/v3"
)

// ToProto translates a Request into the wire message a transport sends on
// an ADS delta stream. node is attached as given, on every call; a real
// ADS client passes it on the first message of a stream and nil afterwards
// (the server caches node identification after the first request) —
// callers that always need it attached can pass a non-nil node on every
// call without harm, since the
// server-side contract treats a repeated, identical node as redundant
// rather than an error.
func (r Request) ToProto(node *corepb.Node) *discoverypb.DeltaDiscoveryRequest {
	req := &discoverypb.DeltaDiscoveryRequest{
		Node:                     node,
		TypeUrl:                  r.TypeURL,
		ResourceNamesSubscribe:   r.ResourceNamesSubscribe,
		ResourceNamesUnsubscribe: r.ResourceNamesUnsubscribe,
		InitialResourceVersions:  r.InitialResourceVersions,
	}
	if r.HasResponseNonce {
		req.ResponseNonce = r.ResponseNonce
	}
	if r.ErrorDetail != nil {
		req.ErrorDetail = r.ErrorDetail
	}
	return req
}

// ResponseFromProto translates a received wire message into the Response
// type this package operates on. It performs no validation; that's
// validate's job once the response reaches HandleResponse.
func ResponseFromProto(resp *discoverypb.DeltaDiscoveryResponse) Response {
	out := Response{
		TypeURL:           resp.GetTypeUrl(),
		SystemVersionInfo: resp.GetSystemVersionInfo(),
		Nonce:             resp.GetNonce(),
		RemovedResources:  resp.GetRemovedResources(),
	}
	for _, res := range resp.GetResources() {
		out.Resources = append(out.Resources, Resource{
			Name:    res.GetName(),
			Version: res.GetVersion(),
			Aliases: res.GetAliases(),
			TTL:     res.GetTtl(),
			Payload: res.GetResource(),
		})
	}
	return out
}
