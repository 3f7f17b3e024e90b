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
	"google.golang.org/grpc/codes"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
)

// Ack is the acknowledgement produced by HandleResponse (spec §3, §6). A
// nil ErrorDetail means the response was ACKed; a non-nil ErrorDetail
// means it was NACKed, and its code/message describe why.
type Ack struct {
	Nonce       string
	TypeURL     string
	ErrorDetail *statuspb.Status
}

// IsNACK reports whether this Ack carries an error, i.e. it's a NACK.
func (a Ack) IsNACK() bool { return a.ErrorDetail != nil }

func ackFor(nonce, typeURL string) Ack {
	return Ack{Nonce: nonce, TypeURL: typeURL}
}

// nack attaches an error_detail built from err's message, truncated per
// cfg, with code Internal — matching the original's
// handleBadResponse, which always reports
// Grpc::Status::WellKnownGrpcStatus::Internal.
func nack(nonce, typeURL string, cfg *Config, err error) Ack {
	return Ack{
		Nonce:   nonce,
		TypeURL: typeURL,
		ErrorDetail: &statuspb.Status{
			Code:    int32(codes.Internal),
			Message: cfg.truncate(err.Error()),
		},
	}
}
