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

// UpdateFailureReason classifies why OnUpdateFailed was called (spec §6).
type UpdateFailureReason int

const (
	// UpdateRejected means a response failed validation, or the watcher
	// itself rejected a prior OnConfigUpdate call.
	UpdateRejected UpdateFailureReason = iota
	// ConnectionFailure means the ADS stream failed to establish.
	ConnectionFailure
	// FetchTimedOut means a resource watch expired without ever receiving
	// a response. The core never raises this reason itself (§1 puts
	// fetch-timeout tracking at the mux/watch layer), but the type is part
	// of the Watcher contract so a composing layer can reuse it without
	// inventing a parallel enum.
	FetchTimedOut
)

func (r UpdateFailureReason) String() string {
	switch r {
	case UpdateRejected:
		return "UpdateRejected"
	case ConnectionFailure:
		return "ConnectionFailure"
	case FetchTimedOut:
		return "FetchTimedOut"
	default:
		return "Unknown"
	}
}

// Watcher is the consumer of add/remove and failure notifications from a
// Subscription (spec §6). Implementations must not call back into the
// Subscription that invoked them (re-entrancy is undefined, spec §5).
type Watcher interface {
	// OnConfigUpdate is invoked after a response's table mutations have
	// been applied, once per accepted response and once per TTL expiry
	// batch. addedOrUpdated never contains heartbeat resources. version is
	// the response's system_version_info, or "" for a synthetic TTL
	// removal.
	//
	// If OnConfigUpdate returns a non-nil error, HandleResponse turns the
	// triggering response into a NACK carrying that error's message. The
	// table mutations already applied are retained — see DESIGN.md's Open
	// Question decision for why.
	OnConfigUpdate(addedOrUpdated []Resource, removed []string, version string) error

	// OnUpdateFailed is invoked when a response fails validation, when the
	// watcher's own OnConfigUpdate call rejected an update, or when stream
	// establishment fails. err is nil for ConnectionFailure.
	OnUpdateFailed(reason UpdateFailureReason, err error)
}
