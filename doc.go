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

// Package deltasub implements the per-type-URL bookkeeping that sits
// between a user's resource interest and an Aggregated Discovery Service
// delta (incremental) stream: which names are known at which version,
// which names still need to be subscribed to or unsubscribed from on the
// wire, and when a resource's TTL has lapsed without a refresh.
//
// A Subscription is built once per type URL and driven by a single
// thread: UpdateInterest and NextRequest as user intent and stream
// activity demand it, HandleResponse for every response received on the
// stream, HandleEstablishmentFailure when the stream itself fails to
// come up, and ResetForNewStream when a new stream replaces a failed
// one. Decoding resource payloads and running the ADS stream itself are
// the caller's job; this package only tracks state and builds/validates
// the messages that carry it.
package deltasub
