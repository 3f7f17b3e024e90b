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

import "fmt"

// errorType categorizes the reason a delta response was rejected.
type errorType int

const (
	// errorTypeUnknown is the default value.
	errorTypeUnknown errorType = iota
	// errorTypeDuplicateResource indicates a resource name appeared more than
	// once across the response's added and removed resources.
	errorTypeDuplicateResource
	// errorTypeTypeURLMismatch indicates a resource's embedded type URL did
	// not match the response's outer type URL.
	errorTypeTypeURLMismatch
	// errorTypeWatcherRejected indicates the watcher itself rejected the
	// update after it was applied to the resource state table.
	errorTypeWatcherRejected
)

// subscriptionError is the error type constructed while validating or
// applying a delta response. HandleResponse passes it to the watcher's
// OnUpdateFailed and folds its message into the returned NACK.
type subscriptionError struct {
	t    errorType
	desc string
}

func (e *subscriptionError) Error() string { return e.desc }

// newErrorf creates a subscriptionError of the given type.
func newErrorf(t errorType, format string, args ...any) error {
	return &subscriptionError{t: t, desc: fmt.Sprintf(format, args...)}
}
