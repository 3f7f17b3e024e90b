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
	"fmt"

	"google.golang.org/grpc/grpclog"
)

var logger = grpclog.Component("xds")

// prefixLogger tags every log line with the type URL of the subscription
// that produced it, the same shape as the teacher's igrpclog.PrefixLogger
// wrapping around grpclog.Component, minus the depth-aware plumbing this
// package's call sites don't need.
type prefixLogger struct {
	prefix string
}

func newPrefixLogger(typeURL string) *prefixLogger {
	return &prefixLogger{prefix: fmt.Sprintf("[delta-subscription %s] ", typeURL)}
}

func (l *prefixLogger) Infof(format string, args ...any) {
	logger.Infof(l.prefix+format, args...)
}

func (l *prefixLogger) Warningf(format string, args ...any) {
	logger.Warningf(l.prefix+format, args...)
}

func (l *prefixLogger) V(level int) bool {
	return logger.V(level)
}
