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

// defaultErrorDetailMaxLen bounds the length of a NACK's error_detail
// message, for protocol message-size safety (spec §7).
const defaultErrorDetailMaxLen = 4096

// Config holds the settings that control a Subscription's behavior that
// aren't themselves protocol state. A zero Config is not valid; use
// NewConfig.
type Config struct {
	// HeartbeatsEnabled is the runtime-queryable feature gate from spec §6:
	// when false, no resource is ever classified as a heartbeat, regardless
	// of how closely it otherwise matches the heartbeat shape.
	HeartbeatsEnabled bool

	errorDetailMaxLen int
}

// NewConfig returns a Config with HeartbeatsEnabled set as requested and all
// other fields at their defaults.
func NewConfig(heartbeatsEnabled bool) *Config {
	return &Config{
		HeartbeatsEnabled: heartbeatsEnabled,
		errorDetailMaxLen: defaultErrorDetailMaxLen,
	}
}

// SetErrorDetailMaxLenForTesting overrides the NACK error_detail truncation
// bound. For use in tests only.
func (c *Config) SetErrorDetailMaxLenForTesting(n int) {
	c.errorDetailMaxLen = n
}

func (c *Config) truncate(s string) string {
	max := c.errorDetailMaxLen
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
