/*
 * Copyright (c) 2024 shenjunzheng@gmail.com
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
 */

package czdb

import "time"

// config collects the options every backend's Open/FromBytes accepts.
type config struct {
	now              func() time.Time
	legacyPadding    bool
	legacyColumnJoin bool
}

func defaultConfig() *config {
	return &config{now: time.Now}
}

// Option configures backend construction.
type Option func(*config)

// WithClock overrides the clock used for the expiration-date check.
// Defaults to time.Now. Intended for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLegacyPadding selects the earlier hyper-header AES variant, which
// carries no PKCS#7 padding, instead of the current PKCS#7-padded form.
// Not a correctness requirement for current databases; a compatibility
// knob for files produced under the older convention.
func WithLegacyPadding() Option {
	return func(c *config) {
		c.legacyPadding = true
	}
}

// WithLegacyColumnJoin selects the earlier region-string format: dictionary
// columns joined with '-' and whitespace collapsed in the trailing field,
// instead of the tab-separated join used by default.
func WithLegacyColumnJoin() Option {
	return func(c *config) {
		c.legacyColumnJoin = true
	}
}
