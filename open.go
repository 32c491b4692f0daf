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

import (
	"errors"
	"fmt"

	"github.com/sjzar/czdb/internal/wire"
)

func buildConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// decodeKey base64-decodes and length-validates key, translating the
// internal wire error into the package's exported error type.
func decodeKey(key string) ([]byte, error) {
	raw, err := wire.DecodeAESKey(key)
	if err != nil {
		var kl *wire.KeyLengthError
		if errors.As(err, &kl) {
			return nil, &InvalidAESKeyLengthError{N: kl.N}
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyDecoding, err)
	}
	return raw, nil
}
