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

package wire

import "fmt"

// XorDecrypt applies a repeating-key XOR stream (a Vigenere-cipher-like
// obfuscation) to data. key must be non-empty.
func XorDecrypt(data, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("xor key must not be empty")
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}
