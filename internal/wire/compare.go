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

// Package wire holds the format primitives shared by every CZDB backend:
// fixed-prefix byte comparison, the hyper header's AES cipher and the geo
// map's XOR stream.
package wire

// CompareBytes compares the first n bytes of a and b, returning a negative
// number, zero, or a positive number as a's prefix is less than, equal to,
// or greater than b's. Callers guarantee len(a) >= n and len(b) >= n.
func CompareBytes(a, b []byte, n int) int {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
