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

import "net"

// Result is one query's outcome. Found is false when ip fell in a gap,
// outside the indexed range, or belonged to the wrong address family.
// A lookup miss is never reported as an error.
type Result struct {
	Region string
	Found  bool
}

// normalizeIP returns ip's significant bytes in network byte order for
// dbType: the first 4 bytes for IPv4, all 16 for IPv6. Callers have
// already checked dbType.matches(ip).
func normalizeIP(ip net.IP, dbType DBType) []byte {
	if dbType == IPv6 {
		return ip.To16()
	}
	return ip.To4()
}
