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

// Package czdb is a read-only client for the CZDB IP geolocation database
// format: a signed, partially-encrypted, columnar file mapping contiguous
// IPv4 or IPv6 ranges to region strings.
//
// # Format
//
//	+--------------------------------+
//	|          Hyper Header          |
//	+--------------------------------+
//	|           Super Part           |
//	+--------------------------------+
//	|          Header Block          |
//	+--------------------------------+
//	|           Index Block          |
//	+--------------------------------+
//	|          Geo Map Block         |
//	+--------------------------------+
//
// All multi-byte integers are little endian. All offsets inside the
// payload are relative to the start of the Super Part.
//
// Hyper Header
//
//	+----------------+----------------+----------------------------+
//	| Version (4byte)| ClientID(4byte)| Encrypted Data Length(4byte)|
//	+----------------+----------------+----------------------------+
//	|                   Encrypted Data (n byte)                    |
//	+----------------------------------------------------------------+
//	|                    Random Padding (n byte)                     |
//	+----------------------------------------------------------------+
//
// The encrypted data is AES-128, single-block-chain, PKCS#7 padded
// (an earlier on-disk variant used no padding; see WithLegacyPadding).
// Its plaintext is a tag (client id packed in the high 12 bits, a
// YYMMDD expiration date in the low 20 bits) followed by the padding
// length.
//
// Super Part (17 bytes)
//
//	DB Type(1) | Payload Size(4) | Start Index Ptr(4) | Header Size(4) | End Index Ptr(4)
//
// Header Block (20 bytes, repeated): a sparse index of (first IP, data
// pointer) pairs used to bracket the dense index window for a query.
//
// Index Block (13 bytes IPv4 / 37 bytes IPv6, repeated): the dense,
// sorted, non-overlapping IP ranges, each pointing at a region record.
//
// Geo Map Block: an optional XOR-obfuscated dictionary of repeated
// column values, referenced by region records through a packed pointer.
//
// # Backends
//
// Three backends share the same metadata parser and search algorithm:
// FileReader (seek-and-read per query), MmapReader (zero-copy borrow of
// a memory-mapped payload) and MemoryReader (a pre-built, deduplicated,
// cache-friendly index with a sorted-batch fast path). See README-level
// documentation in each backend's source file for the tradeoffs.
package czdb
