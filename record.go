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
	"bytes"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// decodeRegion decodes a region record, a MessagePack-compatible
// (geo_mix uint, other string) tuple, and resolves any shared-column
// reference through meta's dictionary. A malformed record or an
// out-of-bounds dictionary reference is a data error recovered here as
// a miss (ok == false), not a panic: it must not poison the rest of the
// database.
func decodeRegion(data []byte, m *meta, cfg *config) (string, bool) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	geoMixSigned, err := dec.DecodeInt64()
	if err != nil {
		return "", false
	}
	other, err := dec.DecodeString()
	if err != nil {
		return "", false
	}

	if geoMixSigned == 0 {
		return other, true
	}
	geoMix := uint64(geoMixSigned)

	length := int((geoMix >> 24) & 0xFF)
	offset := int(geoMix & 0x00FFFFFF)
	if m.dictionary == nil || offset+length > len(m.dictionary) {
		return "", false
	}

	columns, err := decodeDictionaryEntry(m.dictionary[offset : offset+length])
	if err != nil {
		return "", false
	}

	if cfg != nil && cfg.legacyColumnJoin {
		return joinLegacy(columns, m.columnSelection, other), true
	}
	return joinTabSeparated(columns, m.columnSelection, other), true
}

// decodeDictionaryEntry decodes a dictionary slot, a MessagePack array
// of strings, addressed by a record's packed geo_mix pointer.
func decodeDictionaryEntry(data []byte) ([]string, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	values := make([]string, n)
	for i := 0; i < n; i++ {
		v, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// joinTabSeparated is the default region-string join: each selected
// column (bit i+1 of columnSelection) contributes values[i] (or "null"
// if empty) followed by a tab; other is then appended with no further
// separator.
func joinTabSeparated(values []string, columnSelection uint64, other string) string {
	var b strings.Builder
	for i, v := range values {
		if (columnSelection>>(uint(i)+1))&1 != 1 {
			continue
		}
		if v == "" {
			v = "null"
		}
		b.WriteString(v)
		b.WriteByte('\t')
	}
	b.WriteString(other)
	return b.String()
}

// joinLegacy reproduces the earlier, '-'-joined format recovered from the
// historical source variant: selected columns joined with '-', other
// whitespace-collapsed and separated by a space.
func joinLegacy(values []string, columnSelection uint64, other string) string {
	var parts []string
	for i, v := range values {
		if (columnSelection>>(uint(i)+1))&1 != 1 {
			continue
		}
		if v == "" {
			v = "null"
		}
		parts = append(parts, v)
	}
	collapsed := strings.Join(strings.Fields(other), " ")
	return strings.Join(parts, "-") + " " + collapsed
}
