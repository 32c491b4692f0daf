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
	"encoding/binary"
	"net"
	"os"
	"sort"

	"github.com/sjzar/czdb/internal/wire"
)

// entryV4 is one collapsed, sorted dense-index entry for an IPv4
// database. start_ip/end_ip are the big-endian 32-bit integer form of
// the range's bounds.
type entryV4 struct {
	startIP, endIP uint32
	regionID       int
}

// entryV6 is the IPv6 analogue, keeping the raw 16-byte bounds since
// there is no single machine integer wide enough to compare cheaply.
type entryV6 struct {
	startIP, endIP [16]byte
	regionID       int
}

// regionSpan locates one interned region string inside the pool's
// contiguous text buffer.
type regionSpan struct {
	start, len int
}

// regionPool is the deduplicated, interned region-text store: many
// dense blocks reference the same record bytes, so construction
// deduplicates by (region_ptr, region_len) and keeps one copy.
type regionPool struct {
	text  string
	spans []regionSpan
}

func (p *regionPool) get(id int) string {
	s := p.spans[id]
	return p.text[s.start : s.start+s.len]
}

// MemoryReader is the pre-built, deduplicated in-memory backend. At
// open it walks the entire dense index once, building a
// sorted entries slice per IP family and a deduplicated region pool; a
// point query is then a single binary search with no further I/O or
// decoding. It additionally offers borrowed-string variants and a
// sorted-batch scan that amortizes large queries to O(n+m).
type MemoryReader struct {
	meta      *meta
	entriesV4 []entryV4
	entriesV6 []entryV6
	regions   regionPool
}

// OpenMemory reads path fully into memory and builds the in-memory
// index.
func OpenMemory(path string, key string, opts ...Option) (*MemoryReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapReadErr(err)
	}
	return MemoryFromBytes(data, key, opts...)
}

// MemoryFromBytes builds the in-memory index from a complete database
// file already held in memory.
func MemoryFromBytes(data []byte, key string, opts ...Option) (*MemoryReader, error) {
	cfg := buildConfig(opts)
	keyBytes, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	hdr, err := readHyperHeader(bytes.NewReader(data), keyBytes, cfg)
	if err != nil {
		return nil, err
	}

	dataOffset := int(hyperHeaderLength) + int(hdr.encSize) + int(hdr.paddingSize)
	if dataOffset > len(data) {
		return nil, ErrDatabaseFileCorrupted
	}

	m, err := parseMetaFromBytes(data[dataOffset:], int64(len(data)), hdr, keyBytes, cfg)
	if err != nil {
		return nil, err
	}

	entriesV4, entriesV6, regions, err := buildMemoryIndex(data[dataOffset:], m, cfg)
	if err != nil {
		return nil, err
	}

	return &MemoryReader{meta: m, entriesV4: entriesV4, entriesV6: entriesV6, regions: regions}, nil
}

func buildMemoryIndex(payload []byte, m *meta, cfg *config) ([]entryV4, []entryV6, regionPool, error) {
	ipLen := m.dbType.bytesLen()
	blen := m.dbType.indexBlockLen()
	start, end := int(m.startIndex), int(m.endIndex)

	if end < start || end+blen > len(payload) {
		return nil, nil, regionPool{}, ErrDatabaseFileCorrupted
	}

	totalBlocks := (end-start)/blen + 1
	entriesV4 := make([]entryV4, 0, totalBlocks)
	entriesV6 := make([]entryV6, 0, totalBlocks)

	var spans []regionSpan
	var text []byte
	cache := make(map[[2]int]int)

	for p := start; p <= end; p += blen {
		if p+blen > len(payload) {
			return nil, nil, regionPool{}, ErrDatabaseFileCorrupted
		}
		startIPBytes := payload[p : p+ipLen]
		endIPBytes := payload[p+ipLen : p+2*ipLen]
		regionPtr := int(binary.LittleEndian.Uint32(payload[p+2*ipLen : p+2*ipLen+4]))
		regionLen := int(payload[p+2*ipLen+4])

		key := [2]int{regionPtr, regionLen}
		regionID, cached := cache[key]
		if !cached {
			if regionPtr+regionLen > len(payload) {
				return nil, nil, regionPool{}, ErrDatabaseFileCorrupted
			}
			region, ok := decodeRegion(payload[regionPtr:regionPtr+regionLen], m, cfg)
			if !ok {
				return nil, nil, regionPool{}, ErrDatabaseFileCorrupted
			}
			regionID = len(spans)
			spans = append(spans, regionSpan{start: len(text), len: len(region)})
			text = append(text, region...)
			cache[key] = regionID
		}

		if m.dbType == IPv4 {
			entriesV4 = append(entriesV4, entryV4{
				startIP:  binary.BigEndian.Uint32(startIPBytes),
				endIP:    binary.BigEndian.Uint32(endIPBytes),
				regionID: regionID,
			})
		} else {
			var s, e [16]byte
			copy(s[:], startIPBytes)
			copy(e[:], endIPBytes)
			entriesV6 = append(entriesV6, entryV6{startIP: s, endIP: e, regionID: regionID})
		}
	}

	return entriesV4, entriesV6, regionPool{text: string(text), spans: spans}, nil
}

// DBType reports whether this database holds IPv4 or IPv6 ranges.
func (r *MemoryReader) DBType() DBType {
	return r.meta.dbType
}

// Search looks up the region string for ip, copying it out of the pool.
func (r *MemoryReader) Search(ip net.IP) (string, bool) {
	s, ok := r.SearchRef(ip)
	return string([]byte(s)), ok
}

// SearchRef looks up the region string for ip and returns it borrowed
// from the pool's backing buffer, avoiding a copy. The returned string
// is valid for the lifetime of the MemoryReader.
func (r *MemoryReader) SearchRef(ip net.IP) (string, bool) {
	if !r.meta.dbType.matches(ip) {
		return "", false
	}
	if r.meta.dbType == IPv4 {
		if len(r.entriesV4) == 0 {
			return "", false
		}
		ipNum := binary.BigEndian.Uint32(ip.To4())
		l, h := 0, len(r.entriesV4)-1
		for l <= h {
			mid := (l + h) >> 1
			e := r.entriesV4[mid]
			switch {
			case ipNum >= e.startIP && ipNum <= e.endIP:
				return r.regions.get(e.regionID), true
			case ipNum < e.startIP:
				h = mid - 1
			default:
				l = mid + 1
			}
		}
		return "", false
	}

	if len(r.entriesV6) == 0 {
		return "", false
	}
	var ipBytes [16]byte
	copy(ipBytes[:], ip.To16())
	l, h := 0, len(r.entriesV6)-1
	for l <= h {
		mid := (l + h) >> 1
		e := r.entriesV6[mid]
		cmpStart := wire.CompareBytes(ipBytes[:], e.startIP[:], 16)
		cmpEnd := wire.CompareBytes(ipBytes[:], e.endIP[:], 16)
		switch {
		case cmpStart >= 0 && cmpEnd <= 0:
			return r.regions.get(e.regionID), true
		case cmpStart < 0:
			h = mid - 1
		default:
			l = mid + 1
		}
	}
	return "", false
}

// SearchMany looks up each IP in ips in turn, copying each match.
func (r *MemoryReader) SearchMany(ips []net.IP) []Result {
	out := make([]Result, len(ips))
	for i, ip := range ips {
		region, ok := r.Search(ip)
		out[i] = Result{Region: region, Found: ok}
	}
	return out
}

// SearchManyRef is SearchMany without the per-result string copy.
func (r *MemoryReader) SearchManyRef(ips []net.IP) []Result {
	out := make([]Result, len(ips))
	for i, ip := range ips {
		region, ok := r.SearchRef(ip)
		out[i] = Result{Region: region, Found: ok}
	}
	return out
}

// SearchManyScan is the sorted-batch fast path: it partitions ips by
// address family, sorts each partition, then makes a single forward
// pass over the entries slice, amortizing to O(n+m) comparisons for n
// queries over m entries instead of n independent binary searches.
// Beneficial for large batches; for small ones prefer SearchMany.
func (r *MemoryReader) SearchManyScan(ips []net.IP) []Result {
	out := make([]Result, len(ips))

	type v4Query struct {
		ip  uint32
		idx int
	}
	type v6Query struct {
		ip  [16]byte
		idx int
	}

	var v4s []v4Query
	var v6s []v6Query
	for i, ip := range ips {
		if !r.meta.dbType.matches(ip) {
			continue
		}
		if r.meta.dbType == IPv4 {
			v4s = append(v4s, v4Query{ip: binary.BigEndian.Uint32(ip.To4()), idx: i})
		} else {
			var b [16]byte
			copy(b[:], ip.To16())
			v6s = append(v6s, v6Query{ip: b, idx: i})
		}
	}

	if len(v4s) > 0 && len(r.entriesV4) > 0 {
		sort.Slice(v4s, func(i, j int) bool { return v4s[i].ip < v4s[j].ip })
		entryIdx := 0
		for _, q := range v4s {
			for entryIdx < len(r.entriesV4) && r.entriesV4[entryIdx].endIP < q.ip {
				entryIdx++
			}
			if entryIdx >= len(r.entriesV4) {
				break
			}
			e := r.entriesV4[entryIdx]
			if q.ip >= e.startIP && q.ip <= e.endIP {
				out[q.idx] = Result{Region: r.regions.get(e.regionID), Found: true}
			}
		}
	}

	if len(v6s) > 0 && len(r.entriesV6) > 0 {
		sort.Slice(v6s, func(i, j int) bool { return wire.CompareBytes(v6s[i].ip[:], v6s[j].ip[:], 16) < 0 })
		entryIdx := 0
		for _, q := range v6s {
			for entryIdx < len(r.entriesV6) && wire.CompareBytes(r.entriesV6[entryIdx].endIP[:], q.ip[:], 16) < 0 {
				entryIdx++
			}
			if entryIdx >= len(r.entriesV6) {
				break
			}
			e := r.entriesV6[entryIdx]
			cmpStart := wire.CompareBytes(q.ip[:], e.startIP[:], 16)
			cmpEnd := wire.CompareBytes(q.ip[:], e.endIP[:], 16)
			if cmpStart >= 0 && cmpEnd <= 0 {
				out[q.idx] = Result{Region: r.regions.get(e.regionID), Found: true}
			}
		}
	}

	return out
}
