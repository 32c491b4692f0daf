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
	"net"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapReader is the zero-copy mapped backend. It maps the whole file
// once at open and slices directly out of the mapping on
// every query: no copies happen on the query path beyond the decoded
// region string itself. Safe for concurrent reads from multiple
// goroutines once opened; the mapping and metadata are never mutated.
type MmapReader struct {
	file       *os.File
	mapping    mmap.MMap
	dataOffset int
	meta       *meta
	cfg        *config
}

// OpenMmap memory-maps path and parses its metadata for zero-copy
// queries.
func OpenMmap(path string, key string, opts ...Option) (*MmapReader, error) {
	cfg := buildConfig(opts)
	keyBytes, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapReadErr(err)
	}

	hdr, err := readHyperHeader(f, keyBytes, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapReadErr(err)
	}

	mapping, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, wrapReadErr(err)
	}

	dataOffset := int(hyperHeaderLength) + int(hdr.encSize) + int(hdr.paddingSize)
	if dataOffset > len(mapping) {
		mapping.Unmap()
		f.Close()
		return nil, ErrDatabaseFileCorrupted
	}

	m, err := parseMetaFromBytes(mapping[dataOffset:], info.Size(), hdr, keyBytes, cfg)
	if err != nil {
		mapping.Unmap()
		f.Close()
		return nil, err
	}

	return &MmapReader{file: f, mapping: mapping, dataOffset: dataOffset, meta: m, cfg: cfg}, nil
}

// Close unmaps the payload and closes the underlying file handle.
func (r *MmapReader) Close() error {
	if err := r.mapping.Unmap(); err != nil {
		return err
	}
	return r.file.Close()
}

// DBType reports whether this database holds IPv4 or IPv6 ranges.
func (r *MmapReader) DBType() DBType {
	return r.meta.dbType
}

// Search looks up the region string for ip.
func (r *MmapReader) Search(ip net.IP) (string, bool) {
	if !r.meta.dbType.matches(ip) {
		return "", false
	}
	var ipBytes [16]byte
	ipLen := r.meta.dbType.bytesLen()
	copy(ipBytes[:ipLen], normalizeIP(ip, r.meta.dbType))

	sptr, eptr, ok := r.meta.searchHeader(ipBytes)
	if !ok {
		return "", false
	}

	payload := []byte(r.mapping[r.dataOffset:])
	block, ok := searchDenseWindow(payload, 0, sptr, eptr, ipBytes[:ipLen], r.meta.dbType)
	if !ok {
		return "", false
	}

	start, end := int(block.regionPtr), int(block.regionPtr)+int(block.regionLen)
	if end > len(payload) {
		return "", false
	}
	return decodeRegion(payload[start:end], r.meta, r.cfg)
}

// SearchMany looks up each IP in ips in turn.
func (r *MmapReader) SearchMany(ips []net.IP) []Result {
	out := make([]Result, len(ips))
	for i, ip := range ips {
		region, ok := r.Search(ip)
		out[i] = Result{Region: region, Found: ok}
	}
	return out
}
