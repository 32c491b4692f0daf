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
	"io"
	"net"
	"os"
	"sync"
)

// FileReader is the seek-and-read backend. It keeps a single open file
// handle and the parsed metadata; each query
// performs one seek+read of the dense window and one seek+read of the
// matched region record. It does not hold the dense index or region
// records in memory.
//
// FileReader holds a seek cursor shared by every query and must be
// serialized: either wrap calls in your own mutex per instance, or use
// one instance per goroutine. Search already takes an internal lock so
// concurrent callers get correct (if serialized) results; this exists to
// document the constraint, not to enable free concurrent throughput.
type FileReader struct {
	mu         sync.Mutex
	file       *os.File
	meta       *meta
	dataOffset int64
	cfg        *config
}

// OpenFile opens a CZDB database for seek-and-read queries.
func OpenFile(path string, key string, opts ...Option) (*FileReader, error) {
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

	dataOffset := int64(hyperHeaderLength) + int64(hdr.encSize) + int64(hdr.paddingSize)
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapReadErr(err)
	}

	m, err := parseMetaFromReader(f, dataOffset, info.Size(), hdr, keyBytes, cfg)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FileReader{file: f, meta: m, dataOffset: dataOffset, cfg: cfg}, nil
}

// Close releases the underlying file handle.
func (r *FileReader) Close() error {
	return r.file.Close()
}

// DBType reports whether this database holds IPv4 or IPv6 ranges.
func (r *FileReader) DBType() DBType {
	return r.meta.dbType
}

// Search looks up the region string for ip. ok == false means no match
// was found, either because ip falls in a gap, outside the indexed
// range, or its address family does not match the database.
func (r *FileReader) Search(ip net.IP) (string, bool) {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	blen := r.meta.dbType.indexBlockLen()
	windowLen := int(eptr-sptr) + blen
	window := make([]byte, windowLen)
	if _, err := r.file.Seek(r.dataOffset+int64(sptr), io.SeekStart); err != nil {
		return "", false
	}
	if _, err := io.ReadFull(r.file, window); err != nil {
		return "", false
	}

	block, ok := searchDenseWindow(window, 0, 0, eptr-sptr, ipBytes[:ipLen], r.meta.dbType)
	if !ok {
		return "", false
	}

	region := make([]byte, block.regionLen)
	if _, err := r.file.Seek(r.dataOffset+int64(block.regionPtr), io.SeekStart); err != nil {
		return "", false
	}
	if _, err := io.ReadFull(r.file, region); err != nil {
		return "", false
	}

	return decodeRegion(region, r.meta, r.cfg)
}

// SearchMany looks up each IP in ips in turn.
func (r *FileReader) SearchMany(ips []net.IP) []Result {
	out := make([]Result, len(ips))
	for i, ip := range ips {
		region, ok := r.Search(ip)
		out[i] = Result{Region: region, Found: ok}
	}
	return out
}
