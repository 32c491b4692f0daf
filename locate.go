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
	"encoding/binary"

	"github.com/sjzar/czdb/internal/wire"
)

// searchHeader performs the sparse lookup: given a 16-byte right-padded
// query IP, it binary-searches the sparse header and returns the
// inclusive-start, exclusive-end payload offsets of the dense index
// window to scan.
//
// This is not a textbook binary search. The boundary policy below must be
// preserved verbatim: in particular, a miss past the last sparse entry
// falls back to scanning a single trailing block (sptr + block_len),
// rather than returning no candidate window.
func (m *meta) searchHeader(ip [16]byte) (sptr, eptr uint32, ok bool) {
	n := len(m.headerSIP)
	if n == 0 {
		return 0, 0, false
	}
	ipLen := m.dbType.bytesLen()
	blockLen := uint32(m.dbType.indexBlockLen())

	l, h := 0, n-1
	for l <= h {
		mid := (l + h) >> 1
		cmp := wire.CompareBytes(ip[:], m.headerSIP[mid][:], ipLen)
		switch {
		case cmp < 0:
			h = mid - 1
		case cmp > 0:
			l = mid + 1
		default:
			if mid > 0 {
				sptr = m.headerPtr[mid-1]
			} else {
				sptr = m.headerPtr[mid]
			}
			eptr = m.headerPtr[mid]
			return checkSptr(sptr, eptr)
		}
	}

	// miss: l > h
	if l == 0 && h <= 0 {
		return 0, 0, false
	}
	switch {
	case l < n:
		sptr = m.headerPtr[l-1]
		eptr = m.headerPtr[l]
	case h >= 0 && h+1 < n:
		sptr = m.headerPtr[h]
		eptr = m.headerPtr[h+1]
	default:
		sptr = m.headerPtr[n-1]
		eptr = sptr + blockLen
	}
	return checkSptr(sptr, eptr)
}

func checkSptr(sptr, eptr uint32) (uint32, uint32, bool) {
	if sptr == 0 {
		return 0, 0, false
	}
	return sptr, eptr, true
}

// denseBlock is one decoded dense index entry.
type denseBlock struct {
	startIP   []byte
	endIP     []byte
	regionPtr uint32
	regionLen uint8
}

// searchDenseWindow binary-searches the dense index window
// [base+sptr, base+eptr+blen) inside data for the unique block whose
// [start_ip, end_ip] contains ip. The window
// holds ((eptr-sptr)/blen)+1 candidate blocks; the extra candidate past
// eptr is safe because the inclusive range test rejects it if it
// doesn't match.
func searchDenseWindow(data []byte, base int, sptr, eptr uint32, ip []byte, dbType DBType) (denseBlock, bool) {
	ipLen := dbType.bytesLen()
	blen := dbType.indexBlockLen()
	if eptr < sptr {
		return denseBlock{}, false
	}
	windowBytes := int(eptr - sptr)
	l, h := 0, windowBytes/blen

	for l <= h {
		mid := (l + h) >> 1
		p := base + int(sptr) + mid*blen
		if p+blen > len(data) {
			return denseBlock{}, false
		}
		startIP := data[p : p+ipLen]
		endIP := data[p+ipLen : p+2*ipLen]
		cmpStart := wire.CompareBytes(ip, startIP, ipLen)
		cmpEnd := wire.CompareBytes(ip, endIP, ipLen)
		if cmpStart >= 0 && cmpEnd <= 0 {
			ptrOff := p + 2*ipLen
			regionPtr := binary.LittleEndian.Uint32(data[ptrOff : ptrOff+4])
			regionLen := data[ptrOff+4]
			return denseBlock{
				startIP:   startIP,
				endIP:     endIP,
				regionPtr: regionPtr,
				regionLen: regionLen,
			}, true
		} else if cmpStart < 0 {
			h = mid - 1
		} else {
			l = mid + 1
		}
	}
	return denseBlock{}, false
}
