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
	"fmt"
	"io"

	"github.com/sjzar/czdb/internal/wire"
)

// parseMetaFromReader is the seek-and-read counterpart of
// parseMetaFromBytes, used by the file-handle backend so opening a
// database never has to read the dense index or region records into
// memory: only the Super Part, the sparse header, the column selection
// slot and, when columns are selected, the dictionary.
func parseMetaFromReader(r io.ReadSeeker, dataOffset int64, fileSizeTotal int64, hdr hyperHeaderInfo, key []byte, cfg *config) (*meta, error) {
	if _, err := r.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, wrapReadErr(err)
	}
	var super [superPartLength]byte
	if _, err := io.ReadFull(r, super[:]); err != nil {
		return nil, wrapReadErr(err)
	}

	dbType := dbTypeFromFlag(super[0])
	declaredPayloadSize := binary.LittleEndian.Uint32(super[1:5])
	if fileSizeTotal != int64(hyperHeaderLength)+int64(hdr.encSize)+int64(hdr.paddingSize)+int64(declaredPayloadSize) {
		return nil, ErrDatabaseFileCorrupted
	}
	startIndex := binary.LittleEndian.Uint32(super[5:9])
	headerBytes := binary.LittleEndian.Uint32(super[9:13])
	endIndex := binary.LittleEndian.Uint32(super[13:17])

	if headerBytes%headerBlockLength != 0 {
		return nil, ErrDatabaseFileCorrupted
	}
	if endIndex < startIndex || (endIndex-startIndex)%uint32(dbType.indexBlockLen()) != 0 {
		return nil, ErrDatabaseFileCorrupted
	}

	headerBuf := make([]byte, headerBytes)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, wrapReadErr(err)
	}

	total := int(headerBytes) / headerBlockLength
	headerSIP := make([][16]byte, 0, total)
	headerPtr := make([]uint32, 0, total)
	for i := 0; i < total; i++ {
		off := i * headerBlockLength
		dataPtr := binary.LittleEndian.Uint32(headerBuf[off+16 : off+20])
		if dataPtr == 0 {
			break
		}
		var ip [16]byte
		copy(ip[:], headerBuf[off:off+16])
		headerSIP = append(headerSIP, ip)
		headerPtr = append(headerPtr, dataPtr)
	}
	if len(headerSIP) == 0 {
		return nil, ErrDatabaseFileCorrupted
	}

	blen := dbType.indexBlockLen()
	columnSelectionPtr := dataOffset + int64(endIndex) + int64(blen)
	if _, err := r.Seek(columnSelectionPtr, io.SeekStart); err != nil {
		return nil, wrapReadErr(err)
	}
	var buf4 [4]byte
	if _, err := io.ReadFull(r, buf4[:]); err != nil {
		return nil, wrapReadErr(err)
	}
	columnSelection := uint64(binary.LittleEndian.Uint32(buf4[:]))

	var dictionary []byte
	if columnSelection != 0 {
		if _, err := io.ReadFull(r, buf4[:]); err != nil {
			return nil, wrapReadErr(err)
		}
		dictSize := binary.LittleEndian.Uint32(buf4[:])
		raw := make([]byte, dictSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, wrapReadErr(err)
		}
		decoded, err := wire.XorDecrypt(raw, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFileCorrupted, err)
		}
		dictionary = decoded
	}

	return &meta{
		dbType:          dbType,
		startIndex:      startIndex,
		endIndex:        endIndex,
		headerSIP:       headerSIP,
		headerPtr:       headerPtr,
		columnSelection: columnSelection,
		dictionary:      dictionary,
	}, nil
}
