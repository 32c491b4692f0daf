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
	"strconv"
	"time"

	"github.com/sjzar/czdb/internal/wire"
)

const (
	hyperHeaderLength = 12
	superPartLength   = 17
	headerBlockLength = 20
)

// hyperHeaderInfo is what readHyperHeader returns: what a caller needs to
// locate the Super Part and nothing else; the tag itself is only used for
// validation.
type hyperHeaderInfo struct {
	paddingSize uint32
	encSize     uint32
}

// readHyperHeader reads and validates the 12-byte prefix plus encrypted
// body at the start of a CZDB file, checking the decrypted client id
// against the prefix's plaintext client id field and the embedded
// expiration date against cfg's clock.
func readHyperHeader(r io.Reader, key []byte, cfg *config) (hyperHeaderInfo, error) {
	var prefix [12]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return hyperHeaderInfo{}, wrapReadErr(err)
	}
	clientID := binary.LittleEndian.Uint32(prefix[4:8])
	encSize := binary.LittleEndian.Uint32(prefix[8:12])

	encBody := make([]byte, encSize)
	if _, err := io.ReadFull(r, encBody); err != nil {
		return hyperHeaderInfo{}, wrapReadErr(err)
	}

	plain, err := wire.DecryptHyperHeaderBody(encBody, key, cfg.legacyPadding)
	if err != nil {
		return hyperHeaderInfo{}, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(plain) < 8 {
		return hyperHeaderInfo{}, ErrDatabaseFileCorrupted
	}

	tag := binary.LittleEndian.Uint32(plain[0:4])
	if tag>>20 != clientID {
		return hyperHeaderInfo{}, ErrInvalidClientID
	}

	dateField := tag & 0x000FFFFF
	expiry, err := decimalDate(dateField)
	if err != nil {
		return hyperHeaderInfo{}, ErrDatabaseFileCorrupted
	}
	today := decimalDateFromTime(cfg.now())
	if today > expiry {
		return hyperHeaderInfo{}, ErrDatabaseExpired
	}

	paddingSize := binary.LittleEndian.Uint32(plain[4:8])
	return hyperHeaderInfo{paddingSize: paddingSize, encSize: encSize}, nil
}

// decimalDate validates that v, read as a base-10 literal of up to 6
// digits, is a plausible YYMMDD value. It does not validate the
// calendar (e.g. day 32 is accepted); CZDB only ever compares these as
// integers.
func decimalDate(v uint32) (uint32, error) {
	if v > 999999 {
		return 0, fmt.Errorf("date field %d is not 6 decimal digits", v)
	}
	// round-trip through decimal, mirroring the reference implementation's
	// string parse; for a value that passed the check above this cannot
	// fail, so that check is the only rejection.
	s := strconv.FormatUint(uint64(v), 10)
	parsed, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(parsed), nil
}

func decimalDateFromTime(t time.Time) uint32 {
	y := t.Year() % 100
	return uint32(y)*10000 + uint32(t.Month())*100 + uint32(t.Day())
}

// meta is the parsed, immutable metadata every backend searches against.
type meta struct {
	dbType          DBType
	startIndex      uint32
	endIndex        uint32
	headerSIP       [][16]byte
	headerPtr       []uint32
	columnSelection uint64
	dictionary      []byte // nil if columnSelection == 0
}

// parseMetaFromBytes parses the Super Part, sparse header, column
// selection slot and dictionary out of payload (the file content
// starting at the Super Part, i.e. right after the hyper header and its
// random padding). fileSizeTotal is the full file's size, checked
// against the header's declared sizes.
func parseMetaFromBytes(payload []byte, fileSizeTotal int64, hdr hyperHeaderInfo, key []byte, cfg *config) (*meta, error) {
	if len(payload) < superPartLength {
		return nil, ErrDatabaseFileCorrupted
	}

	dbType := dbTypeFromFlag(payload[0])
	declaredPayloadSize := binary.LittleEndian.Uint32(payload[1:5])
	if fileSizeTotal != int64(hyperHeaderLength)+int64(hdr.encSize)+int64(hdr.paddingSize)+int64(declaredPayloadSize) {
		return nil, ErrDatabaseFileCorrupted
	}
	startIndex := binary.LittleEndian.Uint32(payload[5:9])
	headerBytes := binary.LittleEndian.Uint32(payload[9:13])
	endIndex := binary.LittleEndian.Uint32(payload[13:17])

	if headerBytes%headerBlockLength != 0 {
		return nil, ErrDatabaseFileCorrupted
	}
	if endIndex < startIndex || (endIndex-startIndex)%uint32(dbType.indexBlockLen()) != 0 {
		return nil, ErrDatabaseFileCorrupted
	}

	headerEnd := superPartLength + int(headerBytes)
	if headerEnd > len(payload) {
		return nil, ErrDatabaseFileCorrupted
	}

	total := int(headerBytes) / headerBlockLength
	headerSIP := make([][16]byte, 0, total)
	headerPtr := make([]uint32, 0, total)
	for i := 0; i < total; i++ {
		off := superPartLength + i*headerBlockLength
		dataPtr := binary.LittleEndian.Uint32(payload[off+16 : off+20])
		if dataPtr == 0 {
			break
		}
		var ip [16]byte
		copy(ip[:], payload[off:off+16])
		headerSIP = append(headerSIP, ip)
		headerPtr = append(headerPtr, dataPtr)
	}
	if len(headerSIP) == 0 {
		return nil, ErrDatabaseFileCorrupted
	}

	blen := dbType.indexBlockLen()
	columnSelectionPtr := int(endIndex) + blen
	if columnSelectionPtr+4 > len(payload) {
		return nil, ErrDatabaseFileCorrupted
	}
	columnSelection := uint64(binary.LittleEndian.Uint32(payload[columnSelectionPtr : columnSelectionPtr+4]))

	var dictionary []byte
	if columnSelection != 0 {
		sizePtr := columnSelectionPtr + 4
		if sizePtr+4 > len(payload) {
			return nil, ErrDatabaseFileCorrupted
		}
		dictSize := binary.LittleEndian.Uint32(payload[sizePtr : sizePtr+4])
		dictStart := sizePtr + 4
		dictEnd := dictStart + int(dictSize)
		if dictEnd > len(payload) {
			return nil, ErrDatabaseFileCorrupted
		}
		decoded, err := wire.XorDecrypt(payload[dictStart:dictEnd], key)
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
