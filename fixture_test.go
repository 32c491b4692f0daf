package czdb

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/sjzar/czdb/internal/wire"
)

// fixtureClock pins the expiration check to a date well before the
// fixtures' YYMMDD expiry, so these tests never depend on wall-clock time.
func fixtureClock() time.Time {
	return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
}

const fixtureKeyRaw = "0123456789abcdef"

func fixtureKey() string {
	return base64.StdEncoding.EncodeToString([]byte(fixtureKeyRaw))
}

func encodeRegionRecord(t *testing.T, geoMix int64, other string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.EncodeInt(geoMix))
	require.NoError(t, enc.EncodeString(other))
	return buf.Bytes()
}

func encodeDictionaryEntry(t *testing.T, values []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.EncodeArrayLen(len(values)))
	for _, v := range values {
		require.NoError(t, enc.EncodeString(v))
	}
	return buf.Bytes()
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	if pad == 0 {
		pad = blockSize
	}
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func aesEncryptBlocks(t *testing.T, plaintext, key []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	out := make([]byte, len(plaintext))
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		block.Encrypt(out[off:off+aes.BlockSize], plaintext[off:off+aes.BlockSize])
	}
	return out
}

// buildIPv4Fixture builds the three-range, one-dictionary-entry database used
// throughout the package's tests: 1.1.1.0/24 -> "region1" (a plain
// record), 2.2.2.0/24 -> "region2" (a plain record), and 3.3.3.0/24 ->
// a dictionary-backed record whose columns resolve to "CN" and
// "Beijing" and whose own field is "ISP-X", joining to
// "CN\tBeijing\tISP-X".
func buildIPv4Fixture(t *testing.T) (data []byte, key string) {
	t.Helper()
	key = fixtureKey()
	rawKey := []byte(fixtureKeyRaw)

	region1 := encodeRegionRecord(t, 0, "region1")
	region2 := encodeRegionRecord(t, 0, "region2")
	dictBytes := encodeDictionaryEntry(t, []string{"CN", "Beijing"})
	geoMix := int64(len(dictBytes))<<24 | 0
	region3 := encodeRegionRecord(t, geoMix, "ISP-X")

	const superPartLen = 17
	const headerBlockLen = 20
	const indexBlockLen = 13

	headerBytes := 2 * headerBlockLen
	startIndex := uint32(superPartLen + headerBytes)
	endIndex := startIndex + 2*indexBlockLen
	denseEnd := int(endIndex) + indexBlockLen

	dictSize := len(dictBytes)
	regionsOffset := denseEnd + 4 + 4 + dictSize
	region1Ptr := uint32(regionsOffset)
	region2Ptr := region1Ptr + uint32(len(region1))
	region3Ptr := region2Ptr + uint32(len(region2))

	payloadLen := regionsOffset + len(region1) + len(region2) + len(region3)
	payload := make([]byte, payloadLen)

	payload[0] = 0 // IPv4
	binary.LittleEndian.PutUint32(payload[1:5], uint32(payloadLen))
	binary.LittleEndian.PutUint32(payload[5:9], startIndex)
	binary.LittleEndian.PutUint32(payload[9:13], uint32(headerBytes))
	binary.LittleEndian.PutUint32(payload[13:17], endIndex)

	writeHeaderEntry := func(idx int, ip net.IP, ptr uint32) {
		off := superPartLen + idx*headerBlockLen
		copy(payload[off:off+16], ip.To4())
		binary.LittleEndian.PutUint32(payload[off+16:off+20], ptr)
	}
	writeHeaderEntry(0, net.ParseIP("1.1.1.0"), startIndex)
	writeHeaderEntry(1, net.ParseIP("3.3.3.0"), endIndex)

	writeIndexBlock := func(i int, startIP, endIP net.IP, regionPtr uint32, regionLen int) {
		off := int(startIndex) + i*indexBlockLen
		copy(payload[off:off+4], startIP.To4())
		copy(payload[off+4:off+8], endIP.To4())
		binary.LittleEndian.PutUint32(payload[off+8:off+12], regionPtr)
		payload[off+12] = byte(regionLen)
	}
	writeIndexBlock(0, net.ParseIP("1.1.1.0"), net.ParseIP("1.1.1.255"), region1Ptr, len(region1))
	writeIndexBlock(1, net.ParseIP("2.2.2.0"), net.ParseIP("2.2.2.255"), region2Ptr, len(region2))
	writeIndexBlock(2, net.ParseIP("3.3.3.0"), net.ParseIP("3.3.3.255"), region3Ptr, len(region3))

	const columnSelection = uint32(6) // bits 1,2 -> values[0]="CN", values[1]="Beijing"
	binary.LittleEndian.PutUint32(payload[denseEnd:denseEnd+4], columnSelection)
	binary.LittleEndian.PutUint32(payload[denseEnd+4:denseEnd+8], uint32(dictSize))
	encryptedDict, err := wire.XorDecrypt(dictBytes, rawKey)
	require.NoError(t, err)
	copy(payload[denseEnd+8:denseEnd+8+dictSize], encryptedDict)

	copy(payload[region1Ptr:], region1)
	copy(payload[region2Ptr:], region2)
	copy(payload[region3Ptr:], region3)

	clientID := uint32(1)
	dateField := uint32(991231)
	tag := (clientID << 20) | dateField
	plain := make([]byte, 8)
	binary.LittleEndian.PutUint32(plain[0:4], tag)
	binary.LittleEndian.PutUint32(plain[4:8], 0)
	encBody := aesEncryptBlocks(t, pkcs7Pad(plain, aes.BlockSize), rawKey)

	prefix := make([]byte, 12)
	binary.LittleEndian.PutUint32(prefix[0:4], 1)
	binary.LittleEndian.PutUint32(prefix[4:8], clientID)
	binary.LittleEndian.PutUint32(prefix[8:12], uint32(len(encBody)))

	data = append(data, prefix...)
	data = append(data, encBody...)
	data = append(data, payload...)
	return data, key
}

func fixtureOptions() []Option {
	return []Option{WithClock(fixtureClock)}
}

// buildHyperHeaderOnly builds just the 12-byte prefix and encrypted
// body of a hyper header, for tests that only exercise readHyperHeader
// and don't need a full Super Part behind it.
func buildHyperHeaderOnly(t *testing.T, clientID, dateField, paddingSize uint32) []byte {
	t.Helper()
	rawKey := []byte(fixtureKeyRaw)

	tag := (clientID << 20) | dateField
	plain := make([]byte, 8)
	binary.LittleEndian.PutUint32(plain[0:4], tag)
	binary.LittleEndian.PutUint32(plain[4:8], paddingSize)
	encBody := aesEncryptBlocks(t, pkcs7Pad(plain, aes.BlockSize), rawKey)

	prefix := make([]byte, 12)
	binary.LittleEndian.PutUint32(prefix[0:4], 1)
	binary.LittleEndian.PutUint32(prefix[4:8], clientID)
	binary.LittleEndian.PutUint32(prefix[8:12], uint32(len(encBody)))

	out := append([]byte{}, prefix...)
	out = append(out, encBody...)
	return out
}
