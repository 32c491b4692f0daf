package wire

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAESKey(t *testing.T) {
	raw := make([]byte, 16)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	key := base64.StdEncoding.EncodeToString(raw)

	decoded, err := DecodeAESKey(key)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeAESKeyWrongLength(t *testing.T) {
	for _, n := range []int{8, 15, 17} {
		n := n
		key := base64.StdEncoding.EncodeToString(make([]byte, n))
		_, err := DecodeAESKey(key)
		require.Error(t, err)

		var kl *KeyLengthError
		require.ErrorAs(t, err, &kl)
		assert.Equal(t, n, kl.N)
	}
}

func TestDecodeAESKeyInvalidBase64(t *testing.T) {
	_, err := DecodeAESKey("not-valid-base64!!!")
	assert.Error(t, err)
}

func encryptBlocks(t *testing.T, plaintext, key []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	out := make([]byte, len(plaintext))
	for off := 0; off < len(plaintext); off += aes.BlockSize {
		block.Encrypt(out[off:off+aes.BlockSize], plaintext[off:off+aes.BlockSize])
	}
	return out
}

func TestAES128DecryptBlocksRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)

	plaintext := []byte("0123456789abcdef0123456789abcdef")[:32]
	ciphertext := encryptBlocks(t, plaintext, key)

	got, err := AES128DecryptBlocks(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAES128DecryptBlocksBadLength(t *testing.T) {
	key := make([]byte, 16)
	_, err := AES128DecryptBlocks(make([]byte, 10), key)
	assert.Error(t, err)

	_, err = AES128DecryptBlocks(nil, key)
	assert.Error(t, err)
}

func TestUnpadPKCS7(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
		wantErr  bool
	}{
		{"OneBytePad", []byte{1, 2, 3, 1}, []byte{1, 2, 3}, false},
		{"MultiBytePad", []byte{1, 2, 3, 4, 4, 4, 4, 4}, []byte{1, 2, 3, 4}, false},
		{"ZeroPad", []byte{1, 2, 0}, nil, true},
		{"PadExceedsLength", []byte{1, 2, 9}, nil, true},
		{"InconsistentPad", []byte{1, 2, 3, 2}, nil, true},
		{"Empty", []byte{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnpadPKCS7(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecryptHyperHeaderBody(t *testing.T) {
	key := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)

	t.Run("PKCS7", func(t *testing.T) {
		padded := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 1}
		ciphertext := encryptBlocks(t, padded, key)
		got, err := DecryptHyperHeaderBody(ciphertext, key, false)
		require.NoError(t, err)
		assert.Equal(t, padded[:15], got)
	})

	t.Run("LegacyNoPadding", func(t *testing.T) {
		plain := make([]byte, 16)
		_, err := rand.Read(plain)
		require.NoError(t, err)
		ciphertext := encryptBlocks(t, plain, key)
		got, err := DecryptHyperHeaderBody(ciphertext, key, true)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	})
}
