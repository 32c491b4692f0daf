package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareBytes(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []byte
		n        int
		expected int
	}{
		{"Equal", []byte{1, 2, 3}, []byte{1, 2, 3}, 3, 0},
		{"EqualPrefixOnly", []byte{1, 2, 9}, []byte{1, 2, 0}, 2, 0},
		{"Less", []byte{1, 2, 3}, []byte{1, 3, 0}, 3, -1},
		{"Greater", []byte{1, 4, 0}, []byte{1, 3, 9}, 3, 1},
		{"IPv6Equal", make([]byte, 16), make([]byte, 16), 16, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CompareBytes(tt.a, tt.b, tt.n)
			if tt.expected == 0 {
				assert.Equal(t, 0, result)
			} else if tt.expected < 0 {
				assert.Negative(t, result)
			} else {
				assert.Positive(t, result)
			}
		})
	}
}
