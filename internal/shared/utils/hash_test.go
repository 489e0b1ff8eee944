package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherKnownDigests(t *testing.T) {
	tests := []struct {
		algorithm HashAlgorithm
		input     string
		expected  string
	}{
		{MD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{MD5, "abc", "900150983cd24fb0d6963f7d28e17f72"},
		{SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algorithm)+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewHasher(tt.algorithm).HashString(tt.input))
		})
	}
}

func TestHasherLengths(t *testing.T) {
	assert.Len(t, NewHasher(MD5).HashString("x"), 32)
	assert.Len(t, NewHasher(SHA256).HashString("x"), 64)
	assert.Len(t, NewHasher(BLAKE2B).HashString("x"), 32)
}

func TestHashConcatDeterministic(t *testing.T) {
	for _, alg := range []HashAlgorithm{MD5, SHA256, BLAKE2B} {
		h := NewHasher(alg)
		a := h.HashConcat("Sensor", "Accel", "x")
		b := h.HashConcat("Sensor", "Accel", "x")
		assert.Equal(t, a, b, alg)
		assert.Equal(t, h.HashString("SensorAccelx"), a, alg)
		assert.NotEqual(t, a, h.HashConcat("Sensor", "Gyro", "x"), alg)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    HashAlgorithm
		wantErr bool
	}{
		{"", MD5, false},
		{"md5", MD5, false},
		{" SHA256 ", SHA256, false},
		{"blake2b", BLAKE2B, false},
		{"crc32", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultHasher(t *testing.T) {
	assert.Equal(t, MD5, DefaultHasher().Algorithm())
}
