package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	// MD5 yields 32 hex characters, matching ids issued by existing peers
	MD5     HashAlgorithm = "md5"
	SHA256  HashAlgorithm = "sha256"
	BLAKE2B HashAlgorithm = "blake2b"
)

// blake2bSize is the digest size in bytes for BLAKE2B (128 bits)
const blake2bSize = 16

// ParseAlgorithm converts a configuration string to a HashAlgorithm
func ParseAlgorithm(name string) (HashAlgorithm, error) {
	switch HashAlgorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", MD5:
		return MD5, nil
	case SHA256:
		return SHA256, nil
	case BLAKE2B:
		return BLAKE2B, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %q", name)
	}
}

// Hasher computes deterministic lowercase hex fingerprints
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(MD5)
}

// Algorithm returns the configured algorithm
func (h *Hasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

func (h *Hasher) newHash() hash.Hash {
	switch h.algorithm {
	case SHA256:
		return sha256.New()
	case BLAKE2B:
		// Only fails for an invalid size or an oversized key
		d, err := blake2b.New(blake2bSize, nil)
		if err != nil {
			panic(err)
		}
		return d
	default:
		return md5.New()
	}
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashConcat hashes the plain concatenation of parts, in order.
// No delimiter is inserted, so ("ab", "c") and ("a", "bc") collide.
func (h *Hasher) HashConcat(parts ...string) string {
	return h.HashString(strings.Join(parts, ""))
}
