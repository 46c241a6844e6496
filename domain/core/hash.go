package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// RunFingerprint Hash over the numeric inputs of a run, recorded alongside
// results so that two runs over the same data can be recognised as comparable.
type RunFingerprint Hash

// NewRunFingerprint hashes a sequence of float64 slices in order.
func NewRunFingerprint(vectors ...[]float64) RunFingerprint {
	hasher := sha256.New()
	var buf [8]byte
	for _, vec := range vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			hasher.Write(buf[:])
		}
	}
	return RunFingerprint(hex.EncodeToString(hasher.Sum(nil)))
}

func (f RunFingerprint) String() string { return string(f) }
