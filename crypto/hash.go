package crypto

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashAlgorithm is the identifier of a hash algorithm.
type HashAlgorithm int

const (
	// Sha256 is the SHA-256 algorithm used to fingerprint transactions.
	Sha256 HashAlgorithm = iota

	// Keccak256 is the legacy Keccak-256 algorithm, as used by Ethereum
	// contracts, that derives addresses and course hashes.
	Keccak256
)

// hashFactory is a hash factory for a given algorithm.
//
// - implements crypto.HashFactory
type hashFactory struct {
	hashType HashAlgorithm
}

// NewSha256Factory returns a new instance of the factory for SHA-256.
func NewSha256Factory() HashFactory {
	return hashFactory{Sha256}
}

// NewHashFactory returns a new instance of the factory.
func NewHashFactory(a HashAlgorithm) HashFactory {
	return hashFactory{a}
}

// New implements crypto.HashFactory. It returns a new Hash instance.
func (f hashFactory) New() hash.Hash {
	switch f.hashType {
	case Sha256:
		return sha256.New()
	case Keccak256:
		return sha3.NewLegacyKeccak256()
	default:
		panic("unknown hash type")
	}
}

// Keccak returns the Keccak-256 digest of the concatenation of the chunks.
func Keccak(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()

	for _, chunk := range chunks {
		// A hash never returns an error on write.
		h.Write(chunk)
	}

	return h.Sum(nil)
}
