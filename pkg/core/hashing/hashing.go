// Package hashing provides the Crypto collaborator spec.md §6 names:
// hash(BlockHeader) -> Hash. Grounded on the teacher's double-SHA256 header
// hasher (pkg/core/consensus/sha256_hasher.go in the teacher repo), kept as
// the header-identity hash rather than a PoW hash since this core has no
// proof-of-work.
package hashing

import (
	"crypto/sha256"

	"github.com/epochra/epochra/pkg/core/types"
)

// Crypto is the collaborator interface the core consumes for header hashing.
type Crypto interface {
	Hash(h types.BlockHeader) types.Hash
}

// SHA256Crypto implements Crypto with double-SHA256 over a header's signable
// bytes, matching the teacher's double-hash construction.
type SHA256Crypto struct{}

var _ Crypto = SHA256Crypto{}

// Hash computes SHA256(SHA256(header.SignableBytes())).
func (SHA256Crypto) Hash(h types.BlockHeader) types.Hash {
	first := sha256.Sum256(h.SignableBytes())
	return sha256.Sum256(first[:])
}
