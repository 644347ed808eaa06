// Package wallet handles the Ed25519 keypairs that back consensus proofs
// (types.ConsensusProof) and transaction signatures. Block production itself
// is out of scope (spec.md §1 non-goals); key management is not, so this
// package survives from the teacher largely unchanged, repurposed from
// signing transactions only to also signing headers on behalf of a slot
// leader.
package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"os"

	"github.com/epochra/epochra/pkg/core/types"
)

// GenerateKeyPair generates a new Ed25519 keypair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// SaveKey saves the private key to a file in hex format.
func SaveKey(filename string, privKey ed25519.PrivateKey) error {
	hexKey := hex.EncodeToString(privKey)
	return os.WriteFile(filename, []byte(hexKey), 0600)
}

// LoadKey loads a private key from a file (hex format).
func LoadKey(filename string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(string(data))
}

// SignTransaction signs the transaction and sets its Signature field.
// It assumes From matches the key (does not modify From).
func SignTransaction(tx *types.Transaction, privKey ed25519.PrivateKey) error {
	if len(privKey) != ed25519.PrivateKeySize {
		return errors.New("invalid private key length")
	}
	tx.Signature = ed25519.Sign(privKey, tx.Serialize())
	return nil
}

// SignHeader produces the ConsensusProof a slot leader attaches to a
// MainHeader it produces: its public key plus its signature over the
// header's signable bytes.
func SignHeader(h types.BlockHeader, privKey ed25519.PrivateKey) (types.ConsensusProof, error) {
	if len(privKey) != ed25519.PrivateKeySize {
		return types.ConsensusProof{}, errors.New("invalid private key length")
	}
	pub := privKey.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(privKey, h.SignableBytes())
	return types.ConsensusProof{LeaderKey: pub, Signature: sig}, nil
}

// VerifyHeaderProof checks that h's ConsensusProof is a valid Ed25519
// signature by its own claimed leader key.
func VerifyHeaderProof(h types.BlockHeader) bool {
	if len(h.Proof.LeaderKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(h.Proof.LeaderKey, h.SignableBytes(), h.Proof.Signature)
}

// PubKeyToAddress returns the hex string of the public key (which is the address).
func PubKeyToAddress(pubKey ed25519.PublicKey) string {
	return hex.EncodeToString(pubKey)
}
