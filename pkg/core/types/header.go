package types

import (
	"crypto/ed25519"
	"encoding/binary"
)

// HeaderKind distinguishes the two BlockHeader variants spec.md §3 defines.
type HeaderKind uint8

const (
	// GenesisHeaderKind marks the genesis block of an epoch.
	GenesisHeaderKind HeaderKind = iota
	// MainHeaderKind marks a regular, slot-produced block.
	MainHeaderKind
)

func (k HeaderKind) String() string {
	if k == GenesisHeaderKind {
		return "genesis"
	}
	return "main"
}

// ConsensusProof is the slot leader's evidence that it was entitled to produce
// a MainHeader for its slot. The original core backs this with a VRF/leadership
// certificate; this core uses an Ed25519 signature over the header's signable
// bytes by the slot leader's key, the faithful-but-simple stand-in available
// from the pack (see pkg/wallet).
type ConsensusProof struct {
	LeaderKey ed25519.PublicKey
	Signature []byte
}

// BlockHeader is the tagged union of spec.md §3: a GenesisHeader carries an
// epoch index, the previous block's hash, and a difficulty; a MainHeader
// carries a slot id, the previous block's hash, a difficulty, and a consensus
// proof. Genesis deltas contribute 0 to difficulty, MainHeader deltas
// contribute 1 — see DifficultyDelta.
type BlockHeader struct {
	Kind HeaderKind

	// Epoch is valid when Kind == GenesisHeaderKind.
	Epoch EpochIndex
	// Slot is valid when Kind == MainHeaderKind.
	Slot SlotId
	// Proof is valid when Kind == MainHeaderKind.
	Proof ConsensusProof

	PrevHash   Hash
	Difficulty uint64
}

// DifficultyDelta is the protocol-fixed per-variant contribution to
// difficulty: 0 for a genesis header, 1 for a main header.
func (h BlockHeader) DifficultyDelta() uint64 {
	if h.Kind == GenesisHeaderKind {
		return 0
	}
	return 1
}

// EpochOrSlot returns the header's position in the flattened (epoch, slot) order.
func (h BlockHeader) EpochOrSlot() EpochOrSlot {
	if h.Kind == GenesisHeaderKind {
		return EpochOrSlotOfEpoch(h.Epoch)
	}
	return EpochOrSlotOfSlot(h.Slot)
}

// SignableBytes returns the deterministic encoding a consensus proof signs and
// a Crypto.Hash implementation hashes. Layout: Kind(1) || Epoch(8) ||
// Slot.Epoch(8) || Slot.Slot(4) || PrevHash(32) || Difficulty(8).
func (h BlockHeader) SignableBytes() []byte {
	buf := make([]byte, 61)
	buf[0] = byte(h.Kind)
	binary.BigEndian.PutUint64(buf[1:9], uint64(h.Epoch))
	binary.BigEndian.PutUint64(buf[9:17], uint64(h.Slot.Epoch))
	binary.BigEndian.PutUint32(buf[17:21], h.Slot.Slot)
	copy(buf[21:53], h.PrevHash[:])
	binary.BigEndian.PutUint64(buf[53:61], h.Difficulty)
	return buf
}
