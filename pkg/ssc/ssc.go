// Package ssc implements the Ssc collaborator spec.md §6 names:
// sscVerifyBlocks, sscApplyBlocks, sscRollback. Shared-secret computation
// validation itself is out of scope for the core (spec.md §1); Ledger is the
// concrete, testable stand-in the core is wired against: each block reveals
// a set of Share indices, which must be disjoint from every index already
// revealed on the chain (a leader cannot reuse a share) and must hash to
// their claimed commitment.
package ssc

import (
	"bytes"
	"encoding/gob"
	"errors"
	"sync"

	"github.com/epochra/epochra/pkg/core/types"
)

var (
	ErrShareReused          = errors.New("ssc: share index already revealed")
	ErrCommitmentMismatch   = errors.New("ssc: share payload does not hash to its commitment")
	ErrDuplicateWithinBlock = errors.New("ssc: duplicate share index within one block")
)

// Ssc is the collaborator interface the core consumes.
type Ssc interface {
	VerifyBlocks(blocks []*types.Block) ([]types.SscUndo, error)
	ApplyBlocks(blocks []*types.Block) error
	Rollback(pairs []types.BlockUndo) error
}

// blockUndo records which share indices a block newly revealed, so rollback
// can un-reveal exactly those.
type blockUndo struct {
	Revealed []uint32
}

// Ledger tracks which share indices have ever been revealed on the main
// chain.
type Ledger struct {
	mu       sync.RWMutex
	revealed map[uint32]bool
}

var _ Ssc = (*Ledger)(nil)

// NewLedger builds an empty share ledger.
func NewLedger() *Ledger {
	return &Ledger{revealed: make(map[uint32]bool)}
}

// VerifyBlocks checks every block's shares hash to their claimed commitment
// and that no share index collides with one already revealed on-chain or
// earlier in this same sequence. It does not mutate the ledger.
func (l *Ledger) VerifyBlocks(blocks []*types.Block) ([]types.SscUndo, error) {
	l.mu.RLock()
	seenOnChain := make(map[uint32]bool, len(l.revealed))
	for idx := range l.revealed {
		seenOnChain[idx] = true
	}
	l.mu.RUnlock()

	undos := make([]types.SscUndo, len(blocks))
	for bi, block := range blocks {
		seenInBlock := make(map[uint32]bool, len(block.Shares))
		var revealed []uint32
		for _, share := range block.Shares {
			if types.ComputeSHA256(share.Payload) != share.Commitment {
				return nil, ErrCommitmentMismatch
			}
			if seenInBlock[share.Index] {
				return nil, ErrDuplicateWithinBlock
			}
			seenInBlock[share.Index] = true
			if seenOnChain[share.Index] {
				return nil, ErrShareReused
			}
			seenOnChain[share.Index] = true
			revealed = append(revealed, share.Index)
		}

		encoded, err := encodeBlockUndo(blockUndo{Revealed: revealed})
		if err != nil {
			return nil, err
		}
		undos[bi] = encoded
	}
	return undos, nil
}

// ApplyBlocks marks every block's shares as revealed. Callers must have
// already verified this exact sequence.
func (l *Ledger) ApplyBlocks(blocks []*types.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, block := range blocks {
		for _, share := range block.Shares {
			l.revealed[share.Index] = true
		}
	}
	return nil
}

// Rollback un-reveals every share the given blocks revealed, processing
// pairs in the order given (spec.md §4.4: newest-first).
func (l *Ledger) Rollback(pairs []types.BlockUndo) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, pair := range pairs {
		var bu blockUndo
		if err := decodeBlockUndo(pair.Undo.Ssc, &bu); err != nil {
			return err
		}
		for _, idx := range bu.Revealed {
			delete(l.revealed, idx)
		}
	}
	return nil
}

func encodeBlockUndo(bu blockUndo) (types.SscUndo, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bu); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlockUndo(data []byte, bu *blockUndo) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(bu)
}
