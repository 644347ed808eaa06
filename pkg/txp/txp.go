// Package txp implements the Txp collaborator spec.md §6 names:
// txVerifyBlocks, txApplyBlocks, txRollbackBlocks. Transaction validation
// itself is out of scope for the core (spec.md §1); Ledger is the concrete,
// testable stand-in the core is wired against, grounded on the teacher's
// account model (pkg/core/blockchain/chain.go's GetAccountState and
// pkg/core/mempool's pending-nonce bookkeeping), generalized from a single
// mutable chain into a verify-without-mutating / apply / rollback triad.
package txp

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"github.com/epochra/epochra/pkg/core/types"
)

var (
	ErrUnknownSender     = errors.New("txp: unknown sender account")
	ErrInvalidNonce      = errors.New("txp: invalid nonce")
	ErrInsufficientFunds = errors.New("txp: insufficient funds")
)

// Txp is the collaborator interface the core consumes.
type Txp interface {
	VerifyBlocks(blocks []*types.Block) ([]types.TxUndo, error)
	ApplyBlocks(blocks []*types.Block) error
	RollbackBlocks(pairs []types.BlockUndo) error
}

// accountSnapshot is the per-account state an undo record restores.
type accountSnapshot struct {
	Addr    types.Hash
	Balance types.Amount
	Nonce   uint64
	Existed bool
}

// blockUndo is the gob-encoded payload behind types.TxUndo: the snapshot of
// every account touched by one block, in first-touched order. Each account
// appears once, so restoring them in any order yields exactly the pre-block
// state.
type blockUndo struct {
	Snapshots []accountSnapshot
}

// Ledger is an in-memory account-balance ledger: the simplest concrete Txp
// that can verify, apply, and roll back a block sequence.
type Ledger struct {
	mu       sync.RWMutex
	balances map[types.Hash]types.Amount
	nonces   map[types.Hash]uint64
}

var _ Txp = (*Ledger)(nil)

// NewLedger builds an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[types.Hash]types.Amount),
		nonces:   make(map[types.Hash]uint64),
	}
}

// Credit seeds an account's balance directly (used to fund genesis accounts
// outside of any transaction).
func (l *Ledger) Credit(addr types.Hash, amount types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// Balance returns an account's current balance and nonce.
func (l *Ledger) Balance(addr types.Hash) (types.Amount, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr], l.nonces[addr]
}

// VerifyBlocks checks every transaction of every block against a working
// copy of the ledger (it never mutates l) and returns one TxUndo per block.
func (l *Ledger) VerifyBlocks(blocks []*types.Block) ([]types.TxUndo, error) {
	l.mu.RLock()
	working := make(map[types.Hash]*accountSnapshot, len(l.balances))
	balances := make(map[types.Hash]types.Amount, len(l.balances))
	for a, b := range l.balances {
		balances[a] = b
	}
	nonces := make(map[types.Hash]uint64, len(l.nonces))
	for a, n := range l.nonces {
		nonces[a] = n
	}
	l.mu.RUnlock()

	touch := func(addr types.Hash) {
		if _, ok := working[addr]; ok {
			return
		}
		_, existed := balances[addr]
		working[addr] = &accountSnapshot{
			Addr:    addr,
			Balance: balances[addr],
			Nonce:   nonces[addr],
			Existed: existed,
		}
	}

	undos := make([]types.TxUndo, len(blocks))
	for bi, block := range blocks {
		var order []types.Hash
		seen := map[types.Hash]bool{}
		recordTouch := func(addr types.Hash) {
			touch(addr)
			if !seen[addr] {
				seen[addr] = true
				order = append(order, addr)
			}
		}

		for _, tx := range block.Transactions {
			recordTouch(tx.To)
			if tx.Type == types.TxTypeCoinbase {
				balances[tx.To] += tx.Amount
				continue
			}
			recordTouch(tx.From)

			if _, ok := balances[tx.From]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSender, tx.From)
			}
			if tx.Nonce != nonces[tx.From] {
				return nil, fmt.Errorf("%w: account %s expected nonce %d, got %d",
					ErrInvalidNonce, tx.From, nonces[tx.From], tx.Nonce)
			}
			total := tx.Amount + tx.Fee
			if balances[tx.From] < total {
				return nil, fmt.Errorf("%w: account %s has %d, needs %d",
					ErrInsufficientFunds, tx.From, balances[tx.From], total)
			}
			balances[tx.From] -= total
			nonces[tx.From]++
			balances[tx.To] += tx.Amount
		}

		snaps := make([]accountSnapshot, len(order))
		for i, addr := range order {
			snaps[i] = *working[addr]
		}
		encoded, err := encodeBlockUndo(blockUndo{Snapshots: snaps})
		if err != nil {
			return nil, err
		}
		undos[bi] = encoded

		// Reset the touch cache's snapshots to reflect post-block state so
		// the next block's undo captures state as of immediately before it.
		for _, addr := range order {
			working[addr].Balance = balances[addr]
			working[addr].Nonce = nonces[addr]
			working[addr].Existed = true
		}
	}

	return undos, nil
}

// ApplyBlocks folds the given blocks' transactions into the ledger. Callers
// must have already verified this exact sequence.
func (l *Ledger) ApplyBlocks(blocks []*types.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.Type == types.TxTypeCoinbase {
				l.balances[tx.To] += tx.Amount
				continue
			}
			l.balances[tx.From] -= tx.Amount + tx.Fee
			l.nonces[tx.From]++
			l.balances[tx.To] += tx.Amount
		}
	}
	return nil
}

// RollbackBlocks restores every touched account to its pre-block snapshot,
// processing pairs in the order given (spec.md §4.4: newest-first).
func (l *Ledger) RollbackBlocks(pairs []types.BlockUndo) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, pair := range pairs {
		var bu blockUndo
		if err := decodeBlockUndo(pair.Undo.Tx, &bu); err != nil {
			return err
		}
		for _, snap := range bu.Snapshots {
			if !snap.Existed {
				delete(l.balances, snap.Addr)
				delete(l.nonces, snap.Addr)
				continue
			}
			l.balances[snap.Addr] = snap.Balance
			l.nonces[snap.Addr] = snap.Nonce
		}
	}
	return nil
}

func encodeBlockUndo(bu blockUndo) (types.TxUndo, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bu); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlockUndo(data []byte, bu *blockUndo) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(bu)
}
