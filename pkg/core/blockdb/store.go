// Package blockdb defines the BlockDB collaborator spec.md §6 names — the
// persistent block store the core consumes but does not implement the
// on-disk format of (spec.md §1 non-goals) — plus a concrete BadgerDB-backed
// implementation grounded on the teacher's pkg/core/blockchain/store.go.
package blockdb

import (
	"errors"

	"github.com/epochra/epochra/pkg/core/types"
)

// ErrNotFound is returned by lookups that find nothing. Callers that expect
// an Option<T> per spec.md treat this as the "none" case.
var ErrNotFound = errors.New("blockdb: not found")

// ErrTipNotSet is returned by Tip/TipBlock before any genesis has been stored.
var ErrTipNotSet = errors.New("blockdb: tip not set")

// BlockDB is the persistent store the core consumes (spec.md §6). All
// methods are suspension points (spec.md §5).
type BlockDB interface {
	// Tip returns the hash of the newest block on the local main chain.
	Tip() (types.Hash, error)
	// TipBlock returns the full block at the current tip.
	TipBlock() (*types.Block, error)
	// SetTip durably records the new tip hash. Apart from seeding genesis
	// into an empty store, it is only called from within Transact by the
	// apply/rollback engine while the tip semaphore is held.
	SetTip(h types.Hash) error

	// GetBlockHeader returns the header, or ErrNotFound.
	GetBlockHeader(h types.Hash) (types.BlockHeader, error)
	// GetBlock returns the full block, or ErrNotFound.
	GetBlock(h types.Hash) (*types.Block, error)
	// GetUndo returns the Undo stored alongside a block, or ErrNotFound.
	GetUndo(h types.Hash) (types.Undo, error)

	// IsBlockInMainChain reports the MainChainIndex predicate for h.
	IsBlockInMainChain(h types.Hash) (bool, error)
	// SetBlockInMainChain mutates the MainChainIndex predicate for h.
	SetBlockInMainChain(h types.Hash, inMain bool) error

	// PutBlock persists block together with its undo and initial main-chain
	// flag. Overwrites are idempotent (same block hashes to the same key).
	PutBlock(undo types.Undo, inMain bool, block *types.Block) error

	// LoadHeadersUntil walks parents from start toward genesis, calling pred
	// with each visited header and its depth from start (depth 0 = start
	// itself). It stops as soon as pred returns true for a header, or at
	// genesis, and returns every header visited, newest-first (start first).
	LoadHeadersUntil(start types.Hash, pred func(h types.BlockHeader, depth uint32) bool) ([]types.BlockHeader, error)

	// Transact runs fn against a BlockDB view whose writes (PutBlock,
	// SetBlockInMainChain, SetTip) are committed atomically together iff fn
	// returns nil, and discarded entirely otherwise. Required by the
	// apply/rollback engine (spec.md §9 atomicity design point).
	Transact(fn func(tx BlockDB) error) error

	Close() error
}
