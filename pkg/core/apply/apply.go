// Package apply implements the Apply/Rollback Engine (C4) and its crash
// recovery, grounded on spec.md §4.4 and the write-ahead design point of
// §9/SPEC_FULL.md §6. Every entry point here assumes its precondition: the
// sequence has already been verified. ApplyBlocks, RollbackBlocks and
// SwitchChain take the tip semaphore themselves, so the caller must not
// already hold it.
package apply

import (
	"context"

	"github.com/epochra/epochra/pkg/core/blockdb"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/metrics"
	"github.com/epochra/epochra/pkg/core/semaphore"
	"github.com/epochra/epochra/pkg/core/types"
	"github.com/epochra/epochra/pkg/core/walog"
)

// ApplyBlocks persists pairs (oldest-first) as the new head of the main
// chain, under the tip semaphore.
func ApplyBlocks(goCtx context.Context, ctx *corectx.CoreCtx, pairs []types.BlockUndo) error {
	return semaphore.WithBlkSemaphore(goCtx, ctx.Sem, func(_ context.Context, oldTip types.Hash) (types.Hash, error) {
		return lowApply(ctx, oldTip, pairs)
	})
}

// RollbackBlocks undoes pairs (newest-first, head at the current tip),
// under the tip semaphore.
func RollbackBlocks(goCtx context.Context, ctx *corectx.CoreCtx, pairs []types.BlockUndo) error {
	return semaphore.WithBlkSemaphore(goCtx, ctx.Sem, func(_ context.Context, oldTip types.Hash) (types.Hash, error) {
		return lowRollback(ctx, oldTip, pairs)
	})
}

// SwitchChain rolls the main chain back to the fork point and applies the
// alternative fork in a single critical section, so readers never observe
// the intermediate (rolled-back-only) tip. rollbackPairs are newest-first
// down to (exclusive of) the fork point; applyPairs are oldest-first from
// the fork point's child up to the new tip.
func SwitchChain(goCtx context.Context, ctx *corectx.CoreCtx, rollbackPairs, applyPairs []types.BlockUndo) error {
	err := semaphore.WithBlkSemaphore(goCtx, ctx.Sem, func(_ context.Context, oldTip types.Hash) (types.Hash, error) {
		mid, err := lowRollback(ctx, oldTip, rollbackPairs)
		if err != nil {
			return types.Hash{}, err
		}
		return lowApply(ctx, mid, applyPairs)
	})
	if err == nil {
		metrics.Reorgs.Inc()
	}
	return err
}

// Recover replays any intent a prior crash left behind in ctx.Walog. It must
// run once at startup, after corectx.New and before any ApplyBlocks or
// RollbackBlocks call.
func Recover(ctx *corectx.CoreCtx) error {
	intent, ok, err := ctx.Walog.Read()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	tip, err := ctx.DB.Tip()
	if err != nil {
		return err
	}

	switch tip {
	case intent.NewTip:
		// The store transaction already committed; only the in-memory
		// Txp/Ssc folds (lost across restart) still need redoing.
		blocks := blocksOnly(intent.Pairs)
		if intent.Op == walog.OpApply {
			if err := ctx.Txp.ApplyBlocks(blocks); err != nil {
				return err
			}
			if err := ctx.Ssc.ApplyBlocks(blocks); err != nil {
				return err
			}
		} else {
			if err := ctx.Txp.RollbackBlocks(intent.Pairs); err != nil {
				return err
			}
			if err := ctx.Ssc.Rollback(intent.Pairs); err != nil {
				return err
			}
		}
		return ctx.Walog.Truncate()

	case intent.OldTip:
		// The store transaction never committed; redo the whole step, then
		// move the tip semaphore (seeded from the pre-recovery tip) along.
		var newTip types.Hash
		var err error
		if intent.Op == walog.OpApply {
			newTip, err = lowApply(ctx, intent.OldTip, intent.Pairs)
		} else {
			newTip, err = lowRollback(ctx, intent.OldTip, intent.Pairs)
		}
		if err != nil {
			return err
		}
		if _, err := ctx.Sem.Take(context.Background()); err != nil {
			return err
		}
		ctx.Sem.Put(newTip)
		return nil

	default:
		panic("apply: walog intent matches neither the pre- nor post-state tip")
	}
}

func lowApply(ctx *corectx.CoreCtx, oldTip types.Hash, pairs []types.BlockUndo) (types.Hash, error) {
	newTip := ctx.Crypto.Hash(pairs[len(pairs)-1].Block.Header)

	intent := walog.Intent{Op: walog.OpApply, OldTip: oldTip, NewTip: newTip, Pairs: pairs}
	if err := ctx.Walog.Write(intent); err != nil {
		return types.Hash{}, err
	}

	err := ctx.DB.Transact(func(tx blockdb.BlockDB) error {
		for _, p := range pairs {
			if err := tx.PutBlock(p.Undo, true, p.Block); err != nil {
				return err
			}
		}
		return tx.SetTip(newTip)
	})
	if err != nil {
		return types.Hash{}, err
	}

	blocks := blocksOnly(pairs)
	if err := ctx.Txp.ApplyBlocks(blocks); err != nil {
		panic("apply: txp fold failed after a verified sequence: " + err.Error())
	}
	if err := ctx.Ssc.ApplyBlocks(blocks); err != nil {
		panic("apply: ssc fold failed after a verified sequence: " + err.Error())
	}

	if err := ctx.Walog.Truncate(); err != nil {
		return types.Hash{}, err
	}
	metrics.BlocksApplied.Add(float64(len(pairs)))
	return newTip, nil
}

func lowRollback(ctx *corectx.CoreCtx, oldTip types.Hash, pairs []types.BlockUndo) (types.Hash, error) {
	newTip := pairs[len(pairs)-1].Block.Header.PrevHash

	intent := walog.Intent{Op: walog.OpRollback, OldTip: oldTip, NewTip: newTip, Pairs: pairs}
	if err := ctx.Walog.Write(intent); err != nil {
		return types.Hash{}, err
	}

	if err := ctx.Txp.RollbackBlocks(pairs); err != nil {
		panic("apply: txp rollback failed after a verified sequence: " + err.Error())
	}

	err := ctx.DB.Transact(func(tx blockdb.BlockDB) error {
		for _, p := range pairs {
			h := ctx.Crypto.Hash(p.Block.Header)
			if err := tx.SetBlockInMainChain(h, false); err != nil {
				return err
			}
		}
		return tx.SetTip(newTip)
	})
	if err != nil {
		return types.Hash{}, err
	}

	if err := ctx.Ssc.Rollback(pairs); err != nil {
		panic("apply: ssc rollback failed after a verified sequence: " + err.Error())
	}

	if err := ctx.Walog.Truncate(); err != nil {
		return types.Hash{}, err
	}
	metrics.BlocksRolledBack.Add(float64(len(pairs)))
	return newTip, nil
}

func blocksOnly(pairs []types.BlockUndo) []*types.Block {
	blocks := make([]*types.Block, len(pairs))
	for i, p := range pairs {
		blocks[i] = p.Block
	}
	return blocks
}
