package apply

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/epochra/epochra/pkg/config"
	"github.com/epochra/epochra/pkg/core/blockdb"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/hashing"
	"github.com/epochra/epochra/pkg/core/headerverify"
	"github.com/epochra/epochra/pkg/core/semaphore"
	"github.com/epochra/epochra/pkg/core/types"
	"github.com/epochra/epochra/pkg/core/walog"
	"github.com/epochra/epochra/pkg/ssc"
	"github.com/epochra/epochra/pkg/txp"
)

func buildTestCtx(t *testing.T) *corectx.CoreCtx {
	t.Helper()
	crypto := hashing.SHA256Crypto{}
	db := blockdb.NewMemStore(crypto)
	params := config.Params{SlotsPerEpoch: 1000, K: 5}

	genesis := &types.Block{Header: types.BlockHeader{Kind: types.GenesisHeaderKind, Epoch: 0}}
	if err := db.PutBlock(types.Undo{}, true, genesis); err != nil {
		t.Fatalf("PutBlock(genesis) error = %v", err)
	}
	tip := crypto.Hash(genesis.Header)
	if err := db.SetTip(tip); err != nil {
		t.Fatalf("SetTip() error = %v", err)
	}

	return &corectx.CoreCtx{
		Params: params,
		DB:     db,
		Crypto: crypto,
		Verify: headerverify.New(crypto),
		Txp:    txp.NewLedger(),
		Ssc:    ssc.NewLedger(),
		Sem:    semaphore.New(tip),
		Walog:  walog.Open(filepath.Join(t.TempDir(), "intent.log")),
	}
}

func buildMainBlock(crypto hashing.Crypto, parent types.BlockHeader, slot types.SlotId) *types.Block {
	h := types.BlockHeader{
		Kind:       types.MainHeaderKind,
		Slot:       slot,
		PrevHash:   crypto.Hash(parent),
		Difficulty: parent.Difficulty + 1,
	}
	return &types.Block{Header: h}
}

// verifiedPair pairs block with the Undo that ctx's Txp and Ssc ledgers
// produce for it, the same records verify.VerifyBlocks would hand back.
func verifiedPair(t *testing.T, ctx *corectx.CoreCtx, block *types.Block) types.BlockUndo {
	t.Helper()
	txUndos, err := ctx.Txp.VerifyBlocks([]*types.Block{block})
	if err != nil {
		t.Fatalf("Txp.VerifyBlocks() error = %v", err)
	}
	sscUndos, err := ctx.Ssc.VerifyBlocks([]*types.Block{block})
	if err != nil {
		t.Fatalf("Ssc.VerifyBlocks() error = %v", err)
	}
	return types.BlockUndo{Block: block, Undo: types.Undo{Tx: txUndos[0], Ssc: sscUndos[0]}}
}

func TestApplyBlocksMovesTip(t *testing.T) {
	ctx := buildTestCtx(t)
	genesis := types.BlockHeader{Kind: types.GenesisHeaderKind, Epoch: 0}
	block := buildMainBlock(ctx.Crypto, genesis, types.SlotId{Epoch: 0, Slot: 1})

	pair := types.BlockUndo{Block: block, Undo: types.Undo{}}
	if err := ApplyBlocks(context.Background(), ctx, []types.BlockUndo{pair}); err != nil {
		t.Fatalf("ApplyBlocks() error = %v", err)
	}

	tip, err := ctx.DB.Tip()
	if err != nil {
		t.Fatalf("Tip() error = %v", err)
	}
	if tip != ctx.Crypto.Hash(block.Header) {
		t.Errorf("tip after ApplyBlocks() = %v, want %v", tip, ctx.Crypto.Hash(block.Header))
	}

	inMain, err := ctx.DB.IsBlockInMainChain(tip)
	if err != nil {
		t.Fatalf("IsBlockInMainChain() error = %v", err)
	}
	if !inMain {
		t.Error("block not flagged in main chain after ApplyBlocks()")
	}

	if _, ok, err := ctx.Walog.Read(); err != nil || ok {
		t.Errorf("walog not truncated after a successful ApplyBlocks(): ok=%v err=%v", ok, err)
	}
}

func TestRollbackBlocksRestoresParentTip(t *testing.T) {
	ctx := buildTestCtx(t)
	genesis := types.BlockHeader{Kind: types.GenesisHeaderKind, Epoch: 0}
	block := buildMainBlock(ctx.Crypto, genesis, types.SlotId{Epoch: 0, Slot: 1})
	pair := verifiedPair(t, ctx, block)

	if err := ApplyBlocks(context.Background(), ctx, []types.BlockUndo{pair}); err != nil {
		t.Fatalf("ApplyBlocks() error = %v", err)
	}
	if err := RollbackBlocks(context.Background(), ctx, []types.BlockUndo{pair}); err != nil {
		t.Fatalf("RollbackBlocks() error = %v", err)
	}

	tip, err := ctx.DB.Tip()
	if err != nil {
		t.Fatalf("Tip() error = %v", err)
	}
	if tip != ctx.Crypto.Hash(genesis) {
		t.Errorf("tip after RollbackBlocks() = %v, want genesis %v", tip, ctx.Crypto.Hash(genesis))
	}

	inMain, err := ctx.DB.IsBlockInMainChain(ctx.Crypto.Hash(block.Header))
	if err != nil {
		t.Fatalf("IsBlockInMainChain() error = %v", err)
	}
	if inMain {
		t.Error("rolled-back block still flagged in main chain")
	}
}

func TestSwitchChainReorgsInOneStep(t *testing.T) {
	ctx := buildTestCtx(t)
	genesis := types.BlockHeader{Kind: types.GenesisHeaderKind, Epoch: 0}
	oldBlock := buildMainBlock(ctx.Crypto, genesis, types.SlotId{Epoch: 0, Slot: 1})
	oldPair := verifiedPair(t, ctx, oldBlock)
	if err := ApplyBlocks(context.Background(), ctx, []types.BlockUndo{oldPair}); err != nil {
		t.Fatalf("ApplyBlocks(old) error = %v", err)
	}

	newBlock := buildMainBlock(ctx.Crypto, genesis, types.SlotId{Epoch: 0, Slot: 2})
	newPair := verifiedPair(t, ctx, newBlock)

	if err := SwitchChain(context.Background(), ctx, []types.BlockUndo{oldPair}, []types.BlockUndo{newPair}); err != nil {
		t.Fatalf("SwitchChain() error = %v", err)
	}

	tip, err := ctx.DB.Tip()
	if err != nil {
		t.Fatalf("Tip() error = %v", err)
	}
	if tip != ctx.Crypto.Hash(newBlock.Header) {
		t.Errorf("tip after SwitchChain() = %v, want new fork tip %v", tip, ctx.Crypto.Hash(newBlock.Header))
	}
}

func TestRecoverNoPendingIntentIsNoop(t *testing.T) {
	ctx := buildTestCtx(t)
	if err := Recover(ctx); err != nil {
		t.Fatalf("Recover() with no pending intent: error = %v", err)
	}
}

func TestRecoverRedoesCommittedStoreTransaction(t *testing.T) {
	ctx := buildTestCtx(t)
	genesis := types.BlockHeader{Kind: types.GenesisHeaderKind, Epoch: 0}
	block := buildMainBlock(ctx.Crypto, genesis, types.SlotId{Epoch: 0, Slot: 1})
	pair := types.BlockUndo{Block: block, Undo: types.Undo{}}

	// Simulate a crash after the store transaction committed but before the
	// walog was truncated: write the intent and the store mutation directly,
	// bypassing lowApply's own truncate step.
	intent := walog.Intent{Op: walog.OpApply, OldTip: ctx.Crypto.Hash(genesis), NewTip: ctx.Crypto.Hash(block.Header), Pairs: []types.BlockUndo{pair}}
	if err := ctx.Walog.Write(intent); err != nil {
		t.Fatalf("Walog.Write() error = %v", err)
	}
	if err := ctx.DB.PutBlock(types.Undo{}, true, block); err != nil {
		t.Fatalf("PutBlock() error = %v", err)
	}
	if err := ctx.DB.SetTip(intent.NewTip); err != nil {
		t.Fatalf("SetTip() error = %v", err)
	}

	if err := Recover(ctx); err != nil {
		t.Fatalf("Recover() error = %v", err)
	}

	if _, ok, err := ctx.Walog.Read(); err != nil || ok {
		t.Errorf("walog not truncated after Recover(): ok=%v err=%v", ok, err)
	}
}
