// Package verify implements the Block Verifier component (C3), grounded on
// spec.md §4.3: a short-circuiting pipeline of structural, SSC, then
// transaction verification over an oldest-first block sequence.
package verify

import (
	"time"

	"github.com/epochra/epochra/pkg/core/chainerr"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/metrics"
	"github.com/epochra/epochra/pkg/core/types"
)

// VerifyBlocks takes a nonempty oldest-first block sequence and returns a
// matching nonempty sequence of Undo records, or the error of the first
// pipeline stage that fails (a joined chainerr error from the structural
// stage, the collaborator's own error from the Ssc and Txp stages).
func VerifyBlocks(ctx *corectx.CoreCtx, blocks []*types.Block) (undos []types.Undo, err error) {
	start := time.Now()
	stage := "structural"
	defer func() {
		metrics.VerifyBlocksDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()

	if len(blocks) == 0 {
		return nil, chainerr.New("verify: empty block sequence")
	}

	currentFlat := ctx.Params.Flatten(ctx.Slotting.GetCurrentSlot())

	tipHash, err := ctx.DB.Tip()
	if err != nil {
		return nil, err
	}
	if blocks[0].Header.PrevHash != tipHash {
		return nil, chainerr.New("oldest block's parent does not equal the current tip")
	}
	tipBlock, err := ctx.DB.TipBlock()
	if err != nil {
		return nil, err
	}

	// newestFirst holds the candidate headers newest-first, with the tip
	// header appended as the oldest element so VerifyHeaders also checks the
	// oldest candidate's linkage to the chain it's extending.
	newestFirst := make([]types.BlockHeader, len(blocks)+1)
	for i, b := range blocks {
		newestFirst[len(blocks)-1-i] = b.Header
	}
	newestFirst[len(blocks)] = tipBlock.Header

	if err := ctx.Verify.VerifyHeaders(ctx.Params, true, newestFirst); err != nil {
		return nil, err
	}

	for _, b := range blocks {
		if ctx.Params.FlattenEpochOrSlot(b.Header.EpochOrSlot()) > currentFlat {
			return nil, chainerr.New("block slot is ahead of the current slot")
		}
	}

	stage = "ssc"
	sscUndos, err := ctx.Ssc.VerifyBlocks(blocks)
	if err != nil {
		return nil, err
	}

	stage = "txp"
	txUndos, err := ctx.Txp.VerifyBlocks(blocks)
	if err != nil {
		return nil, err
	}

	stage = "ok"
	undos = make([]types.Undo, len(blocks))
	for i := range blocks {
		undos[i] = types.Undo{Tx: txUndos[i], Ssc: sscUndos[i]}
	}
	return undos, nil
}
