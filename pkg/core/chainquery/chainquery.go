// Package chainquery implements the Chain Queries component (C1): ancestor
// search, header-range retrieval, exponential locators, and block-range
// lookup, grounded on spec.md §4.1. Per spec.md §9's design note, every walk
// here is an iterative loop, never recursive, bounded by k, by a checkpoint
// or range endpoint, or by reaching genesis.
package chainquery

import (
	"github.com/epochra/epochra/pkg/core/blockdb"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/types"
)

// LCAWithMainChain returns the hash of the newest element of headers (given
// newest-first) that is, or whose parent is, already on the main chain.
// The second return is false if no such ancestor exists.
func LCAWithMainChain(ctx *corectx.CoreCtx, headers []types.BlockHeader) (types.Hash, bool, error) {
	candidates := make([]types.Hash, 0, len(headers)+1)
	for _, h := range headers {
		candidates = append(candidates, ctx.Crypto.Hash(h))
	}
	candidates = append(candidates, headers[len(headers)-1].PrevHash)

	for _, h := range candidates {
		inMain, err := ctx.DB.IsBlockInMainChain(h)
		if err != nil {
			return types.Hash{}, false, err
		}
		if inMain {
			return h, true, nil
		}
	}
	return types.Hash{}, false, nil
}

// RetrieveHeadersFromTo returns headers in oldest-first order, from startFrom
// (inclusive) back to the first walked header whose EpochOrSlot matches a
// checkpoint's, plus that header's parent when it is stored locally; if no
// checkpoint is ever reached, the walk runs back to genesis. A nil startFrom
// resolves to the local tip.
func RetrieveHeadersFromTo(ctx *corectx.CoreCtx, checkpoints []types.Hash, startFrom *types.Hash) ([]types.BlockHeader, error) {
	checkpointSlots := make(map[int64]bool, len(checkpoints))
	for _, cp := range checkpoints {
		hdr, err := ctx.DB.GetBlockHeader(cp)
		if err != nil {
			if err == blockdb.ErrNotFound {
				continue
			}
			return nil, err
		}
		checkpointSlots[ctx.Params.FlattenEpochOrSlot(hdr.EpochOrSlot())] = true
	}

	start := startFrom
	if start == nil {
		tip, err := ctx.DB.Tip()
		if err != nil {
			return nil, err
		}
		start = &tip
	}

	var accumulated []types.BlockHeader
	cur := *start
	matched := false
	for {
		hdr, err := ctx.DB.GetBlockHeader(cur)
		if err != nil {
			return nil, err
		}
		accumulated = append(accumulated, hdr)

		if checkpointSlots[ctx.Params.FlattenEpochOrSlot(hdr.EpochOrSlot())] {
			matched = true
			break
		}
		if hdr.Kind == types.GenesisHeaderKind && hdr.PrevHash.IsZero() {
			break
		}
		cur = hdr.PrevHash
	}

	if matched {
		last := accumulated[len(accumulated)-1]
		if !(last.Kind == types.GenesisHeaderKind && last.PrevHash.IsZero()) {
			parent, err := ctx.DB.GetBlockHeader(last.PrevHash)
			if err != nil && err != blockdb.ErrNotFound {
				return nil, err
			}
			if err == nil {
				accumulated = append(accumulated, parent)
			}
		}
	}

	oldestFirst := make([]types.BlockHeader, len(accumulated))
	for i, h := range accumulated {
		oldestFirst[len(accumulated)-1-i] = h
	}
	return oldestFirst, nil
}

// locatorDepths returns the depths {0,1,2,4,...,2^n<k,k} used by
// GetHeadersOlderExp, ascending, deduplicated.
func locatorDepths(k uint32) []uint32 {
	depths := []uint32{0}
	for d := uint32(1); d < k; d *= 2 {
		depths = append(depths, d)
	}
	if len(depths) == 0 || depths[len(depths)-1] != k {
		depths = append(depths, k)
	}
	return depths
}

// GetHeadersOlderExp returns up to k+2 header hashes sampled from the main
// chain at depths {0,1,2,4,...,2^n<k,k}, counted from upto (or the tip if
// nil). Newest-first.
func GetHeadersOlderExp(ctx *corectx.CoreCtx, upto *types.Hash) ([]types.Hash, error) {
	start := upto
	if start == nil {
		tip, err := ctx.DB.Tip()
		if err != nil {
			return nil, err
		}
		start = &tip
	}

	k := ctx.Params.K
	byDepth := make([]types.Hash, 0, k+1)
	cur := *start
	for depth := uint32(0); depth <= k; depth++ {
		hdr, err := ctx.DB.GetBlockHeader(cur)
		if err != nil {
			break
		}
		byDepth = append(byDepth, cur)
		if hdr.Kind == types.GenesisHeaderKind && hdr.PrevHash.IsZero() {
			break
		}
		cur = hdr.PrevHash
	}

	var result []types.Hash
	for _, d := range locatorDepths(k) {
		if int(d) < len(byDepth) {
			result = append(result, byDepth[d])
		}
	}
	return result, nil
}

// GetBlocksByHeaders returns the block sequence [newer, ..., older]
// (newest-first) if both endpoints exist and newer is not strictly older
// than older. The second return is false if any step is missing or the
// ordering fails.
func GetBlocksByHeaders(ctx *corectx.CoreCtx, olderHash, newerHash types.Hash) ([]*types.Block, bool, error) {
	olderBlock, err := ctx.DB.GetBlock(olderHash)
	if err != nil {
		if err == blockdb.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	newerBlock, err := ctx.DB.GetBlock(newerHash)
	if err != nil {
		if err == blockdb.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	olderFlat := ctx.Params.FlattenEpochOrSlot(olderBlock.Header.EpochOrSlot())
	if ctx.Params.FlattenEpochOrSlot(newerBlock.Header.EpochOrSlot()) < olderFlat {
		return nil, false, nil
	}

	var blocks []*types.Block
	cur := newerBlock
	curHash := newerHash
	for {
		blocks = append(blocks, cur)
		if curHash == olderHash {
			return blocks, true, nil
		}
		if ctx.Params.FlattenEpochOrSlot(cur.Header.EpochOrSlot()) <= olderFlat {
			return nil, false, nil
		}

		parentHash := cur.Header.PrevHash
		parent, err := ctx.DB.GetBlock(parentHash)
		if err != nil {
			if err == blockdb.ErrNotFound {
				return nil, false, nil
			}
			return nil, false, err
		}
		cur = parent
		curHash = parentHash
	}
}
