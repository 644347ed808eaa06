// Package headerverify implements the HeaderVerify collaborator spec.md §6
// names: verifyHeader (a single header against its parent) and verifyHeaders
// (a newest-first chain's internal consistency), both returning a joined,
// order-preserving error on failure (pkg/core/chainerr).
package headerverify

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/epochra/epochra/pkg/config"
	"github.com/epochra/epochra/pkg/core/chainerr"
	"github.com/epochra/epochra/pkg/core/hashing"
	"github.com/epochra/epochra/pkg/core/types"
	"github.com/epochra/epochra/pkg/wallet"
)

// Verifier is the concrete HeaderVerify implementation.
type Verifier struct {
	Crypto hashing.Crypto
}

// New builds a Verifier over the given Crypto collaborator.
func New(crypto hashing.Crypto) *Verifier {
	return &Verifier{Crypto: crypto}
}

// VerifyHeader checks h for structural validity against its parent: hash
// linkage, the difficulty invariant of spec.md §3
// (difficulty(h) = difficulty(parent) + Δ(h)), and epoch/slot monotonicity.
// When requireConsensus is set, a MainHeader's ConsensusProof must also carry
// a valid Ed25519 signature from its claimed leader.
func (v *Verifier) VerifyHeader(params config.Params, parent, h types.BlockHeader, requireConsensus bool) error {
	var msgs []string

	if h.PrevHash != v.Crypto.Hash(parent) {
		msgs = append(msgs, "header prevHash does not match parent hash")
	}
	if h.Difficulty != parent.Difficulty+h.DifficultyDelta() {
		msgs = append(msgs, fmt.Sprintf("header difficulty %d does not equal parent difficulty %d + delta %d",
			h.Difficulty, parent.Difficulty, h.DifficultyDelta()))
	}
	if params.FlattenEpochOrSlot(h.EpochOrSlot()) <= params.FlattenEpochOrSlot(parent.EpochOrSlot()) {
		msgs = append(msgs, "header does not strictly follow its parent in epoch/slot order")
	}
	if h.Kind == types.MainHeaderKind && requireConsensus {
		if !wallet.VerifyHeaderProof(h) {
			msgs = append(msgs, "consensus proof signature is invalid")
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	return &chainerr.ValidationError{Messages: msgs}
}

// VerifyHeaders checks a newest-first header sequence for internal
// consistency: each header's PrevHash must equal the hash of the next
// (older) header, and each header must individually pass VerifyHeader
// against that next header as its parent. Per-header checks run
// concurrently (they're independent once linkage is established) and
// errors are joined back in their original, newest-first order.
func (v *Verifier) VerifyHeaders(params config.Params, requireConsensus bool, headers []types.BlockHeader) error {
	if len(headers) < 2 {
		return nil
	}

	errs := make([]error, len(headers)-1)
	var g errgroup.Group
	for i := 0; i < len(headers)-1; i++ {
		i := i
		g.Go(func() error {
			errs[i] = v.VerifyHeader(params, headers[i+1], headers[i], requireConsensus)
			return nil
		})
	}
	_ = g.Wait()

	return asError(chainerr.Join(errs...))
}

// asError converts a possibly-nil *chainerr.ValidationError to a nil-able
// error interface value without the classic non-nil-interface-wrapping-a-
// nil-pointer trap.
func asError(ve *chainerr.ValidationError) error {
	if ve == nil {
		return nil
	}
	return ve
}
