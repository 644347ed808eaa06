// Package classify implements the Header Classifier component (C2),
// grounded on spec.md §4.2.
package classify

import (
	"fmt"

	"github.com/epochra/epochra/pkg/core/chainquery"
	"github.com/epochra/epochra/pkg/core/corectx"
	"github.com/epochra/epochra/pkg/core/metrics"
	"github.com/epochra/epochra/pkg/core/types"
)

// Outcome is the classification of a single candidate header.
type Outcome int

const (
	Continues Outcome = iota
	Alternative
	Useless
	Invalid
)

// Classification is the result of ClassifyNewHeader.
type Classification struct {
	Outcome Outcome
	Reason  string // set when Outcome is Useless or Invalid
}

func (o Outcome) String() string {
	switch o {
	case Continues:
		return "continues"
	case Alternative:
		return "alternative"
	case Useless:
		return "useless"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func (o SequenceOutcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case SequenceUseless:
		return "useless"
	case SequenceInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// SequenceOutcome is the classification of a candidate header sequence.
type SequenceOutcome int

const (
	Valid SequenceOutcome = iota
	SequenceUseless
	SequenceInvalid
)

// SequenceClassification is the result of ClassifyHeaders.
type SequenceClassification struct {
	Outcome SequenceOutcome
	Header  types.BlockHeader // set when Outcome is Valid: the lca-child attach point, or the tip header when the lca is the tip
	Reason  string            // set when Outcome is SequenceUseless or SequenceInvalid
}

// ClassifyNewHeader classifies a single candidate header against the
// current tip and slot.
func ClassifyNewHeader(ctx *corectx.CoreCtx, h types.BlockHeader) (result Classification, err error) {
	defer func() {
		if err == nil {
			metrics.HeadersClassified.WithLabelValues(result.Outcome.String()).Inc()
		}
	}()

	if h.Kind == types.GenesisHeaderKind {
		return Classification{Outcome: Useless, Reason: "genesis header is useless"}, nil
	}

	currentSlot := ctx.Slotting.GetCurrentSlot()
	if h.Slot != currentSlot {
		return Classification{Outcome: Useless, Reason: "header is not for current slot"}, nil
	}

	tipHash, err := ctx.DB.Tip()
	if err != nil {
		return Classification{}, err
	}
	tipBlock, err := ctx.DB.TipBlock()
	if err != nil {
		return Classification{}, err
	}

	switch {
	case h.PrevHash == tipHash:
		if err := ctx.Verify.VerifyHeader(ctx.Params, tipBlock.Header, h, true); err != nil {
			return Classification{Outcome: Invalid, Reason: err.Error()}, nil
		}
		return Classification{Outcome: Continues}, nil
	case tipBlock.Header.Difficulty < h.Difficulty:
		return Classification{Outcome: Alternative}, nil
	default:
		return Classification{Outcome: Useless, Reason: "header doesn't continue main chain and is not more difficult"}, nil
	}
}

// ClassifyHeaders classifies a newest-first nonempty header sequence.
func ClassifyHeaders(ctx *corectx.CoreCtx, headers []types.BlockHeader) (result SequenceClassification, err error) {
	defer func() {
		if err == nil {
			metrics.HeadersClassified.WithLabelValues(result.Outcome.String()).Inc()
		}
	}()

	last := headers[len(headers)-1]
	lastHash := ctx.Crypto.Hash(last)
	if _, err := ctx.DB.GetBlockHeader(lastHash); err != nil {
		return SequenceClassification{
			Outcome: SequenceInvalid,
			Reason:  "Last block of the passed chain wasn't found locally",
		}, nil
	}

	if err := ctx.Verify.VerifyHeaders(ctx.Params, true, headers); err != nil {
		return SequenceClassification{Outcome: SequenceInvalid, Reason: "Header chain is invalid"}, nil
	}

	lca, found, err := chainquery.LCAWithMainChain(ctx, headers)
	if err != nil {
		return SequenceClassification{}, err
	}
	if !found {
		panic("classify: no LCA found for a header sequence whose last element is locally known")
	}

	lcaHeader, err := ctx.DB.GetBlockHeader(lca)
	if err != nil {
		return SequenceClassification{}, err
	}
	tipBlock, err := ctx.DB.TipBlock()
	if err != nil {
		return SequenceClassification{}, err
	}
	tipHash, err := ctx.DB.Tip()
	if err != nil {
		return SequenceClassification{}, err
	}

	depthDiff := ctx.Params.FlattenEpochOrSlot(tipBlock.Header.EpochOrSlot()) - ctx.Params.FlattenEpochOrSlot(lcaHeader.EpochOrSlot())
	if depthDiff < 0 {
		panic("classify: negative depth difference between tip and lca")
	}
	if depthDiff > int64(ctx.Params.K) {
		return SequenceClassification{
			Outcome: SequenceUseless,
			Reason: fmt.Sprintf("Slot difference of (tip,lca) is %d which is more than k = %d",
				depthDiff, ctx.Params.K),
		}, nil
	}

	if lca == tipHash {
		return SequenceClassification{Outcome: Valid, Header: tipBlock.Header}, nil
	}

	for _, h := range headers {
		if h.PrevHash == lca {
			return SequenceClassification{Outcome: Valid, Header: h}, nil
		}
	}
	panic("classify: no element of the header sequence attaches to its own lca")
}
