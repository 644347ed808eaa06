package types

import "fmt"

// EpochIndex identifies an epoch. Epochs are numbered from zero and only increase.
type EpochIndex uint64

// SlotId is a slot's position within an epoch. Ordering between slots requires
// a SlotsPerEpoch value (see Params.Flatten) since SlotId alone doesn't carry it.
type SlotId struct {
	Epoch EpochIndex
	Slot  uint32
}

func (s SlotId) String() string {
	return fmt.Sprintf("%d.%d", s.Epoch, s.Slot)
}

// EpochOrSlotKind distinguishes the two cases of EpochOrSlot.
type EpochOrSlotKind uint8

const (
	// AtSlot marks a regular slot.
	AtSlot EpochOrSlotKind = iota
	// AtEpochBoundary marks the genesis of an epoch, which precedes every
	// regular slot of that epoch but follows every slot of the previous one.
	AtEpochBoundary
)

// EpochOrSlot is the tagged union spec.md §3 describes: either an epoch
// boundary or a regular slot, but always comparable via Params.FlattenEpochOrSlot.
type EpochOrSlot struct {
	Kind  EpochOrSlotKind
	Epoch EpochIndex // valid when Kind == AtEpochBoundary
	Slot  SlotId     // valid when Kind == AtSlot
}

// EpochOrSlotOfEpoch builds the epoch-boundary case.
func EpochOrSlotOfEpoch(e EpochIndex) EpochOrSlot {
	return EpochOrSlot{Kind: AtEpochBoundary, Epoch: e}
}

// EpochOrSlotOfSlot builds the regular-slot case.
func EpochOrSlotOfSlot(s SlotId) EpochOrSlot {
	return EpochOrSlot{Kind: AtSlot, Slot: s}
}
