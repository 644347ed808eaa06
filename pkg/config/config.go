package config

import (
	"time"

	"github.com/epochra/epochra/pkg/core/types"
)

// Params holds the protocol-wide parameters the core is generalized over, in
// place of compiled-in constants. corectx.CoreCtx carries exactly one Params
// value and threads it to every component that needs slotsPerEpoch or k
// (spec.md §3, §4.1.3, §4.2.2).
type Params struct {
	// SlotsPerEpoch is the fixed number of slots in every epoch.
	SlotsPerEpoch uint32
	// K is the maximum fork depth, in slots, the node will accept.
	K uint32
	// SlotDuration is the wall-clock length of one slot.
	SlotDuration time.Duration
	// GenesisTime is slot (0,0)'s start instant.
	GenesisTime time.Time
}

// Flatten implements spec.md §3's flatten(s) = s.epoch*slotsPerEpoch + s.slot,
// the total order over SlotId.
func (p Params) Flatten(s types.SlotId) int64 {
	return int64(s.Epoch)*int64(p.SlotsPerEpoch) + int64(s.Slot)
}

// FlattenEpochOrSlot orders an EpochOrSlot the same way, treating an epoch
// boundary as slot 0 of that epoch: it flattens to the same value as the
// epoch's first regular slot and sorts after the previous epoch's last.
func (p Params) FlattenEpochOrSlot(eos types.EpochOrSlot) int64 {
	if eos.Kind == types.AtEpochBoundary {
		return p.Flatten(types.SlotId{Epoch: eos.Epoch, Slot: 0})
	}
	return p.Flatten(eos.Slot)
}

// TestnetParams defines the parameters for the Epochra test network.
var TestnetParams = Params{
	SlotsPerEpoch: 21600, // 6 hours at 1s slots
	K:             2160,  // accept forks up to 10% of an epoch deep
	SlotDuration:  time.Second,
	GenesisTime:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
}

// Network names the seed topology a node joins. Network transport itself is
// out of scope for this repository; this struct is consumed by ambient CLI
// glue only.
type Network struct {
	Name      string
	SeedNodes []string
}

// Testnet is the default Network a freshly started node joins.
var Testnet = Network{
	Name:      "epochra-testnet-v1",
	SeedNodes: []string{},
}
