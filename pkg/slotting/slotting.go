// Package slotting implements the Slotting collaborator spec.md §6 names:
// getCurrentSlot() -> SlotId. The wall-clock service itself is an external
// collaborator (spec.md §1 out of scope); WallClock is the concrete,
// testable stand-in the core is wired against, grounded on the teacher's use
// of a fixed genesisTime plus elapsed wall-clock time (pkg/core/blockchain
// chain.go's genesisTime field).
package slotting

import (
	"time"

	"github.com/epochra/epochra/pkg/config"
	"github.com/epochra/epochra/pkg/core/types"
)

// Slotting is the collaborator interface the core consumes.
type Slotting interface {
	GetCurrentSlot() types.SlotId
}

// WallClock derives the current slot from elapsed time since GenesisTime.
type WallClock struct {
	Params config.Params
	Now    func() time.Time
}

var _ Slotting = (*WallClock)(nil)

// New builds a WallClock slotting service using time.Now for the clock.
func New(params config.Params) *WallClock {
	return &WallClock{Params: params, Now: time.Now}
}

// GetCurrentSlot returns the slot containing the current instant. Before
// GenesisTime it returns slot (0,0).
func (w *WallClock) GetCurrentSlot() types.SlotId {
	elapsed := w.Now().Sub(w.Params.GenesisTime)
	if elapsed < 0 {
		return types.SlotId{}
	}
	flat := uint64(elapsed / w.Params.SlotDuration)
	spe := uint64(w.Params.SlotsPerEpoch)
	return types.SlotId{
		Epoch: types.EpochIndex(flat / spe),
		Slot:  uint32(flat % spe),
	}
}
