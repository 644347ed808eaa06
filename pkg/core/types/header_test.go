package types

import "testing"

func TestDifficultyDelta(t *testing.T) {
	tests := []struct {
		name string
		kind HeaderKind
		want uint64
	}{
		{"genesis", GenesisHeaderKind, 0},
		{"main", MainHeaderKind, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BlockHeader{Kind: tt.kind}
			if got := h.DifficultyDelta(); got != tt.want {
				t.Errorf("DifficultyDelta() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeaderEpochOrSlot(t *testing.T) {
	genesis := BlockHeader{Kind: GenesisHeaderKind, Epoch: 3}
	eos := genesis.EpochOrSlot()
	if eos.Kind != AtEpochBoundary || eos.Epoch != 3 {
		t.Errorf("genesis.EpochOrSlot() = %+v, want epoch boundary at 3", eos)
	}

	main := BlockHeader{Kind: MainHeaderKind, Slot: SlotId{Epoch: 3, Slot: 12}}
	eos = main.EpochOrSlot()
	if eos.Kind != AtSlot || eos.Slot != (SlotId{Epoch: 3, Slot: 12}) {
		t.Errorf("main.EpochOrSlot() = %+v, want slot 3.12", eos)
	}
}

func TestSignableBytesLengthAndDeterminism(t *testing.T) {
	h := BlockHeader{
		Kind:       MainHeaderKind,
		Slot:       SlotId{Epoch: 7, Slot: 41},
		PrevHash:   ComputeSHA256([]byte("parent")),
		Difficulty: 99,
	}
	b1 := h.SignableBytes()
	if len(b1) != 61 {
		t.Fatalf("SignableBytes() length = %d, want 61", len(b1))
	}
	b2 := h.SignableBytes()
	if string(b1) != string(b2) {
		t.Error("SignableBytes() is not deterministic for an unchanged header")
	}

	h2 := h
	h2.Difficulty++
	if string(h.SignableBytes()) == string(h2.SignableBytes()) {
		t.Error("SignableBytes() did not change when Difficulty changed")
	}
}
