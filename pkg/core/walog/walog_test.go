package walog

import (
	"path/filepath"
	"testing"

	"github.com/epochra/epochra/pkg/core/types"
)

func TestReadWithNoFileYieldsNoIntent(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "missing.log"))
	_, ok, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ok {
		t.Error("Read() on a never-written log: ok = true, want false")
	}
}

func TestWriteReadTruncateRoundTrip(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "intent.log"))

	block := &types.Block{Header: types.BlockHeader{Kind: types.MainHeaderKind, Difficulty: 1}}
	want := Intent{
		Op:     OpApply,
		OldTip: types.ComputeSHA256([]byte("old")),
		NewTip: types.ComputeSHA256([]byte("new")),
		Pairs:  []types.BlockUndo{{Block: block, Undo: types.Undo{Tx: []byte("tx-undo")}}},
	}

	if err := l.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, ok, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !ok {
		t.Fatal("Read() after Write(): ok = false, want true")
	}
	if got.Op != want.Op || got.OldTip != want.OldTip || got.NewTip != want.NewTip {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
	if len(got.Pairs) != 1 || got.Pairs[0].Block.Header.Difficulty != 1 {
		t.Errorf("Read() pairs = %+v, want one pair with difficulty 1", got.Pairs)
	}

	if err := l.Truncate(); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	if _, ok, err := l.Read(); err != nil || ok {
		t.Errorf("Read() after Truncate() = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestWriteReplacesPriorIntent(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "intent.log"))

	first := Intent{Op: OpApply, OldTip: types.ComputeSHA256([]byte("a"))}
	second := Intent{Op: OpRollback, OldTip: types.ComputeSHA256([]byte("b"))}

	if err := l.Write(first); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}
	if err := l.Write(second); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	got, ok, err := l.Read()
	if err != nil || !ok {
		t.Fatalf("Read() = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if got.Op != OpRollback || got.OldTip != second.OldTip {
		t.Errorf("Read() = %+v, want the second write's contents", got)
	}
}
