package types

import "testing"

func TestTransactionComputeID(t *testing.T) {
	tx := &Transaction{
		Type:   TxTypeTransfer,
		From:   ComputeSHA256([]byte("alice")),
		To:     ComputeSHA256([]byte("bob")),
		Amount: 500,
		Fee:    1,
		Nonce:  4,
	}
	id1 := tx.ComputeID()
	id2 := tx.ComputeID()
	if id1 != id2 {
		t.Error("ComputeID() is not deterministic for an unchanged transaction")
	}

	other := *tx
	other.Nonce = 5
	if other.ComputeID() == id1 {
		t.Error("ComputeID() did not change when Nonce changed")
	}
}

func TestNewCoinbaseTx(t *testing.T) {
	addr := ComputeSHA256([]byte("miner"))
	tx := NewCoinbaseTx(addr, NewAmountFromEPR(10), 0)

	if tx.Type != TxTypeCoinbase {
		t.Errorf("Type = %v, want TxTypeCoinbase", tx.Type)
	}
	if tx.From != ZeroHash {
		t.Errorf("From = %v, want ZeroHash", tx.From)
	}
	if tx.To != addr {
		t.Errorf("To = %v, want %v", tx.To, addr)
	}
	if tx.ID != tx.ComputeID() {
		t.Error("ID was not set to ComputeID() at construction")
	}
}

func TestAmountConversion(t *testing.T) {
	a := NewAmountFromEPR(2)
	if uint64(a) != 2*DucatsPerEPR {
		t.Errorf("NewAmountFromEPR(2) = %d ducats, want %d", a, 2*DucatsPerEPR)
	}
	if a.ToEPR() != 2.0 {
		t.Errorf("ToEPR() = %f, want 2.0", a.ToEPR())
	}
}
