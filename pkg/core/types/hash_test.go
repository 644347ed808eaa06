package types

import "testing"

func TestHashFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr bool
	}{
		{"valid length", make([]byte, HashSize), false},
		{"too short", make([]byte, HashSize-1), true},
		{"too long", make([]byte, HashSize+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HashFromBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("HashFromBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashFromHex(t *testing.T) {
	want := ComputeSHA256([]byte("epochra"))
	h, err := HashFromHex(want.Hex())
	if err != nil {
		t.Fatalf("HashFromHex() error = %v", err)
	}
	if h != want {
		t.Errorf("HashFromHex() = %v, want %v", h, want)
	}

	if _, err := HashFromHex("not-hex!!"); err == nil {
		t.Error("HashFromHex() with invalid hex: want error, got nil")
	}
}

func TestHashIsZero(t *testing.T) {
	var z Hash
	if !z.IsZero() {
		t.Error("zero-value Hash.IsZero() = false, want true")
	}
	if ZeroHash.IsZero() != true {
		t.Error("ZeroHash.IsZero() = false, want true")
	}
	nz := ComputeSHA256([]byte("x"))
	if nz.IsZero() {
		t.Error("nonzero Hash.IsZero() = true, want false")
	}
}

func TestComputeSHA256Deterministic(t *testing.T) {
	a := ComputeSHA256([]byte("payload"))
	b := ComputeSHA256([]byte("payload"))
	if a != b {
		t.Error("ComputeSHA256 is not deterministic for identical input")
	}
	c := ComputeSHA256([]byte("different"))
	if a == c {
		t.Error("ComputeSHA256 produced equal hashes for different input")
	}
}
