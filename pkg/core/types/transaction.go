package types

import "encoding/binary"

// Serialize returns a deterministic byte encoding of the transaction fields
// (excluding ID and Signature) for signing and hashing.
// Type(1) + From(32) + To(32) + Amount(8) + Fee(8) + Nonce(8) = 89 bytes.
func (tx *Transaction) Serialize() []byte {
	buf := make([]byte, 89)
	buf[0] = byte(tx.Type)
	copy(buf[1:33], tx.From[:])
	copy(buf[33:65], tx.To[:])
	binary.BigEndian.PutUint64(buf[65:73], uint64(tx.Amount))
	binary.BigEndian.PutUint64(buf[73:81], uint64(tx.Fee))
	binary.BigEndian.PutUint64(buf[81:89], tx.Nonce)
	return buf
}

// ComputeID computes the hash of the serialized transaction fields.
func (tx *Transaction) ComputeID() Hash {
	return ComputeSHA256(tx.Serialize())
}

// NewCoinbaseTx creates a coinbase transaction paying the block reward to addr.
func NewCoinbaseTx(addr Hash, reward Amount, nonce uint64) *Transaction {
	tx := &Transaction{
		Type:   TxTypeCoinbase,
		From:   ZeroHash,
		To:     addr,
		Amount: reward,
		Nonce:  nonce,
	}
	tx.ID = tx.ComputeID()
	return tx
}
