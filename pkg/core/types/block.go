package types

// TxType distinguishes coinbase transactions from regular transfers.
type TxType uint8

const (
	TxTypeCoinbase TxType = 0
	TxTypeTransfer TxType = 1
)

// Transaction represents a single value transfer. Its validation is entirely
// the Txp subsystem's concern (out of scope for the core); the core treats
// Transactions as opaque payload it hands to Txp wholesale.
type Transaction struct {
	ID        Hash
	Type      TxType
	From      Hash // ZeroHash for coinbase.
	To        Hash
	Amount    Amount
	Fee       Amount
	Nonce     uint64
	Signature []byte
}

// Share is one entry of a block's shared-secret payload: a revealed share
// index plus the commitment it opens. Its validation is entirely the Ssc
// subsystem's concern; the core treats Shares as opaque payload.
type Share struct {
	Index      uint32
	Commitment Hash
	Payload    []byte
}

// Block is a header plus its payload, per spec.md §3.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
	Shares       []Share
}

// TxUndo is the opaque reversal record the Txp subsystem attaches to a block.
type TxUndo []byte

// SscUndo is the opaque reversal record the Ssc subsystem attaches to a block.
type SscUndo []byte

// Undo is the reversal record verification produces and rollback consumes,
// one per block (spec.md §3).
type Undo struct {
	Tx  TxUndo
	Ssc SscUndo
}

// BlockUndo pairs a block with its Undo, the unit apply.ApplyBlocks and
// apply.RollbackBlocks operate on (spec.md §6).
type BlockUndo struct {
	Block *Block
	Undo  Undo
}
