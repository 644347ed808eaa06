package blockdb

import (
	"sync"

	"github.com/epochra/epochra/pkg/core/hashing"
	"github.com/epochra/epochra/pkg/core/types"
)

// MemStore is an in-memory BlockDB used by the core's own tests and by
// anything embedding the core without a Badger dependency (e.g. short-lived
// tooling). It implements the same transactional contract as BadgerStore: a
// Transact call only becomes visible to other callers if fn returns nil.
type MemStore struct {
	mu     sync.Mutex
	crypto hashing.Crypto

	headers map[types.Hash]types.BlockHeader
	blocks  map[types.Hash]*types.Block
	undos   map[types.Hash]types.Undo
	inMain  map[types.Hash]bool
	tip     *types.Hash
}

var _ BlockDB = (*MemStore)(nil)

// NewMemStore builds an empty MemStore that hashes headers with crypto, the
// same collaborator the rest of the core uses, so hashes computed here agree
// with hashes computed by callers (e.g. chainquery.LCAWithMainChain).
func NewMemStore(crypto hashing.Crypto) *MemStore {
	return &MemStore{
		crypto:  crypto,
		headers: make(map[types.Hash]types.BlockHeader),
		blocks:  make(map[types.Hash]*types.Block),
		undos:   make(map[types.Hash]types.Undo),
		inMain:  make(map[types.Hash]bool),
	}
}

func (m *MemStore) Tip() (types.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tip == nil {
		return types.Hash{}, ErrTipNotSet
	}
	return *m.tip, nil
}

func (m *MemStore) TipBlock() (*types.Block, error) {
	m.mu.Lock()
	tip := m.tip
	m.mu.Unlock()
	if tip == nil {
		return nil, ErrTipNotSet
	}
	return m.GetBlock(*tip)
}

func (m *MemStore) SetTip(h types.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tip = &h
	return nil
}

func (m *MemStore) GetBlockHeader(h types.Hash) (types.BlockHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hdr, ok := m.headers[h]
	if !ok {
		return types.BlockHeader{}, ErrNotFound
	}
	return hdr, nil
}

func (m *MemStore) GetBlock(h types.Hash) (*types.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[h]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemStore) GetUndo(h types.Hash) (types.Undo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.undos[h]
	if !ok {
		return types.Undo{}, ErrNotFound
	}
	return u, nil
}

func (m *MemStore) IsBlockInMainChain(h types.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inMain[h], nil
}

func (m *MemStore) SetBlockInMainChain(h types.Hash, inMain bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inMain[h] = inMain
	return nil
}

func (m *MemStore) PutBlock(undo types.Undo, inMain bool, block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.crypto.Hash(block.Header)
	m.headers[h] = block.Header
	m.blocks[h] = block
	m.undos[h] = undo
	m.inMain[h] = inMain
	return nil
}

func (m *MemStore) LoadHeadersUntil(start types.Hash, pred func(h types.BlockHeader, depth uint32) bool) ([]types.BlockHeader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.BlockHeader
	cur := start
	depth := uint32(0)
	for {
		hdr, ok := m.headers[cur]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, hdr)
		if pred(hdr, depth) {
			return out, nil
		}
		if hdr.Kind == types.GenesisHeaderKind && hdr.PrevHash.IsZero() {
			return out, nil
		}
		cur = hdr.PrevHash
		depth++
	}
}

// Transact gives fn a view backed by copies of the maps: MemStore has no
// staging buffer of its own to roll back, so Transact clones state first and
// swaps it in only on success, and on error none of fn's writes take visible
// effect — matching BadgerStore's all-or-nothing commit semantics.
func (m *MemStore) Transact(fn func(tx BlockDB) error) error {
	m.mu.Lock()
	clone := &MemStore{
		crypto:  m.crypto,
		headers: cloneHeaders(m.headers),
		blocks:  cloneBlocks(m.blocks),
		undos:   cloneUndos(m.undos),
		inMain:  cloneInMain(m.inMain),
		tip:     m.tip,
	}
	m.mu.Unlock()

	if err := fn(clone); err != nil {
		return err
	}

	m.mu.Lock()
	m.headers = clone.headers
	m.blocks = clone.blocks
	m.undos = clone.undos
	m.inMain = clone.inMain
	m.tip = clone.tip
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Close() error { return nil }

func cloneHeaders(in map[types.Hash]types.BlockHeader) map[types.Hash]types.BlockHeader {
	out := make(map[types.Hash]types.BlockHeader, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneBlocks(in map[types.Hash]*types.Block) map[types.Hash]*types.Block {
	out := make(map[types.Hash]*types.Block, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneUndos(in map[types.Hash]types.Undo) map[types.Hash]types.Undo {
	out := make(map[types.Hash]types.Undo, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneInMain(in map[types.Hash]bool) map[types.Hash]bool {
	out := make(map[types.Hash]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
