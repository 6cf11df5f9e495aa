package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

func (t *Tx) BlockByHash(_ context.Context, hash string) (model.Block, error) {
	id, ok := t.state.blockIDs[hash]
	if !ok {
		return model.Block{}, store.ErrNotFound
	}
	return t.state.blocks[id], nil
}

func (t *Tx) BlockByHeight(_ context.Context, chainID, height int64) (model.Block, error) {
	if chainID == model.MainChainID {
		id, ok := t.state.mainBlocks[height]
		if !ok {
			return model.Block{}, store.ErrNotFound
		}
		return t.state.blocks[id], nil
	}
	for _, b := range t.state.blocks {
		if b.ChainID == chainID && b.Height == height {
			return b, nil
		}
	}
	return model.Block{}, store.ErrNotFound
}

func (t *Tx) BlocksByChain(_ context.Context, chainID int64) ([]model.Block, error) {
	var blocks []model.Block
	for _, b := range t.state.blocks {
		if b.ChainID == chainID {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Height == blocks[j].Height {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].Height < blocks[j].Height
	})
	return blocks, nil
}

func (t *Tx) MaxBlockHeight(_ context.Context, chainID int64) (int64, error) {
	var height int64
	for _, b := range t.state.blocks {
		if b.ChainID == chainID && b.Height > height {
			height = b.Height
		}
	}
	return height, nil
}

func (t *Tx) InsertBlock(_ context.Context, b model.Block) (int64, error) {
	if _, ok := t.state.blockIDs[b.Hash]; ok {
		return 0, fmt.Errorf("block %s: %w", b.Hash, store.ErrAlreadyExists)
	}
	if _, ok := t.state.chains[b.ChainID]; !ok {
		return 0, fmt.Errorf("block %s chain %d: %w", b.Hash, b.ChainID, store.ErrNotFound)
	}
	b.ID = t.nextID("blocks")
	put(t, t.state.blocks, b.ID, b)
	put(t, t.state.blockIDs, b.Hash, b.ID)
	if b.ChainID == model.MainChainID {
		put(t, t.state.mainBlocks, b.Height, b.ID)
	}
	t.mutate()
	return b.ID, nil
}

func (t *Tx) UpdateBlockTotals(_ context.Context, b model.Block) error {
	current, ok := t.state.blocks[b.ID]
	if !ok {
		return fmt.Errorf("block %d: %w", b.ID, store.ErrNotFound)
	}
	current.NTx = b.NTx
	current.MinerID = b.MinerID
	current.InputC = b.InputC
	current.InputT = b.InputT
	current.OutputC = b.OutputC
	current.OutputT = b.OutputT
	current.FeesT = b.FeesT
	current.Generation = b.Generation
	put(t, t.state.blocks, b.ID, current)
	t.mutate()
	return nil
}

func (t *Tx) SetBlockChain(_ context.Context, blockID, chainID int64) error {
	b, ok := t.state.blocks[blockID]
	if !ok {
		return fmt.Errorf("block %d: %w", blockID, store.ErrNotFound)
	}
	if _, ok := t.state.chains[chainID]; !ok {
		return fmt.Errorf("chain %d: %w", chainID, store.ErrNotFound)
	}
	switch {
	case chainID == model.MainChainID:
		put(t, t.state.mainBlocks, b.Height, blockID)
	case b.ChainID == model.MainChainID && t.state.mainBlocks[b.Height] == blockID:
		drop(t, t.state.mainBlocks, b.Height)
	}
	b.ChainID = chainID
	put(t, t.state.blocks, blockID, b)
	t.mutate()
	return nil
}

func (t *Tx) SetNextBlockHash(_ context.Context, hash, next string) error {
	id, ok := t.state.blockIDs[hash]
	if !ok {
		return nil
	}
	b := t.state.blocks[id]
	b.NextBlockHash = next
	put(t, t.state.blocks, id, b)
	t.mutate()
	return nil
}
