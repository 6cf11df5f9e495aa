package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

func (t *Tx) MainChain(_ context.Context) (model.Chain, error) {
	c, ok := t.state.chains[model.MainChainID]
	if !ok {
		return model.Chain{}, store.ErrNotFound
	}
	return c, nil
}

func (t *Tx) SaveMainChain(_ context.Context, c model.Chain) error {
	c.ID = model.MainChainID
	put(t, t.state.chains, c.ID, c)
	t.mutate()
	return nil
}

func (t *Tx) SideChains(_ context.Context) ([]model.Chain, error) {
	chains := make([]model.Chain, 0, len(t.state.chains))
	for id, c := range t.state.chains {
		if id != model.MainChainID {
			chains = append(chains, c)
		}
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ID < chains[j].ID })
	return chains, nil
}

func (t *Tx) InsertChain(_ context.Context, c model.Chain) (int64, error) {
	c.ID = t.nextID("chains")
	put(t, t.state.chains, c.ID, c)
	t.mutate()
	return c.ID, nil
}

func (t *Tx) UpdateChain(_ context.Context, c model.Chain) error {
	if _, ok := t.state.chains[c.ID]; !ok {
		return fmt.Errorf("chain %d: %w", c.ID, store.ErrNotFound)
	}
	put(t, t.state.chains, c.ID, c)
	t.mutate()
	return nil
}

func (t *Tx) DeleteChain(_ context.Context, id int64) error {
	if id == model.MainChainID {
		return errors.New("main chain can not be deleted")
	}
	if _, ok := t.state.chains[id]; !ok {
		return fmt.Errorf("chain %d: %w", id, store.ErrNotFound)
	}

	for blockID, b := range t.state.blocks {
		if b.ChainID != id {
			continue
		}
		for _, l := range t.state.blockTxs[blockID] {
			put(t, t.state.txBlocks, l.txID, removeID(t.state.txBlocks[l.txID], blockID))
		}
		drop(t, t.state.blockTxs, blockID)
		drop(t, t.state.blockIDs, b.Hash)
		drop(t, t.state.blocks, blockID)
		t.mutate()
	}
	drop(t, t.state.chains, id)
	t.mutate()
	return nil
}

func removeID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
