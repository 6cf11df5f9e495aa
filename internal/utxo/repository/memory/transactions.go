package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

func (t *Tx) TransactionByTxID(_ context.Context, txid string) (model.Transaction, error) {
	id, ok := t.state.txIDs[txid]
	if !ok {
		return model.Transaction{}, store.ErrNotFound
	}
	return t.state.txs[id], nil
}

func (t *Tx) InsertTransaction(_ context.Context, tx model.Transaction) (int64, error) {
	if _, ok := t.state.txIDs[tx.TxID]; ok {
		return 0, fmt.Errorf("transaction %s: %w", tx.TxID, store.ErrAlreadyExists)
	}
	if _, ok := t.state.txHashes[tx.Hash]; ok && tx.Hash != "" {
		return 0, fmt.Errorf("transaction hash %s: %w", tx.Hash, store.ErrAlreadyExists)
	}
	tx.ID = t.nextID("transactions")
	put(t, t.state.txs, tx.ID, tx)
	put(t, t.state.txIDs, tx.TxID, tx.ID)
	if tx.Hash != "" {
		put(t, t.state.txHashes, tx.Hash, tx.ID)
	}
	t.mutate()
	return tx.ID, nil
}

func (t *Tx) UpdateTransactionTotals(_ context.Context, tx model.Transaction) error {
	current, ok := t.state.txs[tx.ID]
	if !ok {
		return fmt.Errorf("transaction %d: %w", tx.ID, store.ErrNotFound)
	}
	current.InputC = tx.InputC
	current.InputT = tx.InputT
	current.OutputC = tx.OutputC
	current.OutputT = tx.OutputT
	current.Fee = tx.Fee
	put(t, t.state.txs, tx.ID, current)
	t.mutate()
	return nil
}

func (t *Tx) LinkTransaction(_ context.Context, blockID, txID int64, n int) error {
	if _, ok := t.state.blocks[blockID]; !ok {
		return fmt.Errorf("block %d: %w", blockID, store.ErrNotFound)
	}
	if _, ok := t.state.txs[txID]; !ok {
		return fmt.Errorf("transaction %d: %w", txID, store.ErrNotFound)
	}
	for _, l := range t.state.blockTxs[blockID] {
		if l.txID == txID {
			return fmt.Errorf("transaction %d in block %d: %w", txID, blockID, store.ErrAlreadyExists)
		}
	}
	put(t, t.state.blockTxs, blockID, append(t.state.blockTxs[blockID], link{blockID: blockID, txID: txID, n: n}))
	put(t, t.state.txBlocks, txID, append(t.state.txBlocks[txID], blockID))
	t.mutate()
	return nil
}

func (t *Tx) BlockTransactions(_ context.Context, blockID int64) ([]model.Transaction, error) {
	links := append([]link(nil), t.state.blockTxs[blockID]...)
	sort.Slice(links, func(i, j int) bool { return links[i].n < links[j].n })

	txs := make([]model.Transaction, 0, len(links))
	for _, l := range links {
		txs = append(txs, t.state.txs[l.txID])
	}
	return txs, nil
}

func (t *Tx) CountMainBlocks(_ context.Context, txID int64) (int, error) {
	count := 0
	for _, blockID := range t.state.txBlocks[txID] {
		if t.state.blocks[blockID].ChainID == model.MainChainID {
			count++
		}
	}
	return count, nil
}

func (t *Tx) InsertVin(_ context.Context, v model.Vin) (int64, error) {
	if _, ok := t.state.txs[v.TransactionID]; !ok {
		return 0, fmt.Errorf("transaction %d: %w", v.TransactionID, store.ErrNotFound)
	}
	v.ID = t.nextID("vins")
	put(t, t.state.vins, v.ID, v)
	put(t, t.state.txVins, v.TransactionID, append(t.state.txVins[v.TransactionID], v.ID))
	t.mutate()
	return v.ID, nil
}

func (t *Tx) Vins(_ context.Context, txID int64) ([]model.Vin, error) {
	ids := t.state.txVins[txID]
	vins := make([]model.Vin, 0, len(ids))
	for _, id := range ids {
		vins = append(vins, t.state.vins[id])
	}
	return vins, nil
}

func (t *Tx) InsertVout(_ context.Context, v model.Vout) (int64, error) {
	if _, ok := t.state.txs[v.TransactionID]; !ok {
		return 0, fmt.Errorf("transaction %d: %w", v.TransactionID, store.ErrNotFound)
	}
	for _, id := range t.state.txVouts[v.TransactionID] {
		if t.state.vouts[id].N == v.N {
			return 0, fmt.Errorf("vout %d:%d: %w", v.TransactionID, v.N, store.ErrAlreadyExists)
		}
	}
	for _, addressID := range v.AddressIDs {
		if _, ok := t.state.addresses[addressID]; !ok {
			return 0, fmt.Errorf("address %d: %w", addressID, store.ErrNotFound)
		}
	}
	v.ID = t.nextID("vouts")
	v.AddressIDs = append([]int64(nil), v.AddressIDs...)
	put(t, t.state.vouts, v.ID, v)
	put(t, t.state.txVouts, v.TransactionID, append(t.state.txVouts[v.TransactionID], v.ID))
	t.mutate()
	return v.ID, nil
}

func (t *Tx) Vouts(_ context.Context, txID int64) ([]model.Vout, error) {
	ids := t.state.txVouts[txID]
	vouts := make([]model.Vout, 0, len(ids))
	for _, id := range ids {
		vouts = append(vouts, t.state.vouts[id])
	}
	sort.Slice(vouts, func(i, j int) bool { return vouts[i].N < vouts[j].N })
	return vouts, nil
}

func (t *Tx) VoutByOutpoint(_ context.Context, txID int64, n uint32) (model.Vout, error) {
	for _, id := range t.state.txVouts[txID] {
		if v := t.state.vouts[id]; v.N == n {
			return v, nil
		}
	}
	return model.Vout{}, store.ErrNotFound
}

func (t *Tx) VoutByID(_ context.Context, id int64) (model.Vout, error) {
	v, ok := t.state.vouts[id]
	if !ok {
		return model.Vout{}, store.ErrNotFound
	}
	return v, nil
}

func (t *Tx) SetVoutSpender(_ context.Context, voutID int64, vinID *int64) error {
	v, ok := t.state.vouts[voutID]
	if !ok {
		return fmt.Errorf("vout %d: %w", voutID, store.ErrNotFound)
	}
	if vinID != nil {
		id := *vinID
		vinID = &id
	}
	v.VinID = vinID
	put(t, t.state.vouts, voutID, v)
	t.mutate()
	return nil
}
