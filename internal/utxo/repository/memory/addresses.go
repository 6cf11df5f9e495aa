package memory

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

func (t *Tx) AddressByHash(_ context.Context, address string) (model.Address, error) {
	id, ok := t.state.addressIDs[address]
	if !ok {
		return model.Address{}, store.ErrNotFound
	}
	return t.state.addresses[id], nil
}

func (t *Tx) AddressByID(_ context.Context, id int64) (model.Address, error) {
	a, ok := t.state.addresses[id]
	if !ok {
		return model.Address{}, store.ErrNotFound
	}
	return a, nil
}

func (t *Tx) InsertAddress(_ context.Context, a model.Address) (int64, error) {
	if _, ok := t.state.addressIDs[a.Address]; ok {
		return 0, fmt.Errorf("address %s: %w", a.Address, store.ErrAlreadyExists)
	}
	a.ID = t.nextID("addresses")
	put(t, t.state.addresses, a.ID, a)
	put(t, t.state.addressIDs, a.Address, a.ID)
	t.mutate()
	return a.ID, nil
}

func (t *Tx) UpdateAddressCounters(_ context.Context, id int64, delta model.AddressDelta) error {
	a, ok := t.state.addresses[id]
	if !ok {
		return fmt.Errorf("address %d: %w", id, store.ErrNotFound)
	}
	put(t, t.state.addresses, id, delta.Apply(a))
	t.mutate()
	return nil
}

// Addresses returns a copy of every committed address row.
// It waits for a running transaction to finish.
func (r *Repository) Addresses() []model.Address {
	var out []model.Address
	r.view(func(s *state) {
		out = make([]model.Address, 0, len(s.addresses))
		for _, a := range s.addresses {
			out = append(out, a)
		}
	})
	return out
}
