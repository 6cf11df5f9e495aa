// Package memory implements the ledger store in process memory.
// Transactions write in place and keep an undo log for Rollback. They are
// serialized: a second Begin blocks until the first one commits or rolls back.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

var errTxDone = errors.New("transaction already finished")

type link struct {
	blockID int64
	txID    int64
	n       int
}

type state struct {
	lastID map[string]int64

	chains     map[int64]model.Chain
	blocks     map[int64]model.Block
	blockIDs   map[string]int64
	mainBlocks map[int64]int64
	blockTxs   map[int64][]link
	txBlocks   map[int64][]int64
	txs        map[int64]model.Transaction
	txIDs      map[string]int64
	txHashes   map[string]int64
	vins       map[int64]model.Vin
	txVins     map[int64][]int64
	vouts      map[int64]model.Vout
	txVouts    map[int64][]int64
	addresses  map[int64]model.Address
	addressIDs map[string]int64
}

func newState() *state {
	return &state{
		lastID:     map[string]int64{"chains": model.MainChainID},
		chains:     map[int64]model.Chain{model.MainChainID: {ID: model.MainChainID, Status: model.ChainActive}},
		blocks:     make(map[int64]model.Block),
		blockIDs:   make(map[string]int64),
		mainBlocks: make(map[int64]int64),
		blockTxs:   make(map[int64][]link),
		txBlocks:   make(map[int64][]int64),
		txs:        make(map[int64]model.Transaction),
		txIDs:      make(map[string]int64),
		txHashes:   make(map[string]int64),
		vins:       make(map[int64]model.Vin),
		txVins:     make(map[int64][]int64),
		vouts:      make(map[int64]model.Vout),
		txVouts:    make(map[int64][]int64),
		addresses:  make(map[int64]model.Address),
		addressIDs: make(map[string]int64),
	}
}

// Repository is a store.Repository kept in memory.
type Repository struct {
	writer chan struct{}
	state  *state

	mu        sync.Mutex
	mutations int64
}

var _ store.Repository = (*Repository)(nil)

// NewRepository returns an empty ledger with the main chain row.
func NewRepository() *Repository {
	return &Repository{
		writer: make(chan struct{}, 1),
		state:  newState(),
	}
}

// Begin waits for the running transaction to finish and opens a new one.
func (r *Repository) Begin(ctx context.Context) (store.Tx, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r.writer <- struct{}{}:
	}
	return &Tx{repo: r, state: r.state}, nil
}

// Mutations returns the number of committed row mutations.
func (r *Repository) Mutations() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutations
}

// Tx is a memory ledger transaction.
type Tx struct {
	repo      *Repository
	state     *state
	undo      []func()
	mutations int64
	done      bool
}

var _ store.Tx = (*Tx)(nil)

func (t *Tx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.undo = nil

	t.repo.mu.Lock()
	t.repo.mutations += t.mutations
	t.repo.mu.Unlock()

	<-t.repo.writer
	return nil
}

// Rollback undoes every write of the transaction, newest first. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	<-t.repo.writer
	return nil
}

func (t *Tx) mutate() {
	t.mutations++
}

func (t *Tx) nextID(table string) int64 {
	id := t.state.lastID[table] + 1
	put(t, t.state.lastID, table, id)
	return id
}

// put sets m[k] and logs how to restore the previous entry.
func put[K comparable, V any](t *Tx, m map[K]V, k K, v V) {
	old, had := m[k]
	m[k] = v
	t.undo = append(t.undo, func() {
		if had {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

// drop deletes m[k] and logs how to put it back.
func drop[K comparable, V any](t *Tx, m map[K]V, k K) {
	old, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	t.undo = append(t.undo, func() {
		m[k] = old
	})
}

// view runs fn on the committed state once no transaction is running.
func (r *Repository) view(fn func(s *state)) {
	r.writer <- struct{}{}
	defer func() {
		<-r.writer
	}()
	fn(r.state)
}
