package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

const addressColumns = `id, address, label, ntx, balance, inputc, outputc`

func (t *Tx) AddressByHash(ctx context.Context, address string) (_ model.Address, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("address_by_hash", err, start)
	}()

	var row addressRow
	if err = t.tx.GetContext(ctx, &row, `SELECT `+addressColumns+` FROM addresses WHERE address = $1`, address); err != nil {
		return model.Address{}, fmt.Errorf("get address %s: %w", address, storeError(err))
	}
	return row.model(), nil
}

func (t *Tx) AddressByID(ctx context.Context, id int64) (_ model.Address, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("address_by_id", err, start)
	}()

	var row addressRow
	if err = t.tx.GetContext(ctx, &row, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id); err != nil {
		return model.Address{}, fmt.Errorf("get address %d: %w", id, storeError(err))
	}
	return row.model(), nil
}

func (t *Tx) InsertAddress(ctx context.Context, a model.Address) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_address", err, start)
	}()

	const query = `
INSERT INTO addresses (address, label, ntx, balance, inputc, outputc)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

	var id int64
	err = t.tx.QueryRowxContext(ctx, query, a.Address, a.Label, a.NTx, a.Balance, a.InputC, a.OutputC).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert address %s: %w", a.Address, storeError(err))
	}
	return id, nil
}

func (t *Tx) UpdateAddressCounters(ctx context.Context, id int64, delta model.AddressDelta) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("update_address_counters", err, start)
	}()

	const query = `
UPDATE addresses
SET ntx = ntx + $2, inputc = inputc + $3, outputc = outputc + $4, balance = balance + $5
WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query, id, delta.NTx, delta.InputC, delta.OutputC, delta.Balance)
	if err != nil {
		return fmt.Errorf("update address %d: %w", id, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("address %d", id))
}
