package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/lib/pq"
)

const transactionColumns = `
id, txid, hash, time, size, vsize, weight, locktime, version,
inputc, inputt, outputc, outputt, fee`

const selectVouts = `
SELECT v.id, v.transaction_id, v.n, v.value, v.type, v.vin_id,
       COALESCE(array_agg(va.address_id ORDER BY va.n) FILTER (WHERE va.address_id IS NOT NULL), '{}') AS address_ids
FROM vouts v
LEFT JOIN vout_addresses va ON va.vout_id = v.id`

func (t *Tx) TransactionByTxID(ctx context.Context, txid string) (_ model.Transaction, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("transaction_by_txid", err, start)
	}()

	var row transactionRow
	if err = t.tx.GetContext(ctx, &row, `SELECT `+transactionColumns+` FROM transactions WHERE txid = $1`, txid); err != nil {
		return model.Transaction{}, fmt.Errorf("get transaction %s: %w", txid, storeError(err))
	}
	return row.model()
}

func (t *Tx) InsertTransaction(ctx context.Context, tx model.Transaction) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_transaction", err, start)
	}()

	const query = `
INSERT INTO transactions (
    txid, hash, time, size, vsize, weight, locktime, version,
    inputc, inputt, outputc, outputt, fee
) VALUES (
    :txid, :hash, :time, :size, :vsize, :weight, :locktime, :version,
    :inputc, :inputt, :outputc, :outputt, :fee
)
RETURNING id`

	id, err := t.insertNamed(ctx, query, newTransactionRow(tx))
	if err != nil {
		return 0, fmt.Errorf("insert transaction %s: %w", tx.TxID, err)
	}
	return id, nil
}

func (t *Tx) UpdateTransactionTotals(ctx context.Context, tx model.Transaction) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("update_transaction_totals", err, start)
	}()

	const query = `
UPDATE transactions
SET inputc = $2, inputt = $3, outputc = $4, outputt = $5, fee = $6
WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query, tx.ID, tx.InputC, tx.InputT, tx.OutputC, tx.OutputT, tx.Fee)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("transaction %d", tx.ID))
}

func (t *Tx) LinkTransaction(ctx context.Context, blockID, txID int64, n int) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("link_transaction", err, start)
	}()

	const query = `INSERT INTO block_transactions (block_id, transaction_id, n) VALUES ($1, $2, $3)`
	if _, err = t.tx.ExecContext(ctx, query, blockID, txID, n); err != nil {
		return fmt.Errorf("link transaction %d to block %d: %w", txID, blockID, storeError(err))
	}
	return nil
}

func (t *Tx) BlockTransactions(ctx context.Context, blockID int64) (_ []model.Transaction, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("block_transactions", err, start)
	}()

	const query = `
SELECT t.id, t.txid, t.hash, t.time, t.size, t.vsize, t.weight, t.locktime, t.version,
       t.inputc, t.inputt, t.outputc, t.outputt, t.fee
FROM block_transactions bt
JOIN transactions t ON t.id = bt.transaction_id
WHERE bt.block_id = $1
ORDER BY bt.n`

	var rows []transactionRow
	if err = t.tx.SelectContext(ctx, &rows, query, blockID); err != nil {
		return nil, fmt.Errorf("select transactions of block %d: %w", blockID, storeError(err))
	}

	txs := make([]model.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.model()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (t *Tx) CountMainBlocks(ctx context.Context, txID int64) (_ int, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("count_main_blocks", err, start)
	}()

	const query = `
SELECT COUNT(*)
FROM block_transactions bt
JOIN blocks b ON b.id = bt.block_id
WHERE bt.transaction_id = $1 AND b.chain_id = $2`

	var count int
	if err = t.tx.GetContext(ctx, &count, query, txID, model.MainChainID); err != nil {
		return 0, fmt.Errorf("count main blocks of transaction %d: %w", txID, storeError(err))
	}
	return count, nil
}

func (t *Tx) InsertVin(ctx context.Context, v model.Vin) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_vin", err, start)
	}()

	const query = `
INSERT INTO vins (transaction_id, coinbase, vout_id)
VALUES ($1, $2, $3)
RETURNING id`

	var id int64
	if err = t.tx.QueryRowxContext(ctx, query, v.TransactionID, v.Coinbase, nullInt64(v.VoutID)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert vin of transaction %d: %w", v.TransactionID, storeError(err))
	}
	return id, nil
}

func (t *Tx) Vins(ctx context.Context, txID int64) (_ []model.Vin, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("vins", err, start)
	}()

	var rows []vinRow
	const query = `SELECT id, transaction_id, coinbase, vout_id FROM vins WHERE transaction_id = $1 ORDER BY id`
	if err = t.tx.SelectContext(ctx, &rows, query, txID); err != nil {
		return nil, fmt.Errorf("select vins of transaction %d: %w", txID, storeError(err))
	}

	vins := make([]model.Vin, 0, len(rows))
	for _, row := range rows {
		vins = append(vins, row.model())
	}
	return vins, nil
}

// InsertVout stores the output with its owners in the given order.
func (t *Tx) InsertVout(ctx context.Context, v model.Vout) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_vout", err, start)
	}()

	const query = `
INSERT INTO vouts (transaction_id, n, value, type, vin_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

	var id int64
	err = t.tx.QueryRowxContext(ctx, query, v.TransactionID, int64(v.N), v.Value, v.Type, nullInt64(v.VinID)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert vout %d:%d: %w", v.TransactionID, v.N, storeError(err))
	}

	if len(v.AddressIDs) > 0 {
		const owners = `
INSERT INTO vout_addresses (vout_id, address_id, n)
SELECT $1, a.address_id, a.n - 1
FROM unnest($2::bigint[]) WITH ORDINALITY AS a(address_id, n)`

		if _, err = t.tx.ExecContext(ctx, owners, id, pq.Array(v.AddressIDs)); err != nil {
			return 0, fmt.Errorf("insert owners of vout %d:%d: %w", v.TransactionID, v.N, storeError(err))
		}
	}
	return id, nil
}

func (t *Tx) Vouts(ctx context.Context, txID int64) (_ []model.Vout, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("vouts", err, start)
	}()

	var rows []voutRow
	if err = t.tx.SelectContext(ctx, &rows, selectVouts+` WHERE v.transaction_id = $1 GROUP BY v.id ORDER BY v.n`, txID); err != nil {
		return nil, fmt.Errorf("select vouts of transaction %d: %w", txID, storeError(err))
	}

	vouts := make([]model.Vout, 0, len(rows))
	for _, row := range rows {
		v, err := row.model()
		if err != nil {
			return nil, err
		}
		vouts = append(vouts, v)
	}
	return vouts, nil
}

func (t *Tx) VoutByOutpoint(ctx context.Context, txID int64, n uint32) (_ model.Vout, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("vout_by_outpoint", err, start)
	}()

	var row voutRow
	query := selectVouts + ` WHERE v.transaction_id = $1 AND v.n = $2 GROUP BY v.id`
	if err = t.tx.GetContext(ctx, &row, query, txID, int64(n)); err != nil {
		return model.Vout{}, fmt.Errorf("get vout %d:%d: %w", txID, n, storeError(err))
	}
	return row.model()
}

func (t *Tx) VoutByID(ctx context.Context, id int64) (_ model.Vout, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("vout_by_id", err, start)
	}()

	var row voutRow
	if err = t.tx.GetContext(ctx, &row, selectVouts+` WHERE v.id = $1 GROUP BY v.id`, id); err != nil {
		return model.Vout{}, fmt.Errorf("get vout %d: %w", id, storeError(err))
	}
	return row.model()
}

// SetVoutSpender sets or clears the input spending the output.
func (t *Tx) SetVoutSpender(ctx context.Context, voutID int64, vinID *int64) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("set_vout_spender", err, start)
	}()

	res, err := t.tx.ExecContext(ctx, `UPDATE vouts SET vin_id = $2 WHERE id = $1`, voutID, nullInt64(vinID))
	if err != nil {
		return fmt.Errorf("set spender of vout %d: %w", voutID, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("vout %d", voutID))
}
