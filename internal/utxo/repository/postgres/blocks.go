package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/jmoiron/sqlx"
)

const blockColumns = `
id, hash, chain_id, height, time, size, difficulty, merkleroot, nonce, bits,
previousblockhash, nextblockhash, version, ntx, miner_id,
inputc, inputt, outputc, outputt, feest, generation,
strippedsize, weight, chainwork,
chaintrust, blocktrust, flags, proofhash, entropybit, modifier, modifierchecksum, signature`

func (t *Tx) BlockByHash(ctx context.Context, hash string) (_ model.Block, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("block_by_hash", err, start)
	}()

	var row blockRow
	if err = t.tx.GetContext(ctx, &row, `SELECT `+blockColumns+` FROM blocks WHERE hash = $1`, hash); err != nil {
		return model.Block{}, fmt.Errorf("get block %s: %w", hash, storeError(err))
	}
	return row.model()
}

func (t *Tx) BlockByHeight(ctx context.Context, chainID, height int64) (_ model.Block, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("block_by_height", err, start)
	}()

	const query = `SELECT ` + blockColumns + ` FROM blocks WHERE chain_id = $1 AND height = $2 ORDER BY id LIMIT 1`

	var row blockRow
	if err = t.tx.GetContext(ctx, &row, query, chainID, height); err != nil {
		return model.Block{}, fmt.Errorf("get block %d of chain %d: %w", height, chainID, storeError(err))
	}
	return row.model()
}

func (t *Tx) BlocksByChain(ctx context.Context, chainID int64) (_ []model.Block, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("blocks_by_chain", err, start)
	}()

	const query = `SELECT ` + blockColumns + ` FROM blocks WHERE chain_id = $1 ORDER BY height, id`

	var rows []blockRow
	if err = t.tx.SelectContext(ctx, &rows, query, chainID); err != nil {
		return nil, fmt.Errorf("select blocks of chain %d: %w", chainID, storeError(err))
	}

	blocks := make([]model.Block, 0, len(rows))
	for _, row := range rows {
		b, err := row.model()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (t *Tx) MaxBlockHeight(ctx context.Context, chainID int64) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("max_block_height", err, start)
	}()

	var height int64
	if err = t.tx.GetContext(ctx, &height, `SELECT COALESCE(MAX(height), 0) FROM blocks WHERE chain_id = $1`, chainID); err != nil {
		return 0, fmt.Errorf("get max height of chain %d: %w", chainID, storeError(err))
	}
	return height, nil
}

func (t *Tx) InsertBlock(ctx context.Context, b model.Block) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_block", err, start)
	}()

	const query = `
INSERT INTO blocks (
    hash, chain_id, height, time, size, difficulty, merkleroot, nonce, bits,
    previousblockhash, nextblockhash, version, ntx, miner_id,
    inputc, inputt, outputc, outputt, feest, generation,
    strippedsize, weight, chainwork,
    chaintrust, blocktrust, flags, proofhash, entropybit, modifier, modifierchecksum, signature
) VALUES (
    :hash, :chain_id, :height, :time, :size, :difficulty, :merkleroot, :nonce, :bits,
    :previousblockhash, :nextblockhash, :version, :ntx, :miner_id,
    :inputc, :inputt, :outputc, :outputt, :feest, :generation,
    :strippedsize, :weight, :chainwork,
    :chaintrust, :blocktrust, :flags, :proofhash, :entropybit, :modifier, :modifierchecksum, :signature
)
RETURNING id`

	id, err := t.insertNamed(ctx, query, newBlockRow(b))
	if err != nil {
		return 0, fmt.Errorf("insert block %s: %w", b.Hash, err)
	}
	return id, nil
}

func (t *Tx) UpdateBlockTotals(ctx context.Context, b model.Block) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("update_block_totals", err, start)
	}()

	const query = `
UPDATE blocks
SET ntx = $2, miner_id = $3,
    inputc = $4, inputt = $5, outputc = $6, outputt = $7, feest = $8, generation = $9
WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query,
		b.ID, b.NTx, nullInt64(b.MinerID),
		b.InputC, b.InputT, b.OutputC, b.OutputT, b.FeesT, b.Generation,
	)
	if err != nil {
		return fmt.Errorf("update block %d: %w", b.ID, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("block %d", b.ID))
}

func (t *Tx) SetBlockChain(ctx context.Context, blockID, chainID int64) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("set_block_chain", err, start)
	}()

	res, err := t.tx.ExecContext(ctx, `UPDATE blocks SET chain_id = $2 WHERE id = $1`, blockID, chainID)
	if err != nil {
		return fmt.Errorf("move block %d to chain %d: %w", blockID, chainID, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("block %d", blockID))
}

// SetNextBlockHash ignores unknown blocks.
func (t *Tx) SetNextBlockHash(ctx context.Context, hash, next string) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("set_next_block_hash", err, start)
	}()

	if _, err = t.tx.ExecContext(ctx, `UPDATE blocks SET nextblockhash = $2 WHERE hash = $1`, hash, next); err != nil {
		return fmt.Errorf("set next block of %s: %w", hash, storeError(err))
	}
	return nil
}

func (t *Tx) insertNamed(ctx context.Context, query string, arg any) (id int64, err error) {
	rows, err := sqlx.NamedQueryContext(ctx, t.tx, query, arg)
	if err != nil {
		return 0, storeError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, storeError(err)
		}
		return 0, fmt.Errorf("insert returned no id")
	}
	if err = rows.Scan(&id); err != nil {
		return 0, fmt.Errorf("scan id: %w", err)
	}
	return id, nil
}
