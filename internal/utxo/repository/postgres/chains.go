package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

const selectChains = `
SELECT c.id, c.height, c.hash, c.branchlen, s.status
FROM chains c
JOIN chain_statuses s ON s.id = c.status_id`

func (t *Tx) MainChain(ctx context.Context) (_ model.Chain, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("main_chain", err, start)
	}()

	var row chainRow
	if err = t.tx.GetContext(ctx, &row, selectChains+` WHERE c.id = $1`, model.MainChainID); err != nil {
		return model.Chain{}, fmt.Errorf("get main chain: %w", storeError(err))
	}
	return row.model(), nil
}

// SaveMainChain overwrites the main chain row, creating it when missing.
func (t *Tx) SaveMainChain(ctx context.Context, c model.Chain) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("save_main_chain", err, start)
	}()

	statusID, err := t.statusID(ctx, c.Status)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO chains (id, height, hash, branchlen, status_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET height = EXCLUDED.height,
    hash = EXCLUDED.hash,
    branchlen = EXCLUDED.branchlen,
    status_id = EXCLUDED.status_id`

	if _, err = t.tx.ExecContext(ctx, query, model.MainChainID, c.Height, c.Hash, c.BranchLen, statusID); err != nil {
		return fmt.Errorf("save main chain: %w", storeError(err))
	}
	return nil
}

func (t *Tx) SideChains(ctx context.Context) (_ []model.Chain, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("side_chains", err, start)
	}()

	var rows []chainRow
	if err = t.tx.SelectContext(ctx, &rows, selectChains+` WHERE c.id <> $1 ORDER BY c.id`, model.MainChainID); err != nil {
		return nil, fmt.Errorf("select side chains: %w", storeError(err))
	}

	chains := make([]model.Chain, 0, len(rows))
	for _, row := range rows {
		chains = append(chains, row.model())
	}
	return chains, nil
}

func (t *Tx) InsertChain(ctx context.Context, c model.Chain) (_ int64, err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("insert_chain", err, start)
	}()

	statusID, err := t.statusID(ctx, c.Status)
	if err != nil {
		return 0, err
	}

	const query = `
INSERT INTO chains (height, hash, branchlen, status_id)
VALUES ($1, $2, $3, $4)
RETURNING id`

	var id int64
	if err = t.tx.QueryRowxContext(ctx, query, c.Height, c.Hash, c.BranchLen, statusID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert chain %s: %w", c.Hash, storeError(err))
	}
	return id, nil
}

func (t *Tx) UpdateChain(ctx context.Context, c model.Chain) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("update_chain", err, start)
	}()

	statusID, err := t.statusID(ctx, c.Status)
	if err != nil {
		return err
	}

	const query = `
UPDATE chains
SET height = $2, hash = $3, branchlen = $4, status_id = $5
WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query, c.ID, c.Height, c.Hash, c.BranchLen, statusID)
	if err != nil {
		return fmt.Errorf("update chain %d: %w", c.ID, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("chain %d", c.ID))
}

// DeleteChain removes a side chain; its blocks and their transaction links are
// removed by the cascading foreign keys.
func (t *Tx) DeleteChain(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("delete_chain", err, start)
	}()

	if id == model.MainChainID {
		return errors.New("main chain can not be deleted")
	}

	res, err := t.tx.ExecContext(ctx, `DELETE FROM chains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chain %d: %w", id, storeError(err))
	}
	return requireAffected(res, fmt.Sprintf("chain %d", id))
}

// statusID returns the id of a chain status, adding it to the vocabulary when unseen.
func (t *Tx) statusID(ctx context.Context, status model.ChainStatus) (int64, error) {
	const query = `
WITH inserted AS (
    INSERT INTO chain_statuses (status)
    VALUES ($1)
    ON CONFLICT (status) DO NOTHING
    RETURNING id
)
SELECT id FROM inserted
UNION ALL
SELECT id FROM chain_statuses WHERE status = $1
LIMIT 1`

	var id int64
	if err := t.tx.QueryRowxContext(ctx, query, string(status)).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve chain status %q: %w", status, storeError(err))
	}
	return id, nil
}
