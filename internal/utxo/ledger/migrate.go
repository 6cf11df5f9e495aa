package ledger

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"go.uber.org/zap"
)

// MigrateToMain attaches a side chain block to the main chain. Transactions
// that become part of the main chain through this block get their address
// effects applied; transactions already applied through another main block are
// left untouched.
func (l *Ledger) MigrateToMain(ctx context.Context, s store.Tx, block model.Block) (model.Block, error) {
	if block.OnMain() {
		return block, nil
	}
	if err := s.SetBlockChain(ctx, block.ID, model.MainChainID); err != nil {
		return block, fmt.Errorf("attach block %s to main: %w", block.Hash, err)
	}
	block.ChainID = model.MainChainID

	txs, err := s.BlockTransactions(ctx, block.ID)
	if err != nil {
		return block, fmt.Errorf("get transactions of block %s: %w", block.Hash, err)
	}
	for _, tx := range txs {
		count, err := s.CountMainBlocks(ctx, tx.ID)
		if err != nil {
			return block, fmt.Errorf("count main blocks of %s: %w", tx.TxID, err)
		}
		if count != 1 {
			continue
		}
		if err := l.ApplyTransaction(ctx, s, tx.ID); err != nil {
			return block, fmt.Errorf("apply transaction %s: %w", tx.TxID, err)
		}
	}

	if block.Height > 1 {
		if err := s.SetNextBlockHash(ctx, block.PreviousBlockHash, block.Hash); err != nil {
			return block, fmt.Errorf("link block %s: %w", block.PreviousBlockHash, err)
		}
	}

	l.logger.Info("block migrated to main chain",
		zap.String("hash", block.Hash),
		zap.Int64("height", block.Height),
		zap.Int("txs", len(txs)),
	)
	return block, nil
}

// Detach moves a main chain block to a side chain and reverts every
// transaction no longer included by any main chain block, last first.
func (l *Ledger) Detach(ctx context.Context, s store.Tx, block model.Block, chainID int64) (model.Block, error) {
	wasMain := block.OnMain()
	if err := s.SetBlockChain(ctx, block.ID, chainID); err != nil {
		return block, fmt.Errorf("attach block %s to chain %d: %w", block.Hash, chainID, err)
	}
	block.ChainID = chainID
	if !wasMain {
		return block, nil
	}

	txs, err := s.BlockTransactions(ctx, block.ID)
	if err != nil {
		return block, fmt.Errorf("get transactions of block %s: %w", block.Hash, err)
	}
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		count, err := s.CountMainBlocks(ctx, tx.ID)
		if err != nil {
			return block, fmt.Errorf("count main blocks of %s: %w", tx.TxID, err)
		}
		if count != 0 {
			continue
		}
		if err := l.RevertTransaction(ctx, s, tx.ID); err != nil {
			return block, fmt.Errorf("revert transaction %s: %w", tx.TxID, err)
		}
	}

	l.logger.Info("block detached from main chain",
		zap.String("hash", block.Hash),
		zap.Int64("height", block.Height),
		zap.Int64("chain_id", chainID),
		zap.Int("txs", len(txs)),
	)
	return block, nil
}
