// Package store defines the transactional ledger store used by the UTXO services.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

var (
	// ErrNotFound is returned when a looked up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an insert violates a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
)

type (
	// Repository opens ledger transactions.
	Repository interface {
		Begin(ctx context.Context) (Tx, error)
	}

	// Tx is a single ledger transaction. Every mutation of one block or of one
	// reconciliation pass happens inside one Tx.
	Tx interface {
		ChainStore
		BlockStore
		TransactionStore
		AddressStore
		Commit() error
		Rollback() error
	}

	ChainStore interface {
		MainChain(ctx context.Context) (model.Chain, error)
		SaveMainChain(ctx context.Context, c model.Chain) error
		SideChains(ctx context.Context) ([]model.Chain, error)
		InsertChain(ctx context.Context, c model.Chain) (int64, error)
		UpdateChain(ctx context.Context, c model.Chain) error
		// DeleteChain removes a side chain together with its blocks.
		DeleteChain(ctx context.Context, id int64) error
	}

	BlockStore interface {
		BlockByHash(ctx context.Context, hash string) (model.Block, error)
		BlockByHeight(ctx context.Context, chainID, height int64) (model.Block, error)
		// BlocksByChain returns the blocks of a chain ordered by height.
		BlocksByChain(ctx context.Context, chainID int64) ([]model.Block, error)
		// MaxBlockHeight returns 0 when the chain has no blocks.
		MaxBlockHeight(ctx context.Context, chainID int64) (int64, error)
		InsertBlock(ctx context.Context, b model.Block) (int64, error)
		UpdateBlockTotals(ctx context.Context, b model.Block) error
		SetBlockChain(ctx context.Context, blockID, chainID int64) error
		SetNextBlockHash(ctx context.Context, hash, next string) error
	}

	TransactionStore interface {
		TransactionByTxID(ctx context.Context, txid string) (model.Transaction, error)
		InsertTransaction(ctx context.Context, t model.Transaction) (int64, error)
		UpdateTransactionTotals(ctx context.Context, t model.Transaction) error
		LinkTransaction(ctx context.Context, blockID, txID int64, n int) error
		// BlockTransactions returns the transactions of a block in block order.
		BlockTransactions(ctx context.Context, blockID int64) ([]model.Transaction, error)
		// CountMainBlocks returns how many main chain blocks include the transaction.
		CountMainBlocks(ctx context.Context, txID int64) (int, error)

		InsertVin(ctx context.Context, v model.Vin) (int64, error)
		Vins(ctx context.Context, txID int64) ([]model.Vin, error)
		InsertVout(ctx context.Context, v model.Vout) (int64, error)
		Vouts(ctx context.Context, txID int64) ([]model.Vout, error)
		VoutByOutpoint(ctx context.Context, txID int64, n uint32) (model.Vout, error)
		VoutByID(ctx context.Context, id int64) (model.Vout, error)
		SetVoutSpender(ctx context.Context, voutID int64, vinID *int64) error
	}

	AddressStore interface {
		AddressByHash(ctx context.Context, address string) (model.Address, error)
		AddressByID(ctx context.Context, id int64) (model.Address, error)
		InsertAddress(ctx context.Context, a model.Address) (int64, error)
		// UpdateAddressCounters fails with ErrNotFound when the row is missing.
		UpdateAddressCounters(ctx context.Context, id int64, delta model.AddressDelta) error
	}
)

// MinerAddress returns the address of the block miner, empty when unattributed.
func MinerAddress(ctx context.Context, s AddressStore, b model.Block) (string, error) {
	if b.MinerID == nil {
		return "", nil
	}
	addr, err := s.AddressByID(ctx, *b.MinerID)
	if err != nil {
		return "", fmt.Errorf("get miner %d of block %s: %w", *b.MinerID, b.Hash, err)
	}
	return addr.Address, nil
}
