package reconciler

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		ObserveReconcile(err error, started time.Time)
		ObserveChange(kind string, n int)
	}

	// BlockIngester stores a fetched block on the given chain.
	BlockIngester interface {
		AddBlock(ctx context.Context, s store.Tx, payload *chain.BlockPayload, chainID int64) (model.Block, error)
	}

	StatsPublisher interface {
		Publish(ctx context.Context, block model.Block, miner string) error
	}
)
