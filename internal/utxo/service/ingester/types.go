package ingester

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		ObserveSync(err error, blocks int, started time.Time)
		ObserveBlock(err error, height int64, started time.Time)
	}

	// StatsPublisher receives blocks whose ledger state changed, after commit.
	StatsPublisher interface {
		Publish(ctx context.Context, block model.Block, miner string) error
	}
)
