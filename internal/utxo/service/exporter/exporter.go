// Package exporter batches block statistics into the analytics store.
package exporter

import (
	"context"
	"errors"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/batcher"
	"go.uber.org/zap"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type Repository interface {
	InsertBlockStats(ctx context.Context, stats []model.BlockStats) error
}

const (
	defaultFlushSize     = 500
	defaultFlushInterval = 2 * time.Second
	defaultRPS           = 10
)

type Exporter struct {
	coin    model.Coin
	network model.Network
	batcher *batcher.Batcher[model.BlockStats]
	now     func() time.Time
}

type config struct {
	flushSize     int
	flushInterval time.Duration
	rps           int
}

type Option func(*config)

// WithFlush overrides the batch size and the maximum time a row waits in the buffer.
func WithFlush(size int, interval time.Duration) Option {
	return func(c *config) {
		c.flushSize = size
		c.flushInterval = interval
	}
}

func New(repo Repository, coin model.Coin, network model.Network, logger *zap.Logger, opts ...Option) (*Exporter, error) {
	if repo == nil {
		return nil, errors.New("exporter repository is required")
	}
	cfg := config{flushSize: defaultFlushSize, flushInterval: defaultFlushInterval, rps: defaultRPS}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Exporter{
		coin:    coin,
		network: network,
		batcher: batcher.New(logger.Named("batcher"), repo.InsertBlockStats, batcher.Config{
			Size:     cfg.flushSize,
			Interval: cfg.flushInterval,
			RPS:      cfg.rps,
		}),
		now:     time.Now,
	}, nil
}

func (e *Exporter) Start(ctx context.Context) {
	e.batcher.Start(ctx)
}

// Stop flushes buffered rows and waits for the flush to finish.
func (e *Exporter) Stop() {
	e.batcher.Stop()
}

// Publish queues the statistics of a block whose ledger state changed.
func (e *Exporter) Publish(ctx context.Context, block model.Block, miner string) error {
	return e.batcher.Add(ctx, model.BlockStats{
		Coin:       e.coin,
		Network:    e.network,
		Hash:       block.Hash,
		Height:     block.Height,
		Time:       block.Time,
		Miner:      miner,
		TxCount:    block.NTx,
		InputT:     block.InputT,
		OutputT:    block.OutputT,
		FeesT:      block.FeesT,
		Generation: block.Generation,
		Main:       block.OnMain(),
		ObservedAt: e.now().UTC(),
	})
}
