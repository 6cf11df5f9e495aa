// Package ingester extends the main chain of the ledger from the node, one block per store transaction.
package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/ledger"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/workerpool"
	"go.uber.org/zap"
)

var (
	// ErrUnresolvedInput is returned when an input references a transaction the ledger does not know.
	ErrUnresolvedInput = errors.New("unresolved input")
	// ErrPreviousBlockMismatch is returned when a fetched block does not extend the stored main chain.
	ErrPreviousBlockMismatch = errors.New("previous block mismatch")
)

// Pipeline converts node block payloads into ledger rows.
type Pipeline struct {
	repo      store.Repository
	node      chain.Node
	ledger    *ledger.Ledger
	consensus model.ConsensusType
	metrics   Metrics
	publisher StatsPublisher
	workers   int
	logger    *zap.Logger
}

type Option func(*Pipeline)

// WithPublisher exports every committed main chain block.
func WithPublisher(publisher StatsPublisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// WithFetchWorkers sets how many payloads are fetched concurrently.
func WithFetchWorkers(workers int) Option {
	return func(p *Pipeline) {
		if workers > 0 {
			p.workers = workers
		}
	}
}

// New builds a Pipeline.
func New(
	repo store.Repository,
	node chain.Node,
	l *ledger.Ledger,
	consensus model.ConsensusType,
	metrics Metrics,
	logger *zap.Logger,
	opts ...Option,
) (*Pipeline, error) {
	if metrics == nil {
		return nil, errors.New("ingester metrics is required")
	}
	if consensus != model.ProofOfWork && consensus != model.ProofOfStake {
		return nil, fmt.Errorf("unsupported consensus type %q", consensus)
	}

	p := &Pipeline{
		repo:      repo,
		node:      node,
		ledger:    l,
		consensus: consensus,
		metrics:   metrics,
		workers:   defaultFetchWorkers,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name identifies the job in the scheduler.
func (p *Pipeline) Name() string {
	return "sync"
}

// Run performs one sync cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.Sync(ctx)
}

// Sync ingests every canonical block above the highest main chain block.
// Payloads are prefetched concurrently; blocks are committed in height order.
func (p *Pipeline) Sync(ctx context.Context) (err error) {
	started := time.Now()
	synced := 0
	defer func() {
		p.metrics.ObserveSync(err, synced, started)
	}()

	current, err := p.mainHeight(ctx)
	if err != nil {
		return err
	}
	target, err := p.node.BlockCount(ctx)
	if err != nil {
		return err
	}
	if target <= current {
		p.logger.Debug("main chain is up to date", zap.Int64("height", current))
		return nil
	}

	p.logger.Info("syncing main chain", zap.Int64("from", current+1), zap.Int64("to", target))
	window := int64(p.workers * fetchWindowFactor)
	for from := current + 1; from <= target; from += window {
		to := min(from+window-1, target)
		heights := make([]int64, 0, to-from+1)
		for h := from; h <= to; h++ {
			heights = append(heights, h)
		}

		payloads, err := workerpool.Map(ctx, p.workers, heights, p.fetch)
		if err != nil {
			return err
		}
		for _, payload := range payloads {
			if err := p.commit(ctx, payload); err != nil {
				return fmt.Errorf("ingest block %d %s: %w", payload.Height, payload.Hash, err)
			}
			synced++
		}
	}
	return nil
}

func (p *Pipeline) mainHeight(ctx context.Context) (int64, error) {
	tx, err := p.repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	height, err := tx.MaxBlockHeight(ctx, model.MainChainID)
	if err != nil {
		return 0, fmt.Errorf("get main chain height: %w", err)
	}
	return height, nil
}

func (p *Pipeline) fetch(ctx context.Context, height int64) (*chain.BlockPayload, error) {
	hash, err := p.node.BlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	return p.node.Block(ctx, hash)
}

func (p *Pipeline) commit(ctx context.Context, payload *chain.BlockPayload) (err error) {
	started := time.Now()
	defer func() {
		p.metrics.ObserveBlock(err, payload.Height, started)
	}()

	tx, err := p.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := p.checkParent(ctx, tx, payload); err != nil {
		return err
	}

	block, err := tx.BlockByHash(ctx, payload.Hash)
	switch {
	case err == nil && block.OnMain():
		return nil
	case err == nil:
		p.logger.Info("canonical block found on side chain",
			zap.String("hash", block.Hash),
			zap.Int64("height", block.Height),
			zap.Int64("chain_id", block.ChainID),
		)
		block, err = p.ledger.MigrateToMain(ctx, tx, block)
	case errors.Is(err, store.ErrNotFound):
		block, err = p.AddBlock(ctx, tx, payload, model.MainChainID)
	default:
		return fmt.Errorf("get block %s: %w", payload.Hash, err)
	}
	if err != nil {
		return err
	}

	miner, err := store.MinerAddress(ctx, tx, block)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	p.publish(ctx, block, miner)
	return nil
}

func (p *Pipeline) checkParent(ctx context.Context, tx store.Tx, payload *chain.BlockPayload) error {
	if payload.Height <= 1 {
		return nil
	}
	parent, err := tx.BlockByHeight(ctx, model.MainChainID, payload.Height-1)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get main block at %d: %w", payload.Height-1, err)
	}
	if parent.Hash != payload.PreviousBlockHash {
		return fmt.Errorf("%w: block %s expects %s, main chain has %s",
			ErrPreviousBlockMismatch, payload.Hash, payload.PreviousBlockHash, parent.Hash)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, block model.Block, miner string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, block, miner); err != nil {
		p.logger.Warn("publish block stats failed", zap.String("hash", block.Hash), zap.Error(err))
	}
}
