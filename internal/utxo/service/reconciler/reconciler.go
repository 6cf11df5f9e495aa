// Package reconciler aligns stored chains with the node's chain tips.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/ledger"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"go.uber.org/zap"
)

var (
	// ErrUnknownChain means a resolved side chain holds blocks the node does not
	// consider canonical. The ledger is left untouched and an operator has to step in.
	ErrUnknownChain = errors.New("unknown chain detected")
	ErrNoActiveTip  = errors.New("node reported no active chain tip")
)

const (
	ChangeChainCreated    = "chain_created"
	ChangeChainUpdated    = "chain_updated"
	ChangeChainDeleted    = "chain_deleted"
	ChangeBlockMigrated   = "block_migrated"
	ChangeBlockDetached   = "block_detached"
	ChangeBlockBackfilled = "block_backfilled"
)

// Reconciler runs one chain tip check per call, inside a single store transaction.
type Reconciler struct {
	repo      store.Repository
	node      chain.Node
	walker    *Walker
	ingester  BlockIngester
	ledger    *ledger.Ledger
	metrics   Metrics
	publisher StatsPublisher
	logger    *zap.Logger
}

type Option func(*Reconciler)

func WithPublisher(publisher StatsPublisher) Option {
	return func(r *Reconciler) {
		r.publisher = publisher
	}
}

func New(
	repo store.Repository,
	node chain.Node,
	ingester BlockIngester,
	l *ledger.Ledger,
	metrics Metrics,
	logger *zap.Logger,
	opts ...Option,
) (*Reconciler, error) {
	if metrics == nil {
		return nil, errors.New("reconciler metrics is required")
	}
	r := &Reconciler{
		repo:     repo,
		node:     node,
		walker:   NewWalker(node, logger),
		ingester: ingester,
		ledger:   l,
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Reconciler) Name() string {
	return "chaintips"
}

func (r *Reconciler) Run(ctx context.Context) error {
	return r.Reconcile(ctx)
}

// cycle collects the effects of one reconciliation until commit.
type cycle struct {
	tx      store.Tx
	changes map[string]int
	touched map[string]model.Block
	order   []string
}

func (c *cycle) record(kind string, blocks ...model.Block) {
	if len(blocks) == 0 {
		c.changes[kind]++
		return
	}
	c.changes[kind] += len(blocks)
	for _, b := range blocks {
		if _, ok := c.touched[b.Hash]; !ok {
			c.order = append(c.order, b.Hash)
		}
		c.touched[b.Hash] = b
	}
}

// Reconcile compares the node's chain tips with the stored chains and fixes the store.
func (r *Reconciler) Reconcile(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.ObserveReconcile(err, started)
	}()

	tips, err := r.node.ChainTips(ctx)
	if err != nil {
		return err
	}
	active, ok := chain.ActiveTip(tips)
	if !ok {
		return ErrNoActiveTip
	}

	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	c := &cycle{tx: tx, changes: make(map[string]int), touched: make(map[string]model.Block)}
	if err := r.saveMain(ctx, c, active); err != nil {
		return err
	}

	sideChains, err := tx.SideChains(ctx)
	if err != nil {
		return fmt.Errorf("get side chains: %w", err)
	}
	known := make(map[string]model.Chain, len(sideChains))
	for _, sc := range sideChains {
		known[sc.Hash] = sc
	}
	reported := make(map[string]chain.Tip, len(tips))
	for _, tip := range tips {
		reported[tip.Hash] = tip
	}

	forks := make([]chain.Tip, 0, len(tips))
	for _, tip := range tips {
		if tip.Status == model.ChainActive {
			continue
		}
		if _, ok := known[tip.Hash]; !ok {
			forks = append(forks, tip)
		}
	}
	sort.SliceStable(forks, func(i, j int) bool {
		return forks[i].Height < forks[j].Height
	})

	claimed := make(map[int64]struct{})
	for _, tip := range forks {
		id, err := r.addTip(ctx, c, tip, sideChains, reported)
		if err != nil {
			return fmt.Errorf("fork %s at %d: %w", tip.Hash, tip.Height, err)
		}
		if id != 0 {
			claimed[id] = struct{}{}
		}
	}

	// A side chain whose tip became the active tip is resolved like a vanished one.
	for _, sc := range sideChains {
		if tip, ok := reported[sc.Hash]; ok && tip.Status != model.ChainActive {
			continue
		}
		if _, ok := claimed[sc.ID]; ok {
			continue
		}
		if err := r.removeChain(ctx, c, sc); err != nil {
			return fmt.Errorf("resolve chain %d %s: %w", sc.ID, sc.Hash, err)
		}
	}

	for _, sc := range sideChains {
		tip, ok := reported[sc.Hash]
		if !ok || tip.Status == model.ChainActive {
			continue
		}
		if tip.Status.IsFork() {
			if err := r.backfill(ctx, c, sc, tip); err != nil {
				return fmt.Errorf("backfill chain %d %s: %w", sc.ID, sc.Hash, err)
			}
		}
		next := tipChain(tip)
		next.ID = sc.ID
		if sc.SameTip(next) {
			continue
		}
		if err := tx.UpdateChain(ctx, next); err != nil {
			return fmt.Errorf("update chain %d: %w", sc.ID, err)
		}
		c.record(ChangeChainUpdated)
	}

	stats, err := r.collectStats(ctx, c)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	for kind, n := range c.changes {
		r.metrics.ObserveChange(kind, n)
	}
	if len(c.changes) > 0 {
		r.logger.Info("chain tips reconciled",
			zap.String("active", active.Hash),
			zap.Int64("height", active.Height),
			zap.Any("changes", c.changes),
		)
	}
	r.publish(ctx, stats)
	return nil
}

func (r *Reconciler) saveMain(ctx context.Context, c *cycle, active chain.Tip) error {
	next := tipChain(active)
	next.ID = model.MainChainID

	current, err := c.tx.MainChain(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get main chain: %w", err)
	}
	if err == nil && current.SameTip(next) {
		return nil
	}
	if err := c.tx.SaveMainChain(ctx, next); err != nil {
		return fmt.Errorf("save main chain: %w", err)
	}
	c.record(ChangeChainUpdated)
	return nil
}

// addTip stores a newly reported fork and returns the id of its chain row,
// or 0 when the tip is deferred to a later cycle.
func (r *Reconciler) addTip(
	ctx context.Context,
	c *cycle,
	tip chain.Tip,
	sideChains []model.Chain,
	reported map[string]chain.Tip,
) (int64, error) {
	trace, err := r.walker.Trace(ctx, c.tx, tip)
	if err != nil {
		return 0, err
	}
	if ok, err := r.attachable(ctx, c, tip, trace); err != nil || !ok {
		return 0, err
	}

	row := tipChain(tip)
	continued := false
	if trace.Anchor != nil && tip.BranchLen > 1 && tip.Status.IsFork() {
		for _, sc := range sideChains {
			if sc.ID != trace.Anchor.ChainID {
				continue
			}
			if _, still := reported[sc.Hash]; !still {
				row.ID = sc.ID
				continued = true
			}
		}
	}

	if continued {
		if err := c.tx.UpdateChain(ctx, row); err != nil {
			return 0, fmt.Errorf("update chain %d: %w", row.ID, err)
		}
		c.record(ChangeChainUpdated)
		r.logger.Info("fork extended", zap.Int64("chain_id", row.ID), zap.String("tip", tip.Hash))
	} else {
		if row.ID, err = c.tx.InsertChain(ctx, row); err != nil {
			return 0, fmt.Errorf("insert chain: %w", err)
		}
		c.record(ChangeChainCreated)
		r.logger.Info("fork detected",
			zap.Int64("chain_id", row.ID),
			zap.String("tip", tip.Hash),
			zap.Int64("height", tip.Height),
			zap.Int64("branchlen", tip.BranchLen),
			zap.String("status", string(tip.Status)),
		)
	}

	if err := r.apply(ctx, c, trace, row.ID); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// attachable reports whether the oldest pending block of trace has a stored parent.
func (r *Reconciler) attachable(ctx context.Context, c *cycle, tip chain.Tip, trace Trace) (bool, error) {
	n := len(trace.Pending)
	if n == 0 {
		return true, nil
	}
	parent := trace.Pending[n-1].PreviousBlockHash
	_, err := c.tx.BlockByHash(ctx, parent)
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.logger.Info("fork history not reachable yet, deferring",
			zap.String("tip", tip.Hash),
			zap.String("parent", parent),
		)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("get block %s: %w", parent, err)
	}
	return true, nil
}

// apply detaches the stale blocks of trace onto chainID and stores its pending blocks there, oldest first.
func (r *Reconciler) apply(ctx context.Context, c *cycle, trace Trace, chainID int64) error {
	for _, block := range trace.Stale {
		detached, err := r.ledger.Detach(ctx, c.tx, block, chainID)
		if err != nil {
			return err
		}
		c.record(ChangeBlockDetached, detached)
	}
	for i := len(trace.Pending) - 1; i >= 0; i-- {
		block, err := r.ingester.AddBlock(ctx, c.tx, trace.Pending[i], chainID)
		if err != nil {
			return err
		}
		c.record(ChangeBlockBackfilled, block)
	}
	return nil
}

// backfill fetches the history of a stored fork that was recorded before the node could serve its blocks.
func (r *Reconciler) backfill(ctx context.Context, c *cycle, sc model.Chain, tip chain.Tip) error {
	blocks, err := c.tx.BlocksByChain(ctx, sc.ID)
	if err != nil {
		return fmt.Errorf("get blocks: %w", err)
	}
	if len(blocks) > 0 {
		return nil
	}

	trace, err := r.walker.Trace(ctx, c.tx, tip)
	if err != nil {
		return err
	}
	if trace.Incomplete {
		return nil
	}
	if ok, err := r.attachable(ctx, c, tip, trace); err != nil || !ok {
		return err
	}
	return r.apply(ctx, c, trace, sc.ID)
}

// removeChain resolves a side chain the node stopped reporting.
// Its blocks must now be canonical, otherwise ErrUnknownChain is returned.
func (r *Reconciler) removeChain(ctx context.Context, c *cycle, sc model.Chain) error {
	if sc.Status == model.ChainInvalid {
		if err := c.tx.DeleteChain(ctx, sc.ID); err != nil {
			return fmt.Errorf("delete chain: %w", err)
		}
		c.record(ChangeChainDeleted)
		return nil
	}

	blocks, err := c.tx.BlocksByChain(ctx, sc.ID)
	if err != nil {
		return fmt.Errorf("get blocks: %w", err)
	}
	for _, block := range blocks {
		canonical, err := r.node.BlockHash(ctx, block.Height)
		if err != nil {
			if errors.Is(err, chain.ErrBlockUnavailable) {
				return fmt.Errorf("%w: block %s at %d: %w", ErrUnknownChain, block.Hash, block.Height, err)
			}
			return err
		}
		if canonical != block.Hash {
			return fmt.Errorf("%w: block %s at %d, node has %s", ErrUnknownChain, block.Hash, block.Height, canonical)
		}

		occupant, err := c.tx.BlockByHeight(ctx, model.MainChainID, block.Height)
		if err == nil {
			return fmt.Errorf("%w: block %s at %d, main chain has %s", ErrUnknownChain, block.Hash, block.Height, occupant.Hash)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get main block at %d: %w", block.Height, err)
		}

		migrated, err := r.ledger.MigrateToMain(ctx, c.tx, block)
		if err != nil {
			return err
		}
		c.record(ChangeBlockMigrated, migrated)
	}

	if err := c.tx.DeleteChain(ctx, sc.ID); err != nil {
		return fmt.Errorf("delete chain: %w", err)
	}
	c.record(ChangeChainDeleted)
	return nil
}

type blockStats struct {
	block model.Block
	miner string
}

func (r *Reconciler) collectStats(ctx context.Context, c *cycle) ([]blockStats, error) {
	if r.publisher == nil {
		return nil, nil
	}
	stats := make([]blockStats, 0, len(c.order))
	for _, hash := range c.order {
		block := c.touched[hash]
		miner, err := store.MinerAddress(ctx, c.tx, block)
		if err != nil {
			return nil, err
		}
		stats = append(stats, blockStats{block: block, miner: miner})
	}
	return stats, nil
}

func (r *Reconciler) publish(ctx context.Context, stats []blockStats) {
	for _, s := range stats {
		if err := r.publisher.Publish(ctx, s.block, s.miner); err != nil {
			r.logger.Warn("publish block stats failed", zap.String("hash", s.block.Hash), zap.Error(err))
		}
	}
}

func tipChain(tip chain.Tip) model.Chain {
	return model.Chain{
		Hash:      tip.Hash,
		Height:    tip.Height,
		BranchLen: tip.BranchLen,
		Status:    tip.Status,
	}
}
