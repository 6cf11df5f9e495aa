package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"go.uber.org/zap"
)

// Trace describes the history behind a fork tip.
type Trace struct {
	// Anchor is the nearest ancestor already stored on a side chain.
	Anchor *model.Block
	// Stale holds main chain blocks the node no longer considers canonical, newest first.
	Stale []model.Block
	// Pending holds blocks missing from the store, newest first.
	Pending []*chain.BlockPayload
	// Incomplete is set when the node could not serve part of the branch.
	Incomplete bool
}

// Walker walks fork tips backwards through the store and the node.
type Walker struct {
	node   chain.Node
	logger *zap.Logger
}

func NewWalker(node chain.Node, logger *zap.Logger) *Walker {
	return &Walker{node: node, logger: logger}
}

// Trace visits at most tip.BranchLen blocks starting at the tip.
// The walk stops at a stored side chain block or at a canonical main chain block.
func (w *Walker) Trace(ctx context.Context, s store.BlockStore, tip chain.Tip) (Trace, error) {
	var trace Trace
	hash := tip.Hash
	for step := int64(0); step < max(tip.BranchLen, 1); step++ {
		block, err := s.BlockByHash(ctx, hash)
		switch {
		case err == nil && !block.OnMain():
			trace.Anchor = &block
			return trace, nil
		case err == nil:
			canonical, err := w.node.BlockHash(ctx, block.Height)
			if err != nil && !errors.Is(err, chain.ErrBlockUnavailable) {
				return trace, err
			}
			if err == nil && canonical == block.Hash {
				return trace, nil
			}
			trace.Stale = append(trace.Stale, block)
			hash = block.PreviousBlockHash
		case errors.Is(err, store.ErrNotFound):
			payload, err := w.node.Block(ctx, hash)
			if errors.Is(err, chain.ErrBlockUnavailable) {
				w.logger.Warn("fork block unavailable",
					zap.String("tip", tip.Hash),
					zap.String("hash", hash),
					zap.Error(err),
				)
				trace.Pending = nil
				trace.Incomplete = true
				return trace, nil
			}
			if err != nil {
				return trace, err
			}
			trace.Pending = append(trace.Pending, payload)
			hash = payload.PreviousBlockHash
		default:
			return trace, fmt.Errorf("get block %s: %w", hash, err)
		}
	}
	return trace, nil
}
