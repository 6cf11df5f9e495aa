// Package chain defines the node view shared between UTXO ledger components.
package chain

import (
	"context"
	"errors"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

// ErrBlockUnavailable is returned when the node refuses to serve a block or hash,
// e.g. headers-only branches, pruned data or heights above the node tip.
var ErrBlockUnavailable = errors.New("block unavailable")

// Node is the RPC gateway the ledger reads from.
type Node interface {
	BlockCount(ctx context.Context) (int64, error)
	BlockHash(ctx context.Context, height int64) (string, error)
	Block(ctx context.Context, hash string) (*BlockPayload, error)
	ChainTips(ctx context.Context) ([]Tip, error)
}

// Tip is one entry of getchaintips.
type Tip struct {
	Hash      string
	Height    int64
	BranchLen int64
	Status    model.ChainStatus
}

// ActiveTip returns the tip the node considers canonical.
func ActiveTip(tips []Tip) (Tip, bool) {
	for _, tip := range tips {
		if tip.Status == model.ChainActive {
			return tip, true
		}
	}
	return Tip{}, false
}
