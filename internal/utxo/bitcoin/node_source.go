package bitcoin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

const blockVerbosity = "2"

// NodeSource implements chain.Node on top of a bitcoind-compatible RPC client.
type NodeSource struct {
	rpc       RPCClient
	decoder   ScriptDecoder
	consensus model.ConsensusType
}

var _ chain.Node = (*NodeSource)(nil)

// NewNodeSource creates a NodeSource. decoder may be nil for networks whose
// nodes always report output addresses.
func NewNodeSource(rpc RPCClient, decoder ScriptDecoder, consensus model.ConsensusType) *NodeSource {
	return &NodeSource{
		rpc:       rpc,
		decoder:   decoder,
		consensus: consensus,
	}
}

// BlockCount returns the height of the active tip.
func (s *NodeSource) BlockCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", err)
	}
	return count, nil
}

// BlockHash returns the canonical block hash at height.
func (s *NodeSource) BlockHash(ctx context.Context, height int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, err := s.rpc.GetBlockHash(height)
	if err != nil {
		return "", fmt.Errorf("get block hash at height %d: %w", height, unavailable(err))
	}
	return hash.String(), nil
}

// Block fetches a block with verbose transactions.
func (s *NodeSource) Block(ctx context.Context, hash string) (*chain.BlockPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	param, err := json.Marshal(hash)
	if err != nil {
		return nil, fmt.Errorf("encode block hash: %w", err)
	}
	raw, err := s.rpc.RawRequest("getblock", []json.RawMessage{param, json.RawMessage(blockVerbosity)})
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, unavailable(err))
	}

	payload, err := DecodeBlock(raw, s.consensus)
	if err != nil {
		return nil, err
	}
	if err := s.resolveAddresses(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ChainTips returns every branch tip known to the node.
func (s *NodeSource) ChainTips(ctx context.Context) ([]chain.Tip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.rpc.RawRequest("getchaintips", nil)
	if err != nil {
		return nil, fmt.Errorf("get chain tips: %w", err)
	}
	return DecodeChainTips(raw)
}

func (s *NodeSource) resolveAddresses(payload *chain.BlockPayload) error {
	if s.decoder == nil {
		return nil
	}
	for i := range payload.Txs {
		tx := &payload.Txs[i]
		for j := range tx.Vout {
			vout := &tx.Vout[j]
			if vout.Skipped() || len(vout.Addresses()) > 0 {
				continue
			}
			addresses, err := s.decoder.DecodeAddresses(vout.ScriptPubKey)
			if err != nil {
				return fmt.Errorf("decode addresses of %s:%d: %w", tx.TxID, vout.N, err)
			}
			vout.ScriptPubKey.Addresses = addresses
		}
	}
	return nil
}

// unavailable marks node refusals to serve a block or hash with chain.ErrBlockUnavailable.
func unavailable(err error) error {
	var rpcErr *btcjson.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	switch rpcErr.Code {
	case btcjson.ErrRPCInvalidAddressOrKey, btcjson.ErrRPCInvalidParameter, btcjson.ErrRPCMisc:
		return fmt.Errorf("%w: %w", chain.ErrBlockUnavailable, err)
	default:
		return err
	}
}
