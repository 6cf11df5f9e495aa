// Package chaintest provides an in-memory node and payload builders for ledger tests.
package chaintest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/shopspring/decimal"
)

// Node is a deterministic chain.Node.
type Node struct {
	mu          sync.Mutex
	blocks      map[string]*chain.BlockPayload
	canonical   map[int64]string
	height      int64
	tips        []chain.Tip
	unavailable map[string]bool
	err         error
}

var _ chain.Node = (*Node)(nil)

func NewNode() *Node {
	return &Node{
		blocks:      make(map[string]*chain.BlockPayload),
		canonical:   make(map[int64]string),
		unavailable: make(map[string]bool),
	}
}

// Register makes blocks retrievable by hash without changing the canonical chain.
func (n *Node) Register(blocks ...*chain.BlockPayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, b := range blocks {
		n.blocks[b.Hash] = b
	}
}

// Extend registers blocks as canonical at their heights and moves the active tip to the last one.
func (n *Node) Extend(blocks ...*chain.BlockPayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, b := range blocks {
		n.blocks[b.Hash] = b
		n.canonical[b.Height] = b.Hash
		n.height = b.Height
	}
	n.setActiveLocked()
}

// Truncate forgets canonical hashes above height.
func (n *Node) Truncate(height int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for h := range n.canonical {
		if h > height {
			delete(n.canonical, h)
		}
	}
	n.height = height
	n.setActiveLocked()
}

// SetForks replaces every non-active tip.
func (n *Node) SetForks(tips ...chain.Tip) {
	n.mu.Lock()
	defer n.mu.Unlock()
	active := n.tips[:0:0]
	for _, tip := range n.tips {
		if tip.Status == model.ChainActive {
			active = append(active, tip)
		}
	}
	n.tips = append(active, tips...)
}

// SetCanonical overrides the canonical hash at height.
func (n *Node) SetCanonical(height int64, hash string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.canonical[height] = hash
}

// MarkUnavailable makes Block fail with chain.ErrBlockUnavailable for hash.
func (n *Node) MarkUnavailable(hash string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unavailable[hash] = true
}

// FailWith makes every call fail with err until reset with nil.
func (n *Node) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

func (n *Node) setActiveLocked() {
	tips := n.tips[:0:0]
	for _, tip := range n.tips {
		if tip.Status != model.ChainActive {
			tips = append(tips, tip)
		}
	}
	n.tips = append([]chain.Tip{{
		Hash:   n.canonical[n.height],
		Height: n.height,
		Status: model.ChainActive,
	}}, tips...)
}

func (n *Node) BlockCount(_ context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return 0, n.err
	}
	return n.height, nil
}

func (n *Node) BlockHash(_ context.Context, height int64) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return "", n.err
	}
	hash, ok := n.canonical[height]
	if !ok || height > n.height {
		return "", fmt.Errorf("%w: height %d out of range", chain.ErrBlockUnavailable, height)
	}
	return hash, nil
}

func (n *Node) Block(_ context.Context, hash string) (*chain.BlockPayload, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	b, ok := n.blocks[hash]
	if !ok || n.unavailable[hash] {
		return nil, fmt.Errorf("%w: %s", chain.ErrBlockUnavailable, hash)
	}
	return b, nil
}

func (n *Node) ChainTips(_ context.Context) ([]chain.Tip, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	return append([]chain.Tip(nil), n.tips...), nil
}

// Outpoint references an output of a previous transaction.
type Outpoint struct {
	TxID string
	N    uint32
}

// Out builds an output; N is assigned by Tx.
func Out(value, scriptType string, addresses ...string) chain.VoutPayload {
	return chain.VoutPayload{
		Value: decimal.RequireFromString(value),
		ScriptPubKey: btcjson.ScriptPubKeyResult{
			Type:      scriptType,
			Addresses: addresses,
		},
	}
}

// Pay builds a pubkeyhash output to address.
func Pay(value, address string) chain.VoutPayload {
	return Out(value, "pubkeyhash", address)
}

// Coinbase builds a coinbase transaction.
func Coinbase(txid string, outs ...chain.VoutPayload) chain.TxPayload {
	return tx(txid, []btcjson.Vin{{Coinbase: "03" + txid}}, outs)
}

// Spend builds a transaction spending the given outpoints.
func Spend(txid string, inputs []Outpoint, outs ...chain.VoutPayload) chain.TxPayload {
	vins := make([]btcjson.Vin, 0, len(inputs))
	for _, in := range inputs {
		vins = append(vins, btcjson.Vin{Txid: in.TxID, Vout: in.N})
	}
	return tx(txid, vins, outs)
}

func tx(txid string, vins []btcjson.Vin, outs []chain.VoutPayload) chain.TxPayload {
	vouts := make([]chain.VoutPayload, len(outs))
	for i, out := range outs {
		out.N = uint32(i)
		vouts[i] = out
	}
	return chain.TxPayload{
		TxID:    txid,
		Hash:    txid,
		Version: 1,
		Size:    200,
		VSize:   200,
		Weight:  800,
		Time:    blockTime(0),
		Vin:     vins,
		Vout:    vouts,
	}
}

// Block builds a proof-of-work block payload.
func Block(hash, prev string, height int64, txs ...chain.TxPayload) *chain.BlockPayload {
	return &chain.BlockPayload{
		Hash:              hash,
		PreviousBlockHash: prev,
		MerkleRoot:        "merkle-" + hash,
		Bits:              "1d00ffff",
		Height:            height,
		Time:              blockTime(height),
		Size:              1000,
		Difficulty:        1,
		Nonce:             uint32(height),
		Version:           1,
		Txs:               txs,
		Work: &model.WorkFields{
			StrippedSize: 900,
			Weight:       4000,
			ChainWork:    fmt.Sprintf("%064x", height),
		},
	}
}

// StakeBlock builds a proof-of-stake block payload with the given flags.
func StakeBlock(hash, prev string, height int64, flags string, txs ...chain.TxPayload) *chain.BlockPayload {
	b := Block(hash, prev, height, txs...)
	b.Work = nil
	b.Stake = &model.StakeFields{
		ChainTrust: fmt.Sprintf("%x", height),
		BlockTrust: "1",
		Flags:      flags,
		ProofHash:  "proof-" + hash,
		EntropyBit: height % 2,
		Modifier:   "0",
		Signature:  "sig-" + hash,
	}
	return b
}

func blockTime(height int64) time.Time {
	return time.Unix(1_600_000_000+height*600, 0).UTC()
}
