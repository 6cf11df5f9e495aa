// Package bitcoin adapts a bitcoind-compatible JSON-RPC node to chain.Node.
package bitcoin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/shopspring/decimal"
)

// flexString accepts JSON strings and numbers. Proof-of-stake forks disagree
// on whether stake modifiers are hex strings or integers.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// flexFloat accepts JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse number %s: %w", data, err)
	}
	*f = flexFloat(v)
	return nil
}

type rawBlock struct {
	Hash              string    `json:"hash"`
	StrippedSize      int64     `json:"strippedsize"`
	Size              int64     `json:"size"`
	Weight            int64     `json:"weight"`
	Height            int64     `json:"height"`
	Version           int32     `json:"version"`
	MerkleRoot        string    `json:"merkleroot"`
	Tx                []rawTx   `json:"tx"`
	Time              int64     `json:"time"`
	Nonce             uint32    `json:"nonce"`
	Bits              string    `json:"bits"`
	Difficulty        flexFloat `json:"difficulty"`
	ChainWork         string    `json:"chainwork"`
	PreviousBlockHash string    `json:"previousblockhash"`
	NextBlockHash     string    `json:"nextblockhash"`

	ChainTrust       string     `json:"chaintrust"`
	BlockTrust       string     `json:"blocktrust"`
	Flags            string     `json:"flags"`
	ProofHash        string     `json:"proofhash"`
	EntropyBit       int64      `json:"entropybit"`
	Modifier         flexString `json:"modifier"`
	ModifierChecksum flexString `json:"modifierchecksum"`
	Signature        string     `json:"signature"`
}

type rawTx struct {
	TxID     string        `json:"txid"`
	Hash     string        `json:"hash"`
	Version  int32         `json:"version"`
	Size     int64         `json:"size"`
	VSize    int64         `json:"vsize"`
	Weight   int64         `json:"weight"`
	LockTime uint32        `json:"locktime"`
	Time     int64         `json:"time"`
	Vin      []btcjson.Vin `json:"vin"`
	Vout     []rawVout     `json:"vout"`
}

type rawVout struct {
	Value        decimal.Decimal            `json:"value"`
	N            uint32                     `json:"n"`
	ScriptPubKey btcjson.ScriptPubKeyResult `json:"scriptPubKey"`
}

type rawChainTip struct {
	Height    int64  `json:"height"`
	Hash      string `json:"hash"`
	BranchLen int64  `json:"branchlen"`
	Status    string `json:"status"`
}

// DecodeBlock decodes a getblock verbosity 2 response into a payload for the consensus type.
func DecodeBlock(raw json.RawMessage, consensus model.ConsensusType) (*chain.BlockPayload, error) {
	var src rawBlock
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	if src.Hash == "" {
		return nil, fmt.Errorf("decode block: missing hash")
	}

	blockTime := time.Unix(src.Time, 0).UTC()
	payload := &chain.BlockPayload{
		Hash:              src.Hash,
		PreviousBlockHash: src.PreviousBlockHash,
		NextBlockHash:     src.NextBlockHash,
		MerkleRoot:        src.MerkleRoot,
		Bits:              src.Bits,
		Height:            src.Height,
		Time:              blockTime,
		Size:              src.Size,
		Difficulty:        float64(src.Difficulty),
		Nonce:             src.Nonce,
		Version:           src.Version,
		Txs:               make([]chain.TxPayload, 0, len(src.Tx)),
	}

	switch consensus {
	case model.ProofOfWork:
		payload.Work = &model.WorkFields{
			StrippedSize: src.StrippedSize,
			Weight:       src.Weight,
			ChainWork:    src.ChainWork,
		}
	case model.ProofOfStake:
		payload.Stake = &model.StakeFields{
			ChainTrust:       src.ChainTrust,
			BlockTrust:       src.BlockTrust,
			Flags:            src.Flags,
			ProofHash:        src.ProofHash,
			EntropyBit:       src.EntropyBit,
			Modifier:         string(src.Modifier),
			ModifierChecksum: string(src.ModifierChecksum),
			Signature:        src.Signature,
		}
	default:
		return nil, fmt.Errorf("decode block %s: unsupported consensus type %q", src.Hash, consensus)
	}

	for _, tx := range src.Tx {
		txTime := blockTime
		if tx.Time > 0 {
			txTime = time.Unix(tx.Time, 0).UTC()
		}
		vouts := make([]chain.VoutPayload, 0, len(tx.Vout))
		for _, vout := range tx.Vout {
			vouts = append(vouts, chain.VoutPayload{
				Value:        vout.Value,
				N:            vout.N,
				ScriptPubKey: vout.ScriptPubKey,
			})
		}
		payload.Txs = append(payload.Txs, chain.TxPayload{
			TxID:     tx.TxID,
			Hash:     tx.Hash,
			Version:  tx.Version,
			Size:     tx.Size,
			VSize:    tx.VSize,
			Weight:   tx.Weight,
			LockTime: tx.LockTime,
			Time:     txTime,
			Vin:      tx.Vin,
			Vout:     vouts,
		})
	}
	return payload, nil
}

// DecodeChainTips decodes a getchaintips response.
func DecodeChainTips(raw json.RawMessage) ([]chain.Tip, error) {
	var src []rawChainTip
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decode chain tips: %w", err)
	}
	tips := make([]chain.Tip, 0, len(src))
	for _, tip := range src {
		tips = append(tips, chain.Tip{
			Hash:      tip.Hash,
			Height:    tip.Height,
			BranchLen: tip.BranchLen,
			Status:    model.ChainStatus(tip.Status),
		})
	}
	return tips, nil
}
