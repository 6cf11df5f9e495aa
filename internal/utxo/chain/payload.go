package chain

import (
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/shopspring/decimal"
)

// BlockPayload is a getblock (verbosity 2) response decoded for one consensus type.
// Work is set for proof-of-work nodes, Stake for proof-of-stake nodes.
type BlockPayload struct {
	Hash              string
	PreviousBlockHash string
	NextBlockHash     string
	MerkleRoot        string
	Bits              string
	Height            int64
	Time              time.Time
	Size              int64
	Difficulty        float64
	Nonce             uint32
	Version           int32
	Txs               []TxPayload

	Work  *model.WorkFields
	Stake *model.StakeFields
}

// Flags returns the proof-of-stake block flags, empty for proof-of-work payloads.
func (b *BlockPayload) Flags() string {
	if b.Stake == nil {
		return ""
	}
	return b.Stake.Flags
}

// TxPayload is a verbose transaction of a block payload.
type TxPayload struct {
	TxID     string
	Hash     string
	Version  int32
	Size     int64
	VSize    int64
	Weight   int64
	LockTime uint32
	Time     time.Time
	Vin      []btcjson.Vin
	Vout     []VoutPayload
}

// IsCoinbase reports whether the first input mints new coins.
func (t *TxPayload) IsCoinbase() bool {
	return len(t.Vin) > 0 && t.Vin[0].IsCoinBase()
}

// VoutPayload is a transaction output with an exact value.
type VoutPayload struct {
	Value        decimal.Decimal
	N            uint32
	ScriptPubKey btcjson.ScriptPubKeyResult
}

// Addresses returns the addresses the output pays to.
func (v VoutPayload) Addresses() []string {
	if len(v.ScriptPubKey.Addresses) > 0 {
		return v.ScriptPubKey.Addresses
	}
	if v.ScriptPubKey.Address != "" {
		return []string{v.ScriptPubKey.Address}
	}
	return nil
}

// Skipped reports whether the output is never stored.
func (v VoutPayload) Skipped() bool {
	switch v.ScriptPubKey.Type {
	case "nonstandard", "nulldata":
		return true
	default:
		return false
	}
}
