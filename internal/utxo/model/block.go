// Package model defines domain models of the UTXO ledger.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Block is a block row of the ledger. Height is unique only within a chain.
type Block struct {
	ID                int64
	Hash              string
	ChainID           int64
	Height            int64
	Time              time.Time
	Size              int64
	Difficulty        float64
	MerkleRoot        string
	Nonce             uint32
	Bits              string
	PreviousBlockHash string
	NextBlockHash     string
	Version           int32
	NTx               int64
	MinerID           *int64

	InputC     int64
	InputT     decimal.Decimal
	OutputC    int64
	OutputT    decimal.Decimal
	FeesT      decimal.Decimal
	Generation decimal.Decimal

	// Exactly one of Work and Stake is set, depending on the consensus the block was decoded with.
	Work  *WorkFields
	Stake *StakeFields
}

// WorkFields are reported by proof-of-work nodes.
type WorkFields struct {
	StrippedSize int64
	Weight       int64
	ChainWork    string
}

// StakeFields are reported by proof-of-stake nodes.
type StakeFields struct {
	ChainTrust       string
	BlockTrust       string
	Flags            string
	ProofHash        string
	EntropyBit       int64
	Modifier         string
	ModifierChecksum string
	Signature        string
}

// OnMain reports whether the block is attached to the main chain.
func (b Block) OnMain() bool {
	return b.ChainID == MainChainID
}

// AddTransaction accumulates transaction totals into the block aggregates.
func (b *Block) AddTransaction(tx Transaction, generation decimal.Decimal) {
	b.InputC += tx.InputC
	b.InputT = b.InputT.Add(tx.InputT)
	b.OutputC += tx.OutputC
	b.OutputT = b.OutputT.Add(tx.OutputT)
	b.FeesT = b.FeesT.Add(tx.Fee)
	b.Generation = b.Generation.Add(generation)
}

// BlockStats is the analytics snapshot of a block exported after a ledger change.
type BlockStats struct {
	Coin       Coin
	Network    Network
	Hash       string
	Height     int64
	Time       time.Time
	Miner      string
	TxCount    int64
	InputT     decimal.Decimal
	OutputT    decimal.Decimal
	FeesT      decimal.Decimal
	Generation decimal.Decimal
	Main       bool
	ObservedAt time.Time
}
