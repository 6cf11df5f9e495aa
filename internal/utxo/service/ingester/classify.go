package ingester

import (
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/shopspring/decimal"
)

type role int

const (
	roleRegular role = iota
	// roleCoinbase mints the block reward.
	roleCoinbase
	// roleStake is the coinstake transaction of a proof-of-stake block.
	roleStake
)

// Block flags reported by proof-of-stake nodes, double-space variants included.
var (
	stakeFlags = map[string]struct{}{
		"proof-of-stake":                               {},
		"proof-of-stake stake-modifier":                {},
		"proof-of-stake stake-entropy":                 {},
		"proof-of-stake stake-entropy stake-modifier":  {},
		"proof-of-stake  stake-modifier":               {},
		"proof-of-stake  stake-entropy":                {},
		"proof-of-stake  stake-entropy stake-modifier": {},
	}
	workFlags = map[string]struct{}{
		"proof-of-work":                               {},
		"proof-of-work stake-modifier":                {},
		"proof-of-work stake-entropy":                 {},
		"proof-of-work stake-entropy stake-modifier":  {},
		"proof-of-work  stake-modifier":               {},
		"proof-of-work  stake-entropy":                {},
		"proof-of-work  stake-entropy stake-modifier": {},
	}
)

// classify decides which reward rule applies to the transaction at index of a block.
func classify(consensus model.ConsensusType, flags string, tx *chain.TxPayload, index int) role {
	if consensus != model.ProofOfStake {
		if tx.IsCoinbase() {
			return roleCoinbase
		}
		return roleRegular
	}

	if _, ok := stakeFlags[flags]; ok && index == 1 &&
		len(tx.Vout) > 0 && tx.Vout[0].ScriptPubKey.Type == "nonstandard" {
		return roleStake
	}
	if _, ok := workFlags[flags]; ok && tx.IsCoinbase() {
		return roleCoinbase
	}
	return roleRegular
}

// settle returns the fee of a transaction and its contribution to the block generation.
func settle(r role, tx model.Transaction) (fee, generation decimal.Decimal) {
	switch r {
	case roleCoinbase:
		return decimal.Zero, tx.OutputT
	case roleStake:
		return decimal.Zero, tx.OutputT.Sub(tx.InputT)
	default:
		fee = tx.InputT.Sub(tx.OutputT)
		return fee, fee.Neg()
	}
}
