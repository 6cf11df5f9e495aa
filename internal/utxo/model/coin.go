package model

import (
	"fmt"
	"strings"
)

type Coin string
type Network string

var (
	BTC Coin = "BTC"
	LTC Coin = "LTC"
	RVN Coin = "RVN"
)

var (
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)

// ConsensusType selects how block rewards are recognized in a block.
type ConsensusType string

const (
	ProofOfWork  ConsensusType = "pow"
	ProofOfStake ConsensusType = "pos"
)

// UnmarshalFlag implements flags.Unmarshaler.
func (c *ConsensusType) UnmarshalFlag(value string) error {
	switch strings.ToLower(value) {
	case "pow", "proof-of-work", "proofofwork":
		*c = ProofOfWork
	case "pos", "proof-of-stake", "proofofstake":
		*c = ProofOfStake
	default:
		return fmt.Errorf("unsupported consensus type %q", value)
	}
	return nil
}
