package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is stored once per txid and linked to every block that includes it.
// Its aggregates are computed at first insertion.
type Transaction struct {
	ID       int64
	TxID     string
	Hash     string
	Time     time.Time
	Size     int64
	VSize    int64
	Weight   int64
	LockTime uint32
	Version  int32

	InputC  int64
	InputT  decimal.Decimal
	OutputC int64
	OutputT decimal.Decimal
	Fee     decimal.Decimal
}

// Vin is a transaction input. VoutID is nil for coinbase inputs and for
// inputs whose referenced output was never stored.
type Vin struct {
	ID            int64
	TransactionID int64
	Coinbase      bool
	VoutID        *int64
}

// Vout is a stored transaction output. VinID is set while a main-chain input spends it.
type Vout struct {
	ID            int64
	TransactionID int64
	N             uint32
	Value         decimal.Decimal
	Type          string
	VinID         *int64
	AddressIDs    []int64
}
