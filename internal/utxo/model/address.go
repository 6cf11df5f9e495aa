package model

import "github.com/shopspring/decimal"

// Address holds the running counters of one address.
type Address struct {
	ID      int64
	Address string
	Label   *string
	NTx     int64
	Balance decimal.Decimal
	InputC  int64
	OutputC int64
}

type Direction int

const (
	Credit Direction = iota
	Debit
)

type Kind int

const (
	// AsReceiver counts outputs received by the address.
	AsReceiver Kind = iota
	// AsSpender counts outputs of the address spent by an input.
	AsSpender
)

// AddressDelta is a relative change of address counters.
type AddressDelta struct {
	NTx     int64
	InputC  int64
	OutputC int64
	Balance decimal.Decimal
}

// NewAddressDelta builds the counter change for a ledger entry.
// Credit of a spend and debit of a receipt are reversals and decrement the counters.
func NewAddressDelta(direction Direction, kind Kind, count int64, amount decimal.Decimal) AddressDelta {
	sign := int64(1)
	if (kind == AsReceiver) != (direction == Credit) {
		sign = -1
	}

	delta := AddressDelta{NTx: sign * count}
	if kind == AsReceiver {
		delta.OutputC = sign * count
	} else {
		delta.InputC = sign * count
	}
	if direction == Credit {
		delta.Balance = amount
	} else {
		delta.Balance = amount.Neg()
	}
	return delta
}

// Apply returns a with the delta applied.
func (d AddressDelta) Apply(a Address) Address {
	a.NTx += d.NTx
	a.InputC += d.InputC
	a.OutputC += d.OutputC
	a.Balance = a.Balance.Add(d.Balance)
	return a
}
