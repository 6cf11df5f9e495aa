// Package ledger maintains address balances and counters and moves blocks
// between the main chain and side chains without double counting.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrDoubleSpend is returned when an output is already spent by another main chain input.
	ErrDoubleSpend = errors.New("output already spent")
	// ErrSpentOutput is returned when a transaction whose outputs are still spent is reverted.
	ErrSpentOutput = errors.New("reverting transaction with spent outputs")
)

// Ledger applies address effects of transactions inside the caller's store transaction.
type Ledger struct {
	logger *zap.Logger
}

// New creates a Ledger.
func New(logger *zap.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// ResolveOrCreate returns the address row, creating it with zero counters when unseen.
func (l *Ledger) ResolveOrCreate(ctx context.Context, s store.AddressStore, address string) (model.Address, error) {
	a, err := s.AddressByHash(ctx, address)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Address{}, fmt.Errorf("get address %s: %w", address, err)
	}

	a = model.Address{Address: address}
	a.ID, err = s.InsertAddress(ctx, a)
	if err != nil {
		return model.Address{}, fmt.Errorf("insert address %s: %w", address, err)
	}
	return a, nil
}

// ApplyDelta adjusts the counters and balance of one address.
func (l *Ledger) ApplyDelta(
	ctx context.Context,
	s store.AddressStore,
	addressID int64,
	direction model.Direction,
	kind model.Kind,
	count int64,
	amount decimal.Decimal,
) error {
	if err := s.UpdateAddressCounters(ctx, addressID, model.NewAddressDelta(direction, kind, count, amount)); err != nil {
		return fmt.Errorf("update address %d: %w", addressID, err)
	}
	return nil
}

// ApplyTransaction debits the owners of every output the transaction spends,
// marks those outputs spent and credits the owners of its own outputs.
func (l *Ledger) ApplyTransaction(ctx context.Context, s store.Tx, txID int64) error {
	vins, err := s.Vins(ctx, txID)
	if err != nil {
		return fmt.Errorf("get vins of transaction %d: %w", txID, err)
	}
	for _, vin := range vins {
		if vin.VoutID == nil {
			continue
		}
		vout, err := s.VoutByID(ctx, *vin.VoutID)
		if err != nil {
			return fmt.Errorf("get vout %d: %w", *vin.VoutID, err)
		}
		if vout.VinID != nil {
			return fmt.Errorf("vout %d spent by vin %d and vin %d: %w", vout.ID, *vout.VinID, vin.ID, ErrDoubleSpend)
		}
		vinID := vin.ID
		if err := s.SetVoutSpender(ctx, vout.ID, &vinID); err != nil {
			return fmt.Errorf("spend vout %d: %w", vout.ID, err)
		}
		for _, addressID := range vout.AddressIDs {
			if err := l.ApplyDelta(ctx, s, addressID, model.Debit, model.AsSpender, 1, vout.Value); err != nil {
				return err
			}
		}
	}

	vouts, err := s.Vouts(ctx, txID)
	if err != nil {
		return fmt.Errorf("get vouts of transaction %d: %w", txID, err)
	}
	for _, vout := range vouts {
		for _, addressID := range vout.AddressIDs {
			if err := l.ApplyDelta(ctx, s, addressID, model.Credit, model.AsReceiver, 1, vout.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// RevertTransaction undoes ApplyTransaction.
func (l *Ledger) RevertTransaction(ctx context.Context, s store.Tx, txID int64) error {
	vouts, err := s.Vouts(ctx, txID)
	if err != nil {
		return fmt.Errorf("get vouts of transaction %d: %w", txID, err)
	}
	for _, vout := range vouts {
		if vout.VinID != nil {
			return fmt.Errorf("vout %d of transaction %d spent by vin %d: %w", vout.ID, txID, *vout.VinID, ErrSpentOutput)
		}
		for _, addressID := range vout.AddressIDs {
			if err := l.ApplyDelta(ctx, s, addressID, model.Debit, model.AsReceiver, 1, vout.Value); err != nil {
				return err
			}
		}
	}

	vins, err := s.Vins(ctx, txID)
	if err != nil {
		return fmt.Errorf("get vins of transaction %d: %w", txID, err)
	}
	for _, vin := range vins {
		if vin.VoutID == nil {
			continue
		}
		vout, err := s.VoutByID(ctx, *vin.VoutID)
		if err != nil {
			return fmt.Errorf("get vout %d: %w", *vin.VoutID, err)
		}
		if vout.VinID == nil || *vout.VinID != vin.ID {
			continue
		}
		if err := s.SetVoutSpender(ctx, vout.ID, nil); err != nil {
			return fmt.Errorf("unspend vout %d: %w", vout.ID, err)
		}
		for _, addressID := range vout.AddressIDs {
			if err := l.ApplyDelta(ctx, s, addressID, model.Credit, model.AsSpender, 1, vout.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
