package ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"go.uber.org/zap"
)

// AddFromHash fetches and adds the block unless a block with this hash is already stored.
func (p *Pipeline) AddFromHash(ctx context.Context, s store.Tx, hash string, chainID int64) (model.Block, error) {
	block, err := s.BlockByHash(ctx, hash)
	if err == nil {
		return block, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Block{}, fmt.Errorf("get block %s: %w", hash, err)
	}

	payload, err := p.node.Block(ctx, hash)
	if err != nil {
		return model.Block{}, err
	}
	return p.AddBlock(ctx, s, payload, chainID)
}

// AddBlock stores the payload on chainID. Address effects are applied only on the main chain.
// A block that is already stored is returned as is.
func (p *Pipeline) AddBlock(ctx context.Context, s store.Tx, payload *chain.BlockPayload, chainID int64) (model.Block, error) {
	if existing, err := s.BlockByHash(ctx, payload.Hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Block{}, fmt.Errorf("get block %s: %w", payload.Hash, err)
	}

	block := newBlock(payload, chainID)
	id, err := s.InsertBlock(ctx, block)
	if err != nil {
		return model.Block{}, fmt.Errorf("insert block %s: %w", payload.Hash, err)
	}
	block.ID = id

	for i := range payload.Txs {
		if err := p.addTransaction(ctx, s, &block, payload, i); err != nil {
			return model.Block{}, fmt.Errorf("transaction %s: %w", payload.Txs[i].TxID, err)
		}
	}

	if err := s.UpdateBlockTotals(ctx, block); err != nil {
		return model.Block{}, fmt.Errorf("update block %s: %w", block.Hash, err)
	}
	if block.Height > 1 && block.OnMain() {
		if err := s.SetNextBlockHash(ctx, block.PreviousBlockHash, block.Hash); err != nil {
			return model.Block{}, fmt.Errorf("link block %s: %w", block.PreviousBlockHash, err)
		}
	}

	p.logger.Debug("block added",
		zap.String("hash", block.Hash),
		zap.Int64("height", block.Height),
		zap.Int64("chain_id", chainID),
		zap.Int64("txs", block.NTx),
	)
	return block, nil
}

func (p *Pipeline) addTransaction(ctx context.Context, s store.Tx, block *model.Block, payload *chain.BlockPayload, index int) error {
	txp := &payload.Txs[index]
	r := classify(p.consensus, payload.Flags(), txp, index)

	tx, err := s.TransactionByTxID(ctx, txp.TxID)
	var vouts []model.Vout
	switch {
	case err == nil:
		if err := s.LinkTransaction(ctx, block.ID, tx.ID, index); err != nil {
			return fmt.Errorf("link: %w", err)
		}
		if vouts, err = s.Vouts(ctx, tx.ID); err != nil {
			return fmt.Errorf("get vouts: %w", err)
		}
		if block.OnMain() {
			count, err := s.CountMainBlocks(ctx, tx.ID)
			if err != nil {
				return fmt.Errorf("count main blocks: %w", err)
			}
			if count == 1 {
				if err := p.ledger.ApplyTransaction(ctx, s, tx.ID); err != nil {
					return err
				}
			}
		}
	case errors.Is(err, store.ErrNotFound):
		if tx, vouts, err = p.insertTransaction(ctx, s, block.ID, txp, index); err != nil {
			return err
		}
		tx.Fee, _ = settle(r, tx)
		if err := s.UpdateTransactionTotals(ctx, tx); err != nil {
			return fmt.Errorf("update totals: %w", err)
		}
		if block.OnMain() {
			if err := p.ledger.ApplyTransaction(ctx, s, tx.ID); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("get transaction: %w", err)
	}

	_, generation := settle(r, tx)
	block.AddTransaction(tx, generation)
	if r != roleRegular && block.MinerID == nil {
		block.MinerID = firstAddress(vouts)
	}
	return nil
}

func (p *Pipeline) insertTransaction(
	ctx context.Context,
	s store.Tx,
	blockID int64,
	txp *chain.TxPayload,
	index int,
) (model.Transaction, []model.Vout, error) {
	tx := model.Transaction{
		TxID:     txp.TxID,
		Hash:     txp.Hash,
		Time:     txp.Time,
		Size:     txp.Size,
		VSize:    txp.VSize,
		Weight:   txp.Weight,
		LockTime: txp.LockTime,
		Version:  txp.Version,
	}
	id, err := s.InsertTransaction(ctx, tx)
	if err != nil {
		return tx, nil, fmt.Errorf("insert: %w", err)
	}
	tx.ID = id
	if err := s.LinkTransaction(ctx, blockID, tx.ID, index); err != nil {
		return tx, nil, fmt.Errorf("link: %w", err)
	}

	for i := range txp.Vin {
		vin := model.Vin{TransactionID: tx.ID, Coinbase: txp.Vin[i].IsCoinBase()}
		if !vin.Coinbase {
			spent, err := resolveInput(ctx, s, &txp.Vin[i])
			if err != nil {
				return tx, nil, err
			}
			if spent != nil {
				vin.VoutID = &spent.ID
				tx.InputC++
				tx.InputT = tx.InputT.Add(spent.Value)
			}
		}
		if _, err := s.InsertVin(ctx, vin); err != nil {
			return tx, nil, fmt.Errorf("insert vin %d: %w", i, err)
		}
	}

	vouts := make([]model.Vout, 0, len(txp.Vout))
	for _, out := range txp.Vout {
		if out.Skipped() {
			continue
		}
		addressIDs, err := p.resolveAddresses(ctx, s, out.Addresses())
		if err != nil {
			return tx, nil, err
		}
		vout := model.Vout{
			TransactionID: tx.ID,
			N:             out.N,
			Value:         out.Value,
			Type:          out.ScriptPubKey.Type,
			AddressIDs:    addressIDs,
		}
		if vout.ID, err = s.InsertVout(ctx, vout); err != nil {
			return tx, nil, fmt.Errorf("insert vout %d: %w", out.N, err)
		}
		vouts = append(vouts, vout)
		tx.OutputC++
		tx.OutputT = tx.OutputT.Add(out.Value)
	}
	return tx, vouts, nil
}

// resolveInput returns the output spent by vin, or nil when the referenced
// transaction is known but the output was never stored.
func resolveInput(ctx context.Context, s store.TransactionStore, vin *btcjson.Vin) (*model.Vout, error) {
	prev, err := s.TransactionByTxID(ctx, vin.Txid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s:%d", ErrUnresolvedInput, vin.Txid, vin.Vout)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", vin.Txid, err)
	}

	vout, err := s.VoutByOutpoint(ctx, prev.ID, vin.Vout)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vout %s:%d: %w", vin.Txid, vin.Vout, err)
	}
	return &vout, nil
}

func (p *Pipeline) resolveAddresses(ctx context.Context, s store.AddressStore, addresses []string) ([]int64, error) {
	ids := make([]int64, 0, len(addresses))
	seen := make(map[int64]struct{}, len(addresses))
	for _, address := range addresses {
		a, err := p.ledger.ResolveOrCreate(ctx, s, address)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func firstAddress(vouts []model.Vout) *int64 {
	for _, vout := range vouts {
		if len(vout.AddressIDs) > 0 {
			id := vout.AddressIDs[0]
			return &id
		}
	}
	return nil
}

func newBlock(payload *chain.BlockPayload, chainID int64) model.Block {
	return model.Block{
		Hash:              payload.Hash,
		ChainID:           chainID,
		Height:            payload.Height,
		Time:              payload.Time,
		Size:              payload.Size,
		Difficulty:        payload.Difficulty,
		MerkleRoot:        payload.MerkleRoot,
		Nonce:             payload.Nonce,
		Bits:              payload.Bits,
		PreviousBlockHash: payload.PreviousBlockHash,
		Version:           payload.Version,
		NTx:               int64(len(payload.Txs)),
		Work:              payload.Work,
		Stake:             payload.Stake,
	}
}
