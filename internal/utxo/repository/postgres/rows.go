package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/pkg/safe"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type chainRow struct {
	ID        int64  `db:"id"`
	Height    int64  `db:"height"`
	Hash      string `db:"hash"`
	BranchLen int64  `db:"branchlen"`
	Status    string `db:"status"`
}

func (r chainRow) model() model.Chain {
	return model.Chain{
		ID:        r.ID,
		Height:    r.Height,
		Hash:      r.Hash,
		BranchLen: r.BranchLen,
		Status:    model.ChainStatus(r.Status),
	}
}

type blockRow struct {
	ID                int64           `db:"id"`
	Hash              string          `db:"hash"`
	ChainID           int64           `db:"chain_id"`
	Height            int64           `db:"height"`
	Time              time.Time       `db:"time"`
	Size              int64           `db:"size"`
	Difficulty        float64         `db:"difficulty"`
	MerkleRoot        string          `db:"merkleroot"`
	Nonce             int64           `db:"nonce"`
	Bits              string          `db:"bits"`
	PreviousBlockHash string          `db:"previousblockhash"`
	NextBlockHash     string          `db:"nextblockhash"`
	Version           int32           `db:"version"`
	NTx               int64           `db:"ntx"`
	MinerID           sql.NullInt64   `db:"miner_id"`
	InputC            int64           `db:"inputc"`
	InputT            decimal.Decimal `db:"inputt"`
	OutputC           int64           `db:"outputc"`
	OutputT           decimal.Decimal `db:"outputt"`
	FeesT             decimal.Decimal `db:"feest"`
	Generation        decimal.Decimal `db:"generation"`

	StrippedSize sql.NullInt64  `db:"strippedsize"`
	Weight       sql.NullInt64  `db:"weight"`
	ChainWork    sql.NullString `db:"chainwork"`

	ChainTrust       sql.NullString `db:"chaintrust"`
	BlockTrust       sql.NullString `db:"blocktrust"`
	Flags            sql.NullString `db:"flags"`
	ProofHash        sql.NullString `db:"proofhash"`
	EntropyBit       sql.NullInt64  `db:"entropybit"`
	Modifier         sql.NullString `db:"modifier"`
	ModifierChecksum sql.NullString `db:"modifierchecksum"`
	Signature        sql.NullString `db:"signature"`
}

func newBlockRow(b model.Block) blockRow {
	row := blockRow{
		ID:                b.ID,
		Hash:              b.Hash,
		ChainID:           b.ChainID,
		Height:            b.Height,
		Time:              b.Time,
		Size:              b.Size,
		Difficulty:        b.Difficulty,
		MerkleRoot:        b.MerkleRoot,
		Nonce:             int64(b.Nonce),
		Bits:              b.Bits,
		PreviousBlockHash: b.PreviousBlockHash,
		NextBlockHash:     b.NextBlockHash,
		Version:           b.Version,
		NTx:               b.NTx,
		MinerID:           nullInt64(b.MinerID),
		InputC:            b.InputC,
		InputT:            b.InputT,
		OutputC:           b.OutputC,
		OutputT:           b.OutputT,
		FeesT:             b.FeesT,
		Generation:        b.Generation,
	}
	if w := b.Work; w != nil {
		row.StrippedSize = sql.NullInt64{Int64: w.StrippedSize, Valid: true}
		row.Weight = sql.NullInt64{Int64: w.Weight, Valid: true}
		row.ChainWork = sql.NullString{String: w.ChainWork, Valid: true}
	}
	if s := b.Stake; s != nil {
		row.ChainTrust = sql.NullString{String: s.ChainTrust, Valid: true}
		row.BlockTrust = sql.NullString{String: s.BlockTrust, Valid: true}
		row.Flags = sql.NullString{String: s.Flags, Valid: true}
		row.ProofHash = sql.NullString{String: s.ProofHash, Valid: true}
		row.EntropyBit = sql.NullInt64{Int64: s.EntropyBit, Valid: true}
		row.Modifier = sql.NullString{String: s.Modifier, Valid: true}
		row.ModifierChecksum = sql.NullString{String: s.ModifierChecksum, Valid: true}
		row.Signature = sql.NullString{String: s.Signature, Valid: true}
	}
	return row
}

func (r blockRow) model() (model.Block, error) {
	nonce, err := safe.Uint32(r.Nonce)
	if err != nil {
		return model.Block{}, fmt.Errorf("nonce of block %s: %w", r.Hash, err)
	}

	b := model.Block{
		ID:                r.ID,
		Hash:              r.Hash,
		ChainID:           r.ChainID,
		Height:            r.Height,
		Time:              r.Time.UTC(),
		Size:              r.Size,
		Difficulty:        r.Difficulty,
		MerkleRoot:        r.MerkleRoot,
		Nonce:             nonce,
		Bits:              r.Bits,
		PreviousBlockHash: r.PreviousBlockHash,
		NextBlockHash:     r.NextBlockHash,
		Version:           r.Version,
		NTx:               r.NTx,
		MinerID:           int64Ptr(r.MinerID),
		InputC:            r.InputC,
		InputT:            r.InputT,
		OutputC:           r.OutputC,
		OutputT:           r.OutputT,
		FeesT:             r.FeesT,
		Generation:        r.Generation,
	}
	if r.Flags.Valid {
		b.Stake = &model.StakeFields{
			ChainTrust:       r.ChainTrust.String,
			BlockTrust:       r.BlockTrust.String,
			Flags:            r.Flags.String,
			ProofHash:        r.ProofHash.String,
			EntropyBit:       r.EntropyBit.Int64,
			Modifier:         r.Modifier.String,
			ModifierChecksum: r.ModifierChecksum.String,
			Signature:        r.Signature.String,
		}
	} else if r.ChainWork.Valid {
		b.Work = &model.WorkFields{
			StrippedSize: r.StrippedSize.Int64,
			Weight:       r.Weight.Int64,
			ChainWork:    r.ChainWork.String,
		}
	}
	return b, nil
}

type transactionRow struct {
	ID       int64           `db:"id"`
	TxID     string          `db:"txid"`
	Hash     sql.NullString  `db:"hash"`
	Time     time.Time       `db:"time"`
	Size     int64           `db:"size"`
	VSize    int64           `db:"vsize"`
	Weight   int64           `db:"weight"`
	LockTime int64           `db:"locktime"`
	Version  int32           `db:"version"`
	InputC   int64           `db:"inputc"`
	InputT   decimal.Decimal `db:"inputt"`
	OutputC  int64           `db:"outputc"`
	OutputT  decimal.Decimal `db:"outputt"`
	Fee      decimal.Decimal `db:"fee"`
}

func newTransactionRow(t model.Transaction) transactionRow {
	return transactionRow{
		ID:       t.ID,
		TxID:     t.TxID,
		Hash:     sql.NullString{String: t.Hash, Valid: t.Hash != ""},
		Time:     t.Time,
		Size:     t.Size,
		VSize:    t.VSize,
		Weight:   t.Weight,
		LockTime: int64(t.LockTime),
		Version:  t.Version,
		InputC:   t.InputC,
		InputT:   t.InputT,
		OutputC:  t.OutputC,
		OutputT:  t.OutputT,
		Fee:      t.Fee,
	}
}

func (r transactionRow) model() (model.Transaction, error) {
	lockTime, err := safe.Uint32(r.LockTime)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("locktime of transaction %s: %w", r.TxID, err)
	}

	return model.Transaction{
		ID:       r.ID,
		TxID:     r.TxID,
		Hash:     r.Hash.String,
		Time:     r.Time.UTC(),
		Size:     r.Size,
		VSize:    r.VSize,
		Weight:   r.Weight,
		LockTime: lockTime,
		Version:  r.Version,
		InputC:   r.InputC,
		InputT:   r.InputT,
		OutputC:  r.OutputC,
		OutputT:  r.OutputT,
		Fee:      r.Fee,
	}, nil
}

type vinRow struct {
	ID            int64         `db:"id"`
	TransactionID int64         `db:"transaction_id"`
	Coinbase      bool          `db:"coinbase"`
	VoutID        sql.NullInt64 `db:"vout_id"`
}

func (r vinRow) model() model.Vin {
	return model.Vin{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		Coinbase:      r.Coinbase,
		VoutID:        int64Ptr(r.VoutID),
	}
}

type voutRow struct {
	ID            int64           `db:"id"`
	TransactionID int64           `db:"transaction_id"`
	N             int64           `db:"n"`
	Value         decimal.Decimal `db:"value"`
	Type          string          `db:"type"`
	VinID         sql.NullInt64   `db:"vin_id"`
	AddressIDs    pq.Int64Array   `db:"address_ids"`
}

func (r voutRow) model() (model.Vout, error) {
	n, err := safe.Uint32(r.N)
	if err != nil {
		return model.Vout{}, fmt.Errorf("index of vout %d: %w", r.ID, err)
	}

	var ids []int64
	if len(r.AddressIDs) > 0 {
		ids = []int64(r.AddressIDs)
	}
	return model.Vout{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		N:             n,
		Value:         r.Value,
		Type:          r.Type,
		VinID:         int64Ptr(r.VinID),
		AddressIDs:    ids,
	}, nil
}

type addressRow struct {
	ID      int64           `db:"id"`
	Address string          `db:"address"`
	Label   sql.NullString  `db:"label"`
	NTx     int64           `db:"ntx"`
	Balance decimal.Decimal `db:"balance"`
	InputC  int64           `db:"inputc"`
	OutputC int64           `db:"outputc"`
}

func (r addressRow) model() model.Address {
	a := model.Address{
		ID:      r.ID,
		Address: r.Address,
		NTx:     r.NTx,
		Balance: r.Balance,
		InputC:  r.InputC,
		OutputC: r.OutputC,
	}
	if r.Label.Valid {
		label := r.Label.String
		a.Label = &label
	}
	return a
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
