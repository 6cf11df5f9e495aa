//go:build integration

package postgres

import (
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/shopspring/decimal"
)

func (s *RepositorySuite) TestMainChainSeeded() {
	s.Require().NoError(s.update(func(tx store.Tx) error {
		main, err := tx.MainChain(s.testCtx)
		s.Require().NoError(err)
		s.Equal(model.MainChainID, main.ID)
		s.Equal(model.ChainActive, main.Status)
		s.Equal(int64(0), main.Height)
		return nil
	}))
}

func (s *RepositorySuite) TestChains() {
	var sideID int64
	s.Require().NoError(s.update(func(tx store.Tx) error {
		s.Require().NoError(tx.SaveMainChain(s.testCtx, model.Chain{Height: 2, Hash: "B", Status: model.ChainActive}))

		var err error
		sideID, err = tx.InsertChain(s.testCtx, model.Chain{Height: 2, Hash: "B'", BranchLen: 1, Status: model.ChainValidHeaders})
		s.Require().NoError(err)
		s.Greater(sideID, model.MainChainID)
		return nil
	}))

	s.Require().NoError(s.update(func(tx store.Tx) error {
		main, err := tx.MainChain(s.testCtx)
		s.Require().NoError(err)
		s.Equal("B", main.Hash)

		sides, err := tx.SideChains(s.testCtx)
		s.Require().NoError(err)
		s.Require().Len(sides, 1)
		s.Equal(model.ChainValidHeaders, sides[0].Status)

		side := sides[0]
		side.Status = model.ChainInvalid
		side.Height = 3
		return tx.UpdateChain(s.testCtx, side)
	}))

	s.Require().NoError(s.update(func(tx store.Tx) error {
		sides, err := tx.SideChains(s.testCtx)
		s.Require().NoError(err)
		s.Require().Len(sides, 1)
		s.Equal(model.ChainInvalid, sides[0].Status)
		s.Equal(int64(3), sides[0].Height)

		s.Require().NoError(tx.DeleteChain(s.testCtx, sideID))
		s.ErrorIs(tx.DeleteChain(s.testCtx, sideID), store.ErrNotFound)
		s.Error(tx.DeleteChain(s.testCtx, model.MainChainID))
		return nil
	}))
}

func (s *RepositorySuite) TestDeleteChainCascadesBlocks() {
	var blockID, txID int64
	s.Require().NoError(s.update(func(tx store.Tx) error {
		chainID, err := tx.InsertChain(s.testCtx, model.Chain{Height: 1, Hash: "A'", BranchLen: 1, Status: model.ChainValidFork})
		s.Require().NoError(err)

		blockID, err = tx.InsertBlock(s.testCtx, model.Block{Hash: "A'", ChainID: chainID, Height: 1, Time: blockTime})
		s.Require().NoError(err)
		txID, err = tx.InsertTransaction(s.testCtx, model.Transaction{TxID: "t1", Time: blockTime})
		s.Require().NoError(err)
		s.Require().NoError(tx.LinkTransaction(s.testCtx, blockID, txID, 0))

		return tx.DeleteChain(s.testCtx, chainID)
	}))

	s.Require().NoError(s.update(func(tx store.Tx) error {
		_, err := tx.BlockByHash(s.testCtx, "A'")
		s.ErrorIs(err, store.ErrNotFound)

		txs, err := tx.BlockTransactions(s.testCtx, blockID)
		s.Require().NoError(err)
		s.Empty(txs)

		// transactions outlive the blocks that contained them
		_, err = tx.TransactionByTxID(s.testCtx, "t1")
		s.Require().NoError(err)
		return nil
	}))
}

func (s *RepositorySuite) TestBlocks() {
	s.Require().NoError(s.update(func(tx store.Tx) error {
		for i, hash := range []string{"h1", "h2"} {
			_, err := tx.InsertBlock(s.testCtx, model.Block{
				Hash:    hash,
				ChainID: model.MainChainID,
				Height:  int64(i + 1),
				Time:    blockTime,
				Work:    &model.WorkFields{ChainWork: "01"},
			})
			s.Require().NoError(err)
		}
		s.Require().NoError(tx.SetNextBlockHash(s.testCtx, "h1", "h2"))
		s.Require().NoError(tx.SetNextBlockHash(s.testCtx, "missing", "h2"))
		return nil
	}))

	s.Require().NoError(s.update(func(tx store.Tx) error {
		height, err := tx.MaxBlockHeight(s.testCtx, model.MainChainID)
		s.Require().NoError(err)
		s.Equal(int64(2), height)

		empty, err := tx.MaxBlockHeight(s.testCtx, 42)
		s.Require().NoError(err)
		s.Equal(int64(0), empty)

		h1, err := tx.BlockByHeight(s.testCtx, model.MainChainID, 1)
		s.Require().NoError(err)
		s.Equal("h2", h1.NextBlockHash)
		s.True(h1.Time.Equal(blockTime))
		s.Require().NotNil(h1.Work)

		blocks, err := tx.BlocksByChain(s.testCtx, model.MainChainID)
		s.Require().NoError(err)
		s.Require().Len(blocks, 2)
		s.Equal("h1", blocks[0].Hash)

		h1.NTx = 3
		h1.Generation = decimal.RequireFromString("50.000000001")
		s.Require().NoError(tx.UpdateBlockTotals(s.testCtx, h1))

		got, err := tx.BlockByHash(s.testCtx, "h1")
		s.Require().NoError(err)
		s.Equal(int64(3), got.NTx)
		s.True(got.Generation.Equal(h1.Generation), "generation %s", got.Generation)
		return nil
	}))
}

func (s *RepositorySuite) TestInsertBlockDuplicate() {
	block := model.Block{Hash: "h1", ChainID: model.MainChainID, Height: 1, Time: blockTime}
	s.Require().NoError(s.update(func(tx store.Tx) error {
		_, err := tx.InsertBlock(s.testCtx, block)
		return err
	}))

	err := s.update(func(tx store.Tx) error {
		_, err := tx.InsertBlock(s.testCtx, block)
		return err
	})
	s.ErrorIs(err, store.ErrAlreadyExists)

	err = s.update(func(tx store.Tx) error {
		_, err := tx.InsertBlock(s.testCtx, model.Block{Hash: "h9", ChainID: 42, Height: 1, Time: blockTime})
		return err
	})
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *RepositorySuite) TestOutputsAndOwners() {
	s.Require().NoError(s.update(func(tx store.Tx) error {
		txID, err := tx.InsertTransaction(s.testCtx, model.Transaction{TxID: "t1", Time: blockTime})
		s.Require().NoError(err)

		var owners []int64
		for _, address := range []string{"Y", "X"} {
			id, err := tx.InsertAddress(s.testCtx, model.Address{Address: address})
			s.Require().NoError(err)
			owners = append(owners, id)
		}

		multisig, err := tx.InsertVout(s.testCtx, model.Vout{
			TransactionID: txID,
			N:             1,
			Value:         decimal.NewFromInt(3),
			Type:          "multisig",
			AddressIDs:    owners,
		})
		s.Require().NoError(err)
		_, err = tx.InsertVout(s.testCtx, model.Vout{TransactionID: txID, N: 0, Value: decimal.Zero, Type: "nulldata"})
		s.Require().NoError(err)

		spender, err := tx.InsertTransaction(s.testCtx, model.Transaction{TxID: "t2", Time: blockTime})
		s.Require().NoError(err)
		vinID, err := tx.InsertVin(s.testCtx, model.Vin{TransactionID: spender, VoutID: &multisig})
		s.Require().NoError(err)
		s.Require().NoError(tx.SetVoutSpender(s.testCtx, multisig, &vinID))

		vouts, err := tx.Vouts(s.testCtx, txID)
		s.Require().NoError(err)
		s.Require().Len(vouts, 2)
		s.Equal(uint32(0), vouts[0].N)
		s.Empty(vouts[0].AddressIDs)
		s.Equal(owners, vouts[1].AddressIDs)
		s.Require().NotNil(vouts[1].VinID)
		s.Equal(vinID, *vouts[1].VinID)

		byOutpoint, err := tx.VoutByOutpoint(s.testCtx, txID, 1)
		s.Require().NoError(err)
		s.Equal(multisig, byOutpoint.ID)

		_, err = tx.VoutByOutpoint(s.testCtx, txID, 7)
		s.ErrorIs(err, store.ErrNotFound)

		vins, err := tx.Vins(s.testCtx, spender)
		s.Require().NoError(err)
		s.Require().Len(vins, 1)
		s.Equal(multisig, *vins[0].VoutID)

		s.Require().NoError(tx.SetVoutSpender(s.testCtx, multisig, nil))
		unspent, err := tx.VoutByID(s.testCtx, multisig)
		s.Require().NoError(err)
		s.Nil(unspent.VinID)
		return nil
	}))
}

func (s *RepositorySuite) TestAddressCounters() {
	s.Require().NoError(s.update(func(tx store.Tx) error {
		id, err := tx.InsertAddress(s.testCtx, model.Address{Address: "A"})
		s.Require().NoError(err)

		s.Require().NoError(tx.UpdateAddressCounters(s.testCtx, id,
			model.NewAddressDelta(model.Credit, model.AsReceiver, 1, decimal.RequireFromString("12.5"))))
		s.Require().NoError(tx.UpdateAddressCounters(s.testCtx, id,
			model.NewAddressDelta(model.Debit, model.AsSpender, 1, decimal.RequireFromString("2.5"))))

		a, err := tx.AddressByHash(s.testCtx, "A")
		s.Require().NoError(err)
		s.Equal(int64(2), a.NTx)
		s.Equal(int64(1), a.InputC)
		s.Equal(int64(1), a.OutputC)
		s.True(a.Balance.Equal(decimal.NewFromInt(10)), "balance %s", a.Balance)

		s.ErrorIs(tx.UpdateAddressCounters(s.testCtx, id+100, model.AddressDelta{}), store.ErrNotFound)
		return nil
	}))
}

func (s *RepositorySuite) TestTransactions() {
	s.Require().NoError(s.update(func(tx store.Tx) error {
		blockID, err := tx.InsertBlock(s.testCtx, model.Block{Hash: "h1", ChainID: model.MainChainID, Height: 1, Time: blockTime})
		s.Require().NoError(err)

		var ids []int64
		for _, txid := range []string{"t2", "t1"} {
			id, err := tx.InsertTransaction(s.testCtx, model.Transaction{TxID: txid, Time: blockTime})
			s.Require().NoError(err)
			ids = append(ids, id)
		}
		s.Require().NoError(tx.LinkTransaction(s.testCtx, blockID, ids[0], 1))
		s.Require().NoError(tx.LinkTransaction(s.testCtx, blockID, ids[1], 0))

		txs, err := tx.BlockTransactions(s.testCtx, blockID)
		s.Require().NoError(err)
		s.Require().Len(txs, 2)
		s.Equal("t1", txs[0].TxID)
		s.Equal("", txs[0].Hash)

		count, err := tx.CountMainBlocks(s.testCtx, ids[0])
		s.Require().NoError(err)
		s.Equal(1, count)

		t1 := txs[0]
		t1.InputC = 2
		t1.Fee = decimal.RequireFromString("0.0001")
		s.Require().NoError(tx.UpdateTransactionTotals(s.testCtx, t1))

		got, err := tx.TransactionByTxID(s.testCtx, "t1")
		s.Require().NoError(err)
		s.Equal(int64(2), got.InputC)
		s.True(got.Fee.Equal(t1.Fee))
		return nil
	}))

	err := s.update(func(tx store.Tx) error {
		_, err := tx.InsertTransaction(s.testCtx, model.Transaction{TxID: "t1", Time: blockTime})
		return err
	})
	s.ErrorIs(err, store.ErrAlreadyExists)
}
