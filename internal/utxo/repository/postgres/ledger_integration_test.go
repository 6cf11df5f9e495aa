//go:build integration

package postgres

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain/chaintest"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/ledger"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/reconciler"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var blockTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// balances sums address balances and main chain generation in one transaction.
func (s *RepositorySuite) balances() (map[string]decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	var (
		byAddress  = make(map[string]decimal.Decimal)
		total      = decimal.Zero
		generation = decimal.Zero
	)
	s.Require().NoError(s.update(func(tx store.Tx) error {
		var rows []addressRow
		s.Require().NoError(tx.(*Tx).tx.SelectContext(s.testCtx, &rows, `SELECT `+addressColumns+` FROM addresses`))
		for _, row := range rows {
			byAddress[row.Address] = row.Balance
			total = total.Add(row.Balance)
		}

		blocks, err := tx.BlocksByChain(s.testCtx, model.MainChainID)
		s.Require().NoError(err)
		for _, b := range blocks {
			generation = generation.Add(b.Generation)
		}
		return nil
	}))
	return byAddress, total, generation
}

func (s *RepositorySuite) TestLedgerReorg() {
	logger := zap.NewNop()
	node := chaintest.NewNode()
	l := ledger.New(logger)

	pipeline, err := ingester.New(s.repo, node, l, model.ProofOfWork, metrics.NewIngester("BTC", "regtest"), logger)
	s.Require().NoError(err)
	rec, err := reconciler.New(s.repo, node, pipeline, l, metrics.NewReconciler("BTC", "regtest"), logger)
	s.Require().NoError(err)

	node.Extend(
		chaintest.Block("A", "genesis", 1, chaintest.Coinbase("tA", chaintest.Pay("50", "W"))),
		chaintest.Block("B", "A", 2,
			chaintest.Coinbase("tB", chaintest.Pay("10", "X")),
			chaintest.Spend("tW", []chaintest.Outpoint{{TxID: "tA"}}, chaintest.Pay("45", "Y")),
		),
	)
	s.Require().NoError(pipeline.Sync(s.testCtx))
	s.Require().NoError(rec.Reconcile(s.testCtx))

	byAddress, total, generation := s.balances()
	s.True(byAddress["X"].Equal(decimal.NewFromInt(10)))
	s.True(total.Equal(generation), "balances %s, generation %s", total, generation)

	node.Truncate(1)
	node.Extend(chaintest.Block("B'", "A", 2,
		chaintest.Coinbase("tB'", chaintest.Pay("12", "X")),
		chaintest.Spend("tW", []chaintest.Outpoint{{TxID: "tA"}}, chaintest.Pay("45", "Y")),
	))
	node.SetForks(chain.Tip{Hash: "B", Height: 2, BranchLen: 1, Status: model.ChainValidFork})

	s.Require().NoError(rec.Reconcile(s.testCtx))
	s.Require().NoError(pipeline.Sync(s.testCtx))

	byAddress, total, generation = s.balances()
	s.True(byAddress["X"].Equal(decimal.NewFromInt(12)), "X %s", byAddress["X"])
	s.True(byAddress["Y"].Equal(decimal.NewFromInt(45)), "Y %s", byAddress["Y"])
	s.True(byAddress["W"].IsZero(), "W %s", byAddress["W"])
	s.True(total.Equal(generation), "balances %s, generation %s", total, generation)

	s.Require().NoError(s.update(func(tx store.Tx) error {
		sides, err := tx.SideChains(s.testCtx)
		s.Require().NoError(err)
		s.Require().Len(sides, 1)

		b, err := tx.BlockByHash(s.testCtx, "B")
		s.Require().NoError(err)
		s.Equal(sides[0].ID, b.ChainID)

		a, err := tx.BlockByHash(s.testCtx, "A")
		s.Require().NoError(err)
		s.Equal("B'", a.NextBlockHash)
		return nil
	}))
}
