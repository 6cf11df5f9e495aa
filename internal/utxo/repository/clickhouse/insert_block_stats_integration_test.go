//go:build integration

package clickhouse

import (
	"time"

	"github.com/golang/mock/gomock"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/shopspring/decimal"
)

func newStats(hash string, height int64, main bool, observed time.Time) model.BlockStats {
	return model.BlockStats{
		Coin:       model.BTC,
		Network:    model.Mainnet,
		Hash:       hash,
		Height:     height,
		Time:       observed.Add(-time.Minute).Truncate(time.Second),
		Miner:      "miner",
		TxCount:    2,
		InputT:     decimal.RequireFromString("50"),
		OutputT:    decimal.RequireFromString("74"),
		FeesT:      decimal.RequireFromString("1"),
		Generation: decimal.RequireFromString("24"),
		Main:       main,
		ObservedAt: observed,
	}
}

func (s *RepositorySuite) TestInsertBlockStats() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.metrics.EXPECT().Observe("insert_block_stats", model.BTC, model.Mainnet, gomock.Nil(), gomock.Any())

	s.Require().NoError(s.repo.InsertBlockStats(s.testCtx, []model.BlockStats{
		newStats("h1", 1, true, now),
		newStats("h2", 2, true, now),
	}))

	var count uint64
	s.Require().NoError(s.repo.conn.QueryRow(s.testCtx, "SELECT count() FROM utxo_block_stats").Scan(&count))
	s.Equal(uint64(2), count)
}

func (s *RepositorySuite) TestInsertBlockStatsKeepsLatestObservation() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.metrics.EXPECT().Observe("insert_block_stats", model.BTC, model.Mainnet, gomock.Nil(), gomock.Any()).Times(2)

	s.Require().NoError(s.repo.InsertBlockStats(s.testCtx, []model.BlockStats{newStats("h2", 2, true, now)}))
	s.Require().NoError(s.repo.InsertBlockStats(s.testCtx, []model.BlockStats{newStats("h2", 2, false, now.Add(time.Second))}))

	var (
		main       bool
		generation decimal.Decimal
	)
	s.Require().NoError(s.repo.conn.QueryRow(s.testCtx, `
SELECT main, generation
FROM utxo_block_stats FINAL
WHERE coin = ? AND network = ? AND hash = ?`, string(model.BTC), string(model.Mainnet), "h2").Scan(&main, &generation))
	s.False(main)
	s.Equal("24", generation.String())
}
