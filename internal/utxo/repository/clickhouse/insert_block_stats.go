package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
)

const insertBlockStatsQuery = `
INSERT INTO utxo_block_stats (
	coin,
	network,
	hash,
	height,
	time,
	miner,
	tx_count,
	input_total,
	output_total,
	fees_total,
	generation,
	main,
	observed_at
) VALUES`

// InsertBlockStats appends statistics rows; the latest observed_at row per block wins on merge.
func (r *Repository) InsertBlockStats(ctx context.Context, stats []model.BlockStats) error {
	start := time.Now()
	var err error
	defer func() {
		coin, network := firstSeries(stats)
		r.metrics.Observe("insert_block_stats", coin, network, err, start)
	}()

	if len(stats) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertBlockStatsQuery)
	if err != nil {
		return fmt.Errorf("prepare block stats batch: %w", err)
	}

	for _, s := range stats {
		if err = batch.Append(statsRow(s)...); err != nil {
			return fmt.Errorf("append block stats %s: %w", s.Hash, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert block stats: %w", err)
	}
	return nil
}

func statsRow(s model.BlockStats) []any {
	return []any{
		string(s.Coin),
		string(s.Network),
		s.Hash,
		s.Height,
		s.Time.UTC(),
		s.Miner,
		s.TxCount,
		s.InputT,
		s.OutputT,
		s.FeesT,
		s.Generation,
		s.Main,
		s.ObservedAt.UTC(),
	}
}

func firstSeries(stats []model.BlockStats) (model.Coin, model.Network) {
	if len(stats) == 0 {
		return "", ""
	}
	return stats[0].Coin, stats[0].Network
}
