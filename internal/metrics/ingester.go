package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingesterSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "sync_total",
		Help:      "Count of main chain sync cycles.",
	}, []string{"coin", "network", "status"})

	ingesterSyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "sync_duration_seconds",
		Help:      "Duration of main chain sync cycles.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms..5min
	}, []string{"coin", "network", "status"})

	ingesterSyncBlocks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "sync_blocks",
		Help:      "Blocks committed per sync cycle.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"coin", "network"})

	ingesterBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "blocks_total",
		Help:      "Count of blocks committed or failed by the ingester.",
	}, []string{"coin", "network", "status"})

	ingesterBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "block_duration_seconds",
		Help:      "Duration of ingesting a single block in its store transaction.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	ingesterHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ingester",
		Name:      "main_chain_height",
		Help:      "Height of the last block committed to the main chain.",
	}, []string{"coin", "network"})
)

// Ingester tracks metrics for the block ingestion pipeline.
type Ingester struct {
	coin    model.Coin
	network model.Network
}

func NewIngester(coin model.Coin, network model.Network) *Ingester {
	coin, network = series(coin, network)
	return &Ingester{coin: coin, network: network}
}

// ObserveSync records one sync cycle; blocks is the number of committed blocks.
func (m Ingester) ObserveSync(err error, blocks int, started time.Time) {
	status := statusOf(err)
	ingesterSyncTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	ingesterSyncDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
	ingesterSyncBlocks.WithLabelValues(string(m.coin), string(m.network)).Observe(float64(blocks))
}

// ObserveBlock records one block commit attempt.
func (m Ingester) ObserveBlock(err error, height int64, started time.Time) {
	status := statusOf(err)
	ingesterBlocksTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	ingesterBlockDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
	if err == nil {
		ingesterHeight.WithLabelValues(string(m.coin), string(m.network)).Set(float64(height))
	}
}
