package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	schedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "Count of job runs.",
	}, []string{"coin", "network", "job", "status"})

	schedulerRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "Duration of job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
	}, []string{"coin", "network", "job", "status"})

	schedulerSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "skipped_ticks_total",
		Help:      "Count of ticks dropped because another job was running.",
	}, []string{"coin", "network", "job"})
)

// Scheduler tracks job runs and dropped ticks.
type Scheduler struct {
	coin    model.Coin
	network model.Network
}

func NewScheduler(coin model.Coin, network model.Network) *Scheduler {
	coin, network = series(coin, network)
	return &Scheduler{coin: coin, network: network}
}

func (m Scheduler) ObserveRun(job string, err error, started time.Time) {
	status := statusOf(err)
	schedulerRunsTotal.WithLabelValues(string(m.coin), string(m.network), job, status).Inc()
	schedulerRunDuration.WithLabelValues(string(m.coin), string(m.network), job, status).
		Observe(time.Since(started).Seconds())
}

func (m Scheduler) ObserveSkipped(job string) {
	schedulerSkippedTotal.WithLabelValues(string(m.coin), string(m.network), job).Inc()
}
