package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcilerCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "cycles_total",
		Help:      "Count of chain tip reconciliation cycles.",
	}, []string{"coin", "network", "status"})

	reconcilerCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of chain tip reconciliation cycles.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	reconcilerChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciler",
		Name:      "changes_total",
		Help:      "Count of committed chain rows and blocks changed by reconciliation.",
	}, []string{"coin", "network", "kind"})
)

// Reconciler tracks metrics for the chain tip reconciler.
type Reconciler struct {
	coin    model.Coin
	network model.Network
}

func NewReconciler(coin model.Coin, network model.Network) *Reconciler {
	coin, network = series(coin, network)
	return &Reconciler{coin: coin, network: network}
}

func (m Reconciler) ObserveReconcile(err error, started time.Time) {
	status := statusOf(err)
	reconcilerCyclesTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	reconcilerCycleDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}

// ObserveChange adds n committed changes of the given kind, e.g. block_migrated.
func (m Reconciler) ObserveChange(kind string, n int) {
	reconcilerChangesTotal.WithLabelValues(string(m.coin), string(m.network), kind).Add(float64(n))
}
