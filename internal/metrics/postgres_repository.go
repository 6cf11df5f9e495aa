package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postgresRepositoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "postgres_repository",
		Name:      "operations_total",
		Help:      "Count of ledger store operations.",
	}, []string{"operation", "coin", "network", "status"})
	postgresRepositoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "postgres_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger store operations.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"operation", "coin", "network", "status"})
)

// PostgresRepository tracks ledger store operations. Lookups of missing rows are
// reported with the not_found status since the ingester looks rows up to test for existence.
type PostgresRepository struct {
	coin    model.Coin
	network model.Network
}

func NewPostgresRepository(coin model.Coin, network model.Network) *PostgresRepository {
	coin, network = series(coin, network)
	return &PostgresRepository{coin: coin, network: network}
}

func (m PostgresRepository) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	postgresRepositoryRequestsTotal.WithLabelValues(operation, string(m.coin), string(m.network), status).Inc()
	postgresRepositoryRequestDuration.WithLabelValues(operation, string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}
