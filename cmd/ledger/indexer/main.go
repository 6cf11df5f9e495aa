package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/metrics"
	observed "github.com/goodnatureofminers/blockinsight7000-ledger/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/ledger"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/memory"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/exporter"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/ingester"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/reconciler"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/service/scheduler"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	PostgresDSN       string              `long:"postgres-dsn" env:"LEDGER_POSTGRES_DSN" description:"Postgres DSN of the ledger database"`
	ClickhouseDSN     string              `long:"clickhouse-dsn" env:"LEDGER_CLICKHOUSE_DSN" description:"ClickHouse DSN, enables block statistics export"`
	Coin              model.Coin          `long:"coin" env:"LEDGER_COIN" description:"coin name" required:"true"`
	Network           model.Network       `long:"network" env:"LEDGER_NETWORK" description:"network name" required:"true"`
	Consensus         model.ConsensusType `long:"consensus" env:"LEDGER_CONSENSUS" description:"consensus of the chain (pow|pos)" default:"pow"`
	RPCURL            string              `long:"rpc-url" env:"LEDGER_RPC_URL" description:"node RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser           string              `long:"rpc-user" env:"LEDGER_RPC_USER" description:"node RPC username"`
	RPCPassword       string              `long:"rpc-password" env:"LEDGER_RPC_PASSWORD" description:"node RPC password"`
	MetricsAddr       string              `long:"metrics-addr" env:"LEDGER_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	SyncInterval      time.Duration       `long:"sync-interval" env:"LEDGER_SYNC_INTERVAL" description:"interval between main chain syncs, 0 disables" default:"5s"`
	ChainTipsInterval time.Duration       `long:"chaintips-interval" env:"LEDGER_CHAINTIPS_INTERVAL" description:"interval between chain tip reconciliations, 0 disables" default:"1m"`
	FetchWorkers      int                 `long:"fetch-workers" env:"LEDGER_FETCH_WORKERS" description:"number of concurrent block fetches" default:"8"`
	ZMQAddr           string              `long:"zmq-addr" env:"LEDGER_ZMQ_ADDR" description:"node zmq hashblock endpoint, runs jobs on new blocks"`
	DryRun            bool                `long:"dry-run" env:"LEDGER_DRY_RUN" description:"keep the ledger in memory instead of Postgres"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if cfg.PostgresDSN == "" && !cfg.DryRun {
		logger.Fatal("Postgres DSN is required unless --dry-run is set")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("ledger indexer failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	logger = logger.With(zap.String("coin", string(cfg.Coin)), zap.String("network", string(cfg.Network)))
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	repo, closeRepo, err := newLedgerStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()

	decoder, err := bitcoin.NewScriptDecoder(cfg.Coin, cfg.Network)
	switch {
	case errors.Is(err, bitcoin.ErrNoChainParams):
		logger.Warn("outputs without node reported addresses will have no owner", zap.String("coin", string(cfg.Coin)))
		decoder = nil
	case err != nil:
		return fmt.Errorf("init script decoder: %w", err)
	}
	node := bitcoin.NewNodeSource(
		observed.NewObservedClient(rpcClient, metrics.NewRPCClient(cfg.Coin, cfg.Network)),
		decoder,
		cfg.Consensus,
	)

	var (
		ingesterOpts   = []ingester.Option{ingester.WithFetchWorkers(cfg.FetchWorkers)}
		reconcilerOpts []reconciler.Option
	)
	if cfg.ClickhouseDSN != "" {
		stats, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init clickhouse repository: %w", err)
		}
		defer func() {
			_ = stats.Close()
		}()

		exp, err := exporter.New(stats, cfg.Coin, cfg.Network, logger.Named("exporter"))
		if err != nil {
			return fmt.Errorf("init exporter: %w", err)
		}
		exp.Start(ctx)
		defer exp.Stop()

		ingesterOpts = append(ingesterOpts, ingester.WithPublisher(exp))
		reconcilerOpts = append(reconcilerOpts, reconciler.WithPublisher(exp))
	}

	l := ledger.New(logger.Named("ledger"))
	pipeline, err := ingester.New(
		repo,
		node,
		l,
		cfg.Consensus,
		metrics.NewIngester(cfg.Coin, cfg.Network),
		logger.Named("ingester"),
		ingesterOpts...,
	)
	if err != nil {
		return fmt.Errorf("init ingester: %w", err)
	}
	rec, err := reconciler.New(
		repo,
		node,
		pipeline,
		l,
		metrics.NewReconciler(cfg.Coin, cfg.Network),
		logger.Named("reconciler"),
		reconcilerOpts...,
	)
	if err != nil {
		return fmt.Errorf("init reconciler: %w", err)
	}

	sched, err := scheduler.New(
		metrics.NewScheduler(cfg.Coin, cfg.Network),
		logger.Named("scheduler"),
		scheduler.WithFatalErrors(reconciler.ErrUnknownChain),
	)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	newBlocks, err := startBlockSignal(ctx, cfg.ZMQAddr, logger)
	if err != nil {
		return err
	}
	schedule(sched, cfg, pipeline, rec, newBlocks)

	logger.Info("ledger indexer started",
		zap.String("consensus", string(cfg.Consensus)),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Bool("export", cfg.ClickhouseDSN != ""),
	)
	return sched.Run(ctx)
}

// schedule registers the ledger jobs. A new block reconciles chain tips before
// syncing so a reorg is settled before the new tip is appended.
func schedule(sched *scheduler.Scheduler, cfg config, sync, tips scheduler.Job, newBlocks <-chan struct{}) {
	if cfg.SyncInterval > 0 {
		sched.Every(cfg.SyncInterval, sync)
	}
	if cfg.ChainTipsInterval > 0 {
		sched.Every(cfg.ChainTipsInterval, tips)
	}
	if newBlocks != nil {
		sched.OnSignal(newBlocks, tips, sync)
	}
}

func newLedgerStore(ctx context.Context, cfg config, logger *zap.Logger) (store.Repository, func(), error) {
	if cfg.DryRun {
		logger.Warn("dry run, the ledger is kept in memory and lost on exit")
		return memory.NewRepository(), func() {}, nil
	}

	repo, err := postgres.NewRepository(ctx, cfg.PostgresDSN, metrics.NewPostgresRepository(cfg.Coin, cfg.Network))
	if err != nil {
		return nil, nil, fmt.Errorf("init postgres repository: %w", err)
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			logger.Warn("close postgres repository", zap.Error(err))
		}
	}, nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	return rpcclient.New(cfg, nil)
}
