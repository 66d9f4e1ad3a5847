package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/logging"
	"github.com/BelphegorPrime/binance-trade-bot/src/metrics"
	"github.com/BelphegorPrime/binance-trade-bot/src/notifications"
	"github.com/BelphegorPrime/binance-trade-bot/src/server"
	"github.com/BelphegorPrime/binance-trade-bot/src/service"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/strategies"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/strategies/jump"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/strategies/order_cycle"
	"github.com/BelphegorPrime/binance-trade-bot/src/sources/binance"
	"github.com/BelphegorPrime/binance-trade-bot/src/sources/mongodb"
	"github.com/BelphegorPrime/binance-trade-bot/src/sources/prices"
	"github.com/BelphegorPrime/binance-trade-bot/src/sources/redis"
	"github.com/BelphegorPrime/binance-trade-bot/src/sources/sqlstore"
)

var configPath = flag.String("config", config.DefaultPath, "path of the YAML configuration")

func main() {
	flag.Parse()

	logger, err := logging.GetZapLogger()
	if err != nil {
		log.Fatalf("Logger initialization failed, %s", err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT) // k8s sends SIGTERM and waits
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("trader exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	statsd, metricsHandler := metrics.New(cfg.Metrics, logging.Named(logger, "metrics"))
	notifier := notifications.New(cfg.Notifications.WebhookURL, logging.Named(logger, "notifications"), statsd)

	exchange := binance.NewConnector(cfg.Binance, logging.Named(logger, "binance"), statsd)
	executor := retry.New(cfg.Orders, logging.Named(logger, "retry"), statsd)
	oracle := prices.NewOracle(cfg.Bridge, exchange, executor, logging.Named(logger, "prices"), statsd)

	store, closeStore, err := openStore(ctx, cfg.Storage, logger, statsd)
	if err != nil {
		return err
	}
	defer closeStore()

	thresholds := strategies.NewThresholdEngine(store, oracle, logging.Named(logger, "thresholds"), statsd)

	var lock interfaces.ILock
	var extendEvery time.Duration
	if cfg.Redis.Enabled() {
		rc, err := redis.NewConnector(cfg.Redis, logging.Named(logger, "redis"))
		if err != nil {
			return err
		}
		defer rc.Close()
		lock = rc.NewMutex(jump.LockName(cfg.Bridge))
		extendEvery = rc.ExtendEvery()
	}

	cycles := order_cycle.Deps{
		Bridge:   cfg.Bridge,
		Exchange: exchange,
		Retry:    executor,
		Pacing:   cfg.Orders,
		Log:      logging.Named(logger, "order_cycle"),
		Statsd:   statsd,
	}
	router := jump.NewRouter(cycles, store, thresholds, lock, notifier, logging.Named(logger, "jump"), statsd)
	router.ExtendEvery = extendEvery
	scout := strategies.NewScout(cfg.Strategy, store, oracle, router, logging.Named(logger, "scout"), statsd)

	trader := service.NewTraderService(cfg, store, thresholds, scout, router, logging.Named(logger, "trader"), statsd)
	srv := server.New(cfg.Server.Addr, trader, metricsHandler, logging.Named(logger, "srv"))
	go func() {
		_ = srv.ListenAndServe()
	}()

	if err := trader.Init(ctx); err != nil {
		return err
	}
	notifier.Notify("Trader started")
	return trader.Run(ctx)
}

func openStore(ctx context.Context, cfg config.Storage, logger *zap.Logger, statsd interfaces.IStatsClient) (interfaces.IRatioStore, func(), error) {
	storeLog := logging.Named(logger, "store")
	if cfg.Driver == "mongodb" {
		store, err := mongodb.Open(ctx, cfg, storeLog, statsd)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}, nil
	}
	store, err := sqlstore.Open(cfg, storeLog)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
