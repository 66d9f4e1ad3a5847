package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/migration"
)

// TraderService owns the bootstrap and the scout loop of a single trader.
type TraderService struct {
	Config     config.Config
	Store      interfaces.IRatioStore
	Thresholds interfaces.IThresholds
	Scout      interfaces.IScout
	Router     interfaces.ITradeRouter
	Log        interfaces.ILogger
	Statsd     interfaces.IStatsClient
	Rand       *rand.Rand

	current  atomic.Pointer[string]
	lastTick atomic.Int64
}

func NewTraderService(cfg config.Config, store interfaces.IRatioStore, thresholds interfaces.IThresholds, scout interfaces.IScout, router interfaces.ITradeRouter, log interfaces.ILogger, statsd interfaces.IStatsClient) *TraderService {
	return &TraderService{
		Config:     cfg,
		Store:      store,
		Thresholds: thresholds,
		Scout:      scout,
		Router:     router,
		Log:        log,
		Statsd:     statsd,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Init prepares the store and makes sure a current coin is held before trading starts.
func (ts *TraderService) Init(ctx context.Context) error {
	t1 := time.Now()
	ts.Log.Info("trader init",
		zap.String("bridge", ts.Config.Bridge),
		zap.Strings("coins", ts.Config.SupportedCoins),
	)

	if err := ts.Store.SetCoins(ctx, ts.Config.SupportedCoins); err != nil {
		return fmt.Errorf("set coins: %w", err)
	}
	if err := migration.Migrate(ctx, ts.Config.Legacy, ts.Store, ts.Config.SupportedCoins, ts.Log); err != nil {
		return fmt.Errorf("migrate legacy state: %w", err)
	}
	if _, err := ts.Thresholds.InitializeMissing(ctx); err != nil {
		return fmt.Errorf("initialize thresholds: %w", err)
	}

	current, ok, err := ts.Store.GetCurrentAsset(ctx)
	if err != nil {
		return fmt.Errorf("get current coin: %w", err)
	}
	if ok {
		// The stored coin may be stale after a failed jump or a manual trade.
		if current, err = ts.Router.Reconcile(context.WithoutCancel(ctx), current); err != nil {
			return fmt.Errorf("reconcile current coin: %w", err)
		}
	} else if current, err = ts.chooseInitialCoin(ctx); err != nil {
		return err
	}
	ts.current.Store(&current)

	ts.Statsd.TimingDuration("trader.init", time.Since(t1))
	ts.Log.Info("ready to start trading", zap.String("current", current))
	return nil
}

// chooseInitialCoin uses the configured coin, or buys a random one when none is configured.
func (ts *TraderService) chooseInitialCoin(ctx context.Context) (string, error) {
	coin := ts.Config.CurrentCoin
	random := coin == ""
	if random {
		coins := ts.Config.SupportedCoins
		coin = coins[ts.Rand.Intn(len(coins))]
	}
	if !ts.Config.IsSupported(coin) {
		return "", fmt.Errorf("current coin %s is not a supported coin, a proper coin name must be provided at init", coin)
	}

	ts.Log.Info("setting initial coin", zap.String("coin", coin), zap.Bool("random", random))
	if random {
		// Recorded only once bought, so a failed purchase is retried on the next start.
		if err := ts.Router.BuyInto(context.WithoutCancel(ctx), coin); err != nil {
			return "", err
		}
	}
	if err := ts.Store.SetCurrentAsset(ctx, coin); err != nil {
		return "", fmt.Errorf("set current coin: %w", err)
	}
	return coin, nil
}

// Run ticks the scout every scout interval until ctx is done. Ticks are detached from ctx so
// shutdown waits for a running jump instead of aborting it.
func (ts *TraderService) Run(ctx context.Context) error {
	ticker := time.NewTicker(ts.Config.Strategy.ScoutInterval)
	defer ticker.Stop()

	ts.Log.Info("scouting", zap.Duration("interval", ts.Config.Strategy.ScoutInterval))
	for {
		select {
		case <-ctx.Done():
			ts.Log.Info("trader stopped")
			return nil
		case <-ticker.C:
			ts.tick(context.WithoutCancel(ctx))
		}
	}
}

func (ts *TraderService) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			ts.Statsd.Inc("scout.panic")
			ts.Log.Error("error while scouting", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ts.lastTick.Store(time.Now().UnixNano())
	jumped, err := ts.Scout.Tick(ctx)
	if err != nil {
		ts.Statsd.Inc("scout.error")
		ts.Log.Error("error while scouting", zap.Error(err))
	}
	if jumped || err != nil {
		ts.refreshCurrent(ctx)
	}
}

func (ts *TraderService) refreshCurrent(ctx context.Context) {
	current, ok, err := ts.Store.GetCurrentAsset(ctx)
	if err != nil {
		ts.Log.Warn("can't read current coin", zap.Error(err))
		return
	}
	if ok {
		ts.current.Store(&current)
	}
}

func (ts *TraderService) Status() interfaces.TraderStatus {
	status := interfaces.TraderStatus{
		Bridge: ts.Config.Bridge,
		Jumps:  ts.Router.Jumps(),
	}
	if current := ts.current.Load(); current != nil {
		status.CurrentCoin = *current
	}
	if nanos := ts.lastTick.Load(); nanos != 0 {
		status.LastTick = time.Unix(0, nanos).UTC()
	}
	if err := ts.Router.LastError(); err != nil {
		status.LastJumpError = err.Error()
	}
	return status
}
