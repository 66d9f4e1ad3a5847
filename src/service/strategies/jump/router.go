package jump

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/strategies/order_cycle"
	"go.uber.org/zap"
)

// Router executes jumps: sell the current coin into the bridge, buy the target with the
// bridge, record the new holding and rebase the thresholds pointing at it.
type Router struct {
	Cycles      order_cycle.Deps
	Store       interfaces.IRatioStore
	Thresholds  interfaces.IThresholds
	Lock        interfaces.ILock
	ExtendEvery time.Duration
	Notifier    interfaces.INotifier
	Log         interfaces.ILogger
	Statsd      interfaces.IStatsClient

	jumps   atomic.Int64
	errMux  sync.Mutex
	lastErr error
}

// NewRouter builds a router. A nil lock falls back to an in-process lock.
func NewRouter(cycles order_cycle.Deps, store interfaces.IRatioStore, thresholds interfaces.IThresholds, lock interfaces.ILock, notifier interfaces.INotifier, log interfaces.ILogger, statsd interfaces.IStatsClient) *Router {
	if lock == nil {
		lock = NewLocalLock(LockName(cycles.Bridge))
	}
	return &Router{
		Cycles:     cycles,
		Store:      store,
		Thresholds: thresholds,
		Lock:       lock,
		Notifier:   notifier,
		Log:        log,
		Statsd:     statsd,
	}
}

// Jump moves the holding from one coin to another. The current coin is only updated once both
// legs are filled; a failed sell never starts the buy leg.
func (r *Router) Jump(ctx context.Context, from, to string) error {
	release, err := r.settle()
	if err != nil {
		r.Statsd.Inc("jump.busy")
		r.Log.Warn("jump skipped", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return err
	}
	defer release()

	started := time.Now()
	r.Statsd.Inc("jump.start")
	r.Log.Info("jumping", zap.String("from", from), zap.String("to", to))
	r.Notifier.Notify(fmt.Sprintf("Jumping from %s to %s", from, to))

	sell, err := order_cycle.NewSellCycle(from, r.Cycles).Run(ctx)
	if err != nil {
		return r.recoverFrom(ctx, from, r.fail(from, to, "sell", err))
	}
	buy, err := order_cycle.NewBuyCycle(to, r.Cycles).Run(ctx)
	if err != nil {
		return r.recoverFrom(ctx, from, r.fail(from, to, "buy", err))
	}
	err = r.Cycles.Retry.Do(ctx, "set current coin", func(ctx context.Context) error {
		return r.Store.SetCurrentAsset(ctx, to)
	})
	if err != nil {
		return r.recoverFrom(ctx, from, r.fail(from, to, "record", err))
	}

	r.jumps.Add(1)
	r.setLastErr(nil)
	r.Statsd.Inc("jump.success")
	r.Statsd.TimingDuration("jump.duration", time.Since(started))
	r.Log.Info("jump done",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("sold", sell.Amount),
		zap.Float64("bought", buy.Amount),
		zap.Float64("price", buy.Price),
	)
	r.Notifier.Notify(fmt.Sprintf("Jumped from %s to %s, bought %v %s at %v", from, to, buy.Amount, to, buy.Price))

	if _, err := r.Thresholds.RebaseOnCurrent(ctx, to); err != nil {
		r.Log.Error("rebase after jump failed", zap.String("coin", to), zap.Error(err))
		return fmt.Errorf("rebase thresholds on %s: %w", to, err)
	}
	return nil
}

// BuyInto spends the bridge balance on coin. It is the initial purchase of a fresh trader.
func (r *Router) BuyInto(ctx context.Context, coin string) error {
	release, err := r.settle()
	if err != nil {
		return err
	}
	defer release()

	r.Log.Info("buying initial coin", zap.String("coin", coin))
	return r.buyInto(ctx, coin)
}

func (r *Router) buyInto(ctx context.Context, coin string) error {
	order, err := order_cycle.NewBuyCycle(coin, r.Cycles).Run(ctx)
	if err != nil {
		return fmt.Errorf("purchase of %s: %w", coin, err)
	}
	r.Notifier.Notify(fmt.Sprintf("Bought %v %s at %v", order.Amount, coin, order.Price))
	return nil
}

func (r *Router) fail(from, to, leg string, err error) error {
	err = fmt.Errorf("jump %s->%s: %s leg: %w", from, to, leg, err)
	r.setLastErr(err)
	r.Statsd.Inc("jump.failure")
	r.Log.Error("jump failed",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("leg", leg),
		zap.Error(err),
	)
	r.Notifier.Notify(fmt.Sprintf("Jump from %s to %s failed during %s: %v", from, to, leg, err))
	return err
}

func (r *Router) setLastErr(err error) {
	r.errMux.Lock()
	defer r.errMux.Unlock()
	r.lastErr = err
}

// Jumps counts successful jumps since start.
func (r *Router) Jumps() int64 {
	return r.jumps.Load()
}

// LastError is the error of the last jump, nil if it succeeded.
func (r *Router) LastError() error {
	r.errMux.Lock()
	defer r.errMux.Unlock()
	return r.lastErr
}
