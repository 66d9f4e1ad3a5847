package prices

import (
	"context"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/retry"
	"go.uber.org/zap"
)

// Oracle takes price snapshots of every ticker through the exchange gateway.
type Oracle struct {
	Bridge   string
	Exchange interfaces.IExchange
	Retry    *retry.Executor
	Log      interfaces.ILogger
	Statsd   interfaces.IStatsClient
	now      func() time.Time
}

func NewOracle(bridge string, exchange interfaces.IExchange, executor *retry.Executor, log interfaces.ILogger, statsd interfaces.IStatsClient) *Oracle {
	return &Oracle{
		Bridge:   bridge,
		Exchange: exchange,
		Retry:    executor,
		Log:      log,
		Statsd:   statsd,
		now:      time.Now,
	}
}

func (o *Oracle) Snapshot(ctx context.Context) (*interfaces.PriceSnapshot, error) {
	start := o.now()
	all, err := retry.Run(ctx, o.Retry, "get all prices", o.Exchange.GetAllPrices)
	if err != nil {
		return nil, err
	}
	o.Statsd.TimingDuration("prices.snapshot", o.now().Sub(start))
	o.Log.Debug("price snapshot taken", zap.Int("symbols", len(all)))
	return &interfaces.PriceSnapshot{Bridge: o.Bridge, Prices: all, TakenAt: o.now()}, nil
}
