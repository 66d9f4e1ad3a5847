package tests

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
)

// MockOracle snapshots the prices of a MockExchange without retries.
type MockOracle struct {
	Exchange  *MockExchange
	Snapshots atomic.Int32
}

func NewMockOracle(exchange *MockExchange) *MockOracle {
	return &MockOracle{Exchange: exchange}
}

func (mo *MockOracle) Snapshot(ctx context.Context) (*interfaces.PriceSnapshot, error) {
	mo.Snapshots.Add(1)
	all, err := mo.Exchange.GetAllPrices(ctx)
	if err != nil {
		return nil, err
	}
	return &interfaces.PriceSnapshot{Bridge: mo.Exchange.Bridge, Prices: all, TakenAt: time.Now()}, nil
}

// MockJumpRouter records jumps without trading.
type MockJumpRouter struct {
	Jumps []string
	Err   error
}

func (mj *MockJumpRouter) Jump(ctx context.Context, from, to string) error {
	mj.Jumps = append(mj.Jumps, from+"->"+to)
	return mj.Err
}
