package interfaces

import (
	"context"
	"time"
)

// PriceSnapshot holds every ticker price taken at one point in time.
type PriceSnapshot struct {
	Bridge  string
	Prices  map[string]float64
	TakenAt time.Time
}

// Price returns the price of a raw ticker symbol. Missing and non-positive prices are unavailable.
func (ps *PriceSnapshot) Price(symbol string) (float64, bool) {
	if ps == nil {
		return 0, false
	}
	price, ok := ps.Prices[symbol]
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}

// BridgePrice returns the price of asset quoted in the bridge asset.
func (ps *PriceSnapshot) BridgePrice(asset string) (float64, bool) {
	if ps == nil {
		return 0, false
	}
	return ps.Price(asset + ps.Bridge)
}

type IPriceOracle interface {
	Snapshot(ctx context.Context) (*PriceSnapshot, error)
}
