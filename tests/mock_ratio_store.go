package tests

import (
	"context"
	"sync"

	"github.com/BelphegorPrime/binance-trade-bot/src/models"
)

type pairRecord struct {
	from, to string
	ratio    *float64
}

type UpsertCall struct {
	From, To string
	Ratio    float64
}

// MockRatioStore implements IRatioStore in memory, keeping insertion order of coins and pairs.
type MockRatioStore struct {
	mu sync.Mutex

	coinOrder []string
	enabled   map[string]bool
	pairs     []*pairRecord

	History []string
	Upserts []UpsertCall

	SetCurrentErr error
}

func NewMockRatioStore() *MockRatioStore {
	return &MockRatioStore{enabled: map[string]bool{}}
}

// NewMockRatioStoreWithCoins returns a store with the universe set and the current coin chosen.
func NewMockRatioStoreWithCoins(current string, symbols ...string) *MockRatioStore {
	rs := NewMockRatioStore()
	_ = rs.SetCoins(context.Background(), symbols)
	if current != "" {
		rs.History = append(rs.History, current)
	}
	return rs
}

func (rs *MockRatioStore) SetCoins(ctx context.Context, symbols []string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	wanted := map[string]bool{}
	for _, s := range symbols {
		wanted[s] = true
	}
	for _, s := range rs.coinOrder {
		rs.enabled[s] = wanted[s]
	}
	for _, s := range symbols {
		if _, ok := rs.enabled[s]; !ok {
			rs.coinOrder = append(rs.coinOrder, s)
		}
		rs.enabled[s] = true
	}
	for _, from := range symbols {
		for _, to := range symbols {
			if from != to && rs.find(from, to) == nil {
				rs.pairs = append(rs.pairs, &pairRecord{from: from, to: to})
			}
		}
	}
	return nil
}

func (rs *MockRatioStore) find(from, to string) *pairRecord {
	for _, p := range rs.pairs {
		if p.from == from && p.to == to {
			return p
		}
	}
	return nil
}

func (rs *MockRatioStore) toModel(p *pairRecord) models.Pair {
	pair := models.Pair{
		From: models.Coin{Symbol: p.from, Enabled: rs.enabled[p.from]},
		To:   models.Coin{Symbol: p.to, Enabled: rs.enabled[p.to]},
	}
	if p.ratio != nil {
		pair.Ratio = models.RatioOf(*p.ratio)
	}
	return pair
}

func (rs *MockRatioStore) GetCurrentAsset(ctx context.Context) (string, bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.History) == 0 {
		return "", false, nil
	}
	return rs.History[len(rs.History)-1], true, nil
}

func (rs *MockRatioStore) SetCurrentAsset(ctx context.Context, symbol string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.SetCurrentErr != nil {
		return rs.SetCurrentErr
	}
	rs.History = append(rs.History, symbol)
	return nil
}

func (rs *MockRatioStore) GetPairsFrom(ctx context.Context, symbol string) ([]models.Pair, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var pairs []models.Pair
	for _, p := range rs.pairs {
		if p.from == symbol {
			pairs = append(pairs, rs.toModel(p))
		}
	}
	return pairs, nil
}

func (rs *MockRatioStore) GetPairsTo(ctx context.Context, symbol string) ([]models.Pair, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var pairs []models.Pair
	for _, p := range rs.pairs {
		if p.to == symbol {
			pairs = append(pairs, rs.toModel(p))
		}
	}
	return pairs, nil
}

func (rs *MockRatioStore) UpsertPairRatio(ctx context.Context, from, to string, ratio float64) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.Upserts = append(rs.Upserts, UpsertCall{From: from, To: to, Ratio: ratio})
	p := rs.find(from, to)
	if p == nil {
		p = &pairRecord{from: from, to: to}
		rs.pairs = append(rs.pairs, p)
	}
	p.ratio = models.RatioOf(ratio)
	return nil
}

func (rs *MockRatioStore) UnsetPairs(ctx context.Context) ([]models.Pair, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	var pairs []models.Pair
	for _, p := range rs.pairs {
		if p.ratio == nil {
			pairs = append(pairs, rs.toModel(p))
		}
	}
	return pairs, nil
}

// SetRatio writes a ratio without recording an upsert call.
func (rs *MockRatioStore) SetRatio(from, to string, ratio float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if p := rs.find(from, to); p != nil {
		p.ratio = models.RatioOf(ratio)
	}
}

func (rs *MockRatioStore) Ratio(from, to string) *float64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if p := rs.find(from, to); p != nil && p.ratio != nil {
		return models.RatioOf(*p.ratio)
	}
	return nil
}

func (rs *MockRatioStore) SetEnabled(symbol string, enabled bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.enabled[symbol] = enabled
}

func (rs *MockRatioStore) UpsertCalls() []UpsertCall {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]UpsertCall(nil), rs.Upserts...)
}
