package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ignitex/internal/schema"
)

// Synthetic generates random-walk snapshots for paper runs and tests.
// Each symbol walks independently from its configured base price.
type Synthetic struct {
	mu     sync.Mutex
	rng    *rand.Rand
	volPct float64
	prices map[string]float64
	highs  map[string]float64
	lows   map[string]float64
	opens  map[string]float64
	clock  func() time.Time
}

// NewSynthetic creates a generator. volPct is the per-fetch maximum step
// as a percentage of price.
func NewSynthetic(basePrices map[string]float64, volPct float64, seed int64) *Synthetic {
	if volPct <= 0 {
		volPct = 0.2
	}
	s := &Synthetic{
		rng:    rand.New(rand.NewSource(seed)),
		volPct: volPct,
		prices: make(map[string]float64, len(basePrices)),
		highs:  make(map[string]float64, len(basePrices)),
		lows:   make(map[string]float64, len(basePrices)),
		opens:  make(map[string]float64, len(basePrices)),
		clock:  time.Now,
	}
	for symbol, price := range basePrices {
		s.prices[symbol] = price
		s.highs[symbol] = price
		s.lows[symbol] = price
		s.opens[symbol] = price
	}
	return s
}

// FetchSnapshot advances the symbol's walk one step and returns the view.
func (s *Synthetic) FetchSnapshot(_ context.Context, symbol string) (schema.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok || price <= 0 {
		return schema.MarketSnapshot{}, ErrNoData
	}

	step := (s.rng.Float64()*2 - 1) * s.volPct / 100
	price *= 1 + step
	s.prices[symbol] = price
	if price > s.highs[symbol] {
		s.highs[symbol] = price
	}
	if price < s.lows[symbol] {
		s.lows[symbol] = price
	}

	open := s.opens[symbol]
	change := 0.0
	if open > 0 {
		change = (price - open) / open * 100
	}

	return schema.MarketSnapshot{
		Symbol:       symbol,
		Price:        price,
		High24h:      s.highs[symbol],
		Low24h:       s.lows[symbol],
		Change24hPct: change,
		Volume:       1000 + s.rng.Float64()*9000,
		UpdatedAt:    s.clock(),
	}, nil
}

// SetPrice pins a symbol's next price. Test hook.
func (s *Synthetic) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
	if price > s.highs[symbol] {
		s.highs[symbol] = price
	}
	if low, ok := s.lows[symbol]; !ok || price < low {
		s.lows[symbol] = price
	}
	if _, ok := s.opens[symbol]; !ok {
		s.opens[symbol] = price
	}
}
