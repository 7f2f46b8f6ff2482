package schema

import "time"

// MarketState is the classified market condition.
type MarketState string

const (
	MarketStateUnknown        MarketState = ""
	MarketStateBullishHighVol MarketState = "BULLISH_HIGH_VOL"
	MarketStateBullishLowVol  MarketState = "BULLISH_LOW_VOL"
	MarketStateBearishHighVol MarketState = "BEARISH_HIGH_VOL"
	MarketStateBearishLowVol  MarketState = "BEARISH_LOW_VOL"
	MarketStateRangebound     MarketState = "RANGEBOUND"
)

// Valid reports whether the market state is a known value.
func (s MarketState) Valid() bool {
	switch s {
	case MarketStateBullishHighVol, MarketStateBullishLowVol,
		MarketStateBearishHighVol, MarketStateBearishLowVol,
		MarketStateRangebound:
		return true
	default:
		return false
	}
}

// Bullish reports whether the state carries a bullish sign.
func (s MarketState) Bullish() bool {
	return s == MarketStateBullishHighVol || s == MarketStateBullishLowVol
}

// Bearish reports whether the state carries a bearish sign.
func (s MarketState) Bearish() bool {
	return s == MarketStateBearishHighVol || s == MarketStateBearishLowVol
}

// HighVol reports whether the state is a high-volatility regime.
func (s MarketState) HighVol() bool {
	return s == MarketStateBullishHighVol || s == MarketStateBearishHighVol
}

// MarketSnapshot is the latest known view of one symbol. Old snapshots are
// overwritten, never versioned.
type MarketSnapshot struct {
	Symbol       string
	Price        float64
	High24h      float64
	Low24h       float64
	Change24hPct float64
	Volume       float64
	UpdatedAt    time.Time
}

// RangePosition returns where the price sits inside the 24h range in
// [0,1]; 0.5 when the range is degenerate.
func (s MarketSnapshot) RangePosition() float64 {
	span := s.High24h - s.Low24h
	if span <= 0 {
		return 0.5
	}
	pos := (s.Price - s.Low24h) / span
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// RegimeState is the process-wide classified market condition.
type RegimeState struct {
	State      MarketState
	Confidence float64
	Since      time.Time
}
