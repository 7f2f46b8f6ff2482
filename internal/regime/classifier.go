package regime

import (
	"math"
	"time"

	"github.com/yanun0323/errors"

	"ignitex/internal/schema"
)

// ErrDataUnavailable signals that the metrics feed produced nothing to
// classify. Callers fall back to the last-known regime.
var ErrDataUnavailable = errors.New("regime metrics unavailable")

// Metrics are the aggregate basket signals the classifier consumes.
type Metrics struct {
	MeanChange  float64 // mean 24h % change across the basket
	ChangeStdev float64 // cross-sectional stddev of 24h % changes
	RangeScore  float64 // 0..100, how range-compressed the basket trades
	Breadth     float64 // fraction of instruments rising, 0..1
	Samples     int
}

// Assessment is a classified market state with a confidence in [40,95].
type Assessment struct {
	State      schema.MarketState
	Confidence float64
}

// Config holds classification thresholds.
type Config struct {
	TrendScalePerPct float64 // trend score per 1% mean change
	VolScalePerPct   float64 // volatility score per 1% stddev
	BullishTrend     float64 // trend score at or above which the market is bullish
	BearishTrend     float64 // trend score at or below which the market is bearish
	HighVol          float64 // volatility score above which a regime is high-vol
	LowVol           float64 // volatility score below which ranging is possible
	RangeScoreMin    float64 // range score above which ranging is confirmed
	CacheTTL         time.Duration
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		TrendScalePerPct: 20,
		VolScalePerPct:   25,
		BullishTrend:     20,
		BearishTrend:     -20,
		HighVol:          60,
		LowVol:           40,
		RangeScoreMin:    60,
		CacheTTL:         time.Minute,
	}
}

// Classifier turns basket metrics into a discrete market state. The result
// is cached for a short TTL; a cache hit returns the prior assessment
// unchanged regardless of input.
type Classifier struct {
	cfg      Config
	cached   Assessment
	cachedAt time.Time
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg Config) *Classifier {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &Classifier{cfg: cfg}
}

// Classify returns the market state and confidence for the given metrics.
// Classification is deterministic for the same inputs.
func (c *Classifier) Classify(m Metrics, now time.Time) (Assessment, error) {
	if m.Samples <= 0 {
		return Assessment{}, ErrDataUnavailable
	}
	if !c.cachedAt.IsZero() && now.Sub(c.cachedAt) < c.cfg.CacheTTL {
		return c.cached, nil
	}

	trend := clamp(m.MeanChange*c.cfg.TrendScalePerPct, -100, 100)
	vol := clamp(math.Abs(m.ChangeStdev)*c.cfg.VolScalePerPct, 0, 100)

	out := c.classify(trend, vol, m)
	c.cached = out
	c.cachedAt = now
	return out, nil
}

// Invalidate drops the cached assessment so the next call reclassifies.
func (c *Classifier) Invalidate() {
	c.cachedAt = time.Time{}
}

func (c *Classifier) classify(trend, vol float64, m Metrics) Assessment {
	var out Assessment
	switch {
	case vol < c.cfg.LowVol && m.RangeScore >= c.cfg.RangeScoreMin:
		out.State = schema.MarketStateRangebound
		out.Confidence = 50 + m.RangeScore*0.35
	case trend >= c.cfg.BullishTrend:
		out.State = schema.MarketStateBullishLowVol
		if vol >= c.cfg.HighVol {
			out.State = schema.MarketStateBullishHighVol
		}
		out.Confidence = 55 + math.Abs(trend)*0.4
	case trend <= c.cfg.BearishTrend:
		out.State = schema.MarketStateBearishLowVol
		if vol >= c.cfg.HighVol {
			out.State = schema.MarketStateBearishHighVol
		}
		out.Confidence = 55 + math.Abs(trend)*0.4
	default:
		// No clear trend and no confirmed range: rangebound by default,
		// with reduced conviction.
		out.State = schema.MarketStateRangebound
		out.Confidence = 45
	}

	if breadthDisagrees(out.State, m.Breadth) {
		out.Confidence *= 0.8
	}
	out.Confidence = clamp(out.Confidence, 40, 95)
	return out
}

// breadthDisagrees reports whether directional breadth contradicts the
// chosen sign: a bullish call with most instruments falling, or the
// mirror of that.
func breadthDisagrees(state schema.MarketState, breadth float64) bool {
	if state.Bullish() {
		return breadth < 0.5
	}
	if state.Bearish() {
		return breadth > 0.5
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
