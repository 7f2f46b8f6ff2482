package regime

import (
	"math"

	"ignitex/internal/schema"
)

// MetricsFromSnapshots aggregates per-symbol snapshots into basket
// metrics. Returns ErrDataUnavailable when no snapshot carries a price.
func MetricsFromSnapshots(snaps []schema.MarketSnapshot) (Metrics, error) {
	changes := make([]float64, 0, len(snaps))
	rising := 0
	rangeSum := 0.0
	for _, s := range snaps {
		if s.Price <= 0 {
			continue
		}
		changes = append(changes, s.Change24hPct)
		if s.Change24hPct > 0 {
			rising++
		}
		rangeSum += rangeCompression(s)
	}
	if len(changes) == 0 {
		return Metrics{}, ErrDataUnavailable
	}

	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	variance := 0.0
	for _, c := range changes {
		d := c - mean
		variance += d * d
	}
	variance /= float64(len(changes))

	return Metrics{
		MeanChange:  mean,
		ChangeStdev: math.Sqrt(variance),
		RangeScore:  rangeSum / float64(len(changes)),
		Breadth:     float64(rising) / float64(len(changes)),
		Samples:     len(changes),
	}, nil
}

// rangeCompression scores 0..100 how tight the 24h range is relative to
// price. A 2% range or tighter scores 100; a 20% range scores 0.
func rangeCompression(s schema.MarketSnapshot) float64 {
	if s.Price <= 0 || s.High24h <= s.Low24h {
		return 0
	}
	spanPct := (s.High24h - s.Low24h) / s.Price * 100
	switch {
	case spanPct <= 2:
		return 100
	case spanPct >= 20:
		return 0
	default:
		return (20 - spanPct) / 18 * 100
	}
}
