package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignitex/internal/schema"
)

func neverSkip() float64  { return 0.99 }
func alwaysSkip() float64 { return 0.0 }

func fullSuitability() map[schema.MarketState]float64 {
	return map[schema.MarketState]float64{
		schema.MarketStateBullishHighVol: 85,
		schema.MarketStateBullishLowVol:  80,
		schema.MarketStateBearishHighVol: 85,
		schema.MarketStateBearishLowVol:  80,
		schema.MarketStateRangebound:     75,
	}
}

func snapshot(price, high, low, changePct float64) schema.MarketSnapshot {
	return schema.MarketSnapshot{
		Symbol:       "BTCUSDT",
		Price:        price,
		High24h:      high,
		Low24h:       low,
		Change24hPct: changePct,
		Volume:       5000,
		UpdatedAt:    time.Now(),
	}
}

// Every generated exit pair must respect the absolute TP/SL bounds and
// the minimum reward:risk ratio, whatever the regime, archetype, base
// distances or 24h range look like.
func TestExitBoundsAndRewardRiskAlwaysHold(t *testing.T) {
	states := []schema.MarketState{
		schema.MarketStateBullishHighVol,
		schema.MarketStateBullishLowVol,
		schema.MarketStateBearishHighVol,
		schema.MarketStateBearishLowVol,
		schema.MarketStateRangebound,
	}
	archetypes := []schema.Archetype{
		schema.ArchetypeTrend,
		schema.ArchetypeReversion,
		schema.ArchetypeVolatility,
	}
	bases := []struct{ tp, sl float64 }{
		{0.3, 0.1},  // tiny exits get raised to the floors
		{1.6, 0.8},  // production midpoint
		{4.0, 2.5},  // oversized exits get clamped down
		{0.6, 0.55}, // reward:risk below 1.5 before enforcement
	}
	snaps := []schema.MarketSnapshot{
		snapshot(100, 100.5, 99.8, 0.4), // compressed range
		snapshot(100, 104, 96, 3.5),     // normal range
		snapshot(100, 118, 92, -7),      // wide range
		snapshot(100, 100, 100, 0),      // degenerate range
	}

	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	perf := NewPerformance()
	for _, state := range states {
		for _, arch := range archetypes {
			for _, base := range bases {
				for _, snap := range snaps {
					s := Strategy{
						Name:        "bench",
						Archetype:   arch,
						Suitability: fullSuitability(),
						BaseTPPct:   base.tp,
						BaseSLPct:   base.sl,
					}
					reg := schema.RegimeState{State: state, Confidence: 70}
					sig := g.Generate(s, reg, snap, perf)
					require.NotNilf(t, sig, "state=%s arch=%s base=%+v", state, arch, base)

					assert.GreaterOrEqual(t, sig.TPPct, minTPPct)
					assert.LessOrEqual(t, sig.TPPct, maxTPPct)
					assert.GreaterOrEqual(t, sig.SLPct, minSLPct)
					assert.LessOrEqual(t, sig.SLPct, maxSLPct)
					assert.GreaterOrEqualf(t, sig.TPPct/sig.SLPct, minRewardRisk-1e-9,
						"reward:risk %f state=%s arch=%s base=%+v", sig.TPPct/sig.SLPct, state, arch, base)
					assert.True(t, sig.Direction.Valid())
					assert.LessOrEqual(t, sig.Confidence, 95.0)
				}
			}
		}
	}
}

func TestGenerateNilBelowMinSuitability(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:      "bench",
		Archetype: schema.ArchetypeTrend,
		Suitability: map[schema.MarketState]float64{
			schema.MarketStateRangebound: 25,
		},
		BaseTPPct: 1.6,
		BaseSLPct: 0.8,
	}
	reg := schema.RegimeState{State: schema.MarketStateRangebound}

	sig := g.Generate(s, reg, snapshot(100, 104, 96, 1), NewPerformance())
	assert.Nil(t, sig)
}

func TestGenerateCooldownOnLosingStreak(t *testing.T) {
	s := Strategy{
		Name:        "cold",
		Archetype:   schema.ArchetypeTrend,
		Suitability: fullSuitability(),
		BaseTPPct:   1.6,
		BaseSLPct:   0.8,
	}
	reg := schema.RegimeState{State: schema.MarketStateBullishLowVol}
	snap := snapshot(100, 104, 96, 3)

	perf := NewPerformance()
	for i := 0; i < 3; i++ {
		perf.Record("cold", -0.5, false)
	}
	require.Equal(t, -3, perf.Outcome("cold").Streak)

	skipped := NewGenerator(DefaultGeneratorConfig(), alwaysSkip)
	assert.Nil(t, skipped.Generate(s, reg, snap, perf))

	allowed := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	assert.NotNil(t, allowed.Generate(s, reg, snap, perf))

	// A shallower streak never consults the throttle.
	fresh := NewPerformance()
	fresh.Record("cold", -0.5, false)
	assert.NotNil(t, skipped.Generate(s, reg, snap, fresh))
}

func TestBiasTieResolvesLong(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:        "flat",
		Archetype:   schema.ArchetypeVolatility,
		Suitability: fullSuitability(),
		BaseTPPct:   1.8,
		BaseSLPct:   0.9,
	}
	// Rangebound, zero momentum, no volume: every bias signal is silent.
	reg := schema.RegimeState{State: schema.MarketStateRangebound}
	snap := snapshot(100, 102, 98, 0)
	snap.Volume = 0

	sig := g.Generate(s, reg, snap, NewPerformance())
	require.NotNil(t, sig)
	assert.Equal(t, schema.DirectionLong, sig.Direction)
	assert.Zero(t, sig.Strength)
}

func TestBiasFollowsBullishAlignment(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:        "rider",
		Archetype:   schema.ArchetypeTrend,
		Suitability: fullSuitability(),
		BaseTPPct:   1.6,
		BaseSLPct:   0.8,
	}
	reg := schema.RegimeState{State: schema.MarketStateBullishHighVol}

	sig := g.Generate(s, reg, snapshot(100, 104, 95, 3.5), NewPerformance())
	require.NotNil(t, sig)
	assert.Equal(t, schema.DirectionLong, sig.Direction)
	assert.Greater(t, sig.Strength, 0.9) // all five signals agree

	sig = g.Generate(s, schema.RegimeState{State: schema.MarketStateBearishHighVol},
		snapshot(100, 105, 96, -3.5), NewPerformance())
	require.NotNil(t, sig)
	assert.Equal(t, schema.DirectionShort, sig.Direction)
}

func TestReversionFadesOvershoot(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:        "fader",
		Archetype:   schema.ArchetypeReversion,
		Suitability: fullSuitability(),
		BaseTPPct:   1.4,
		BaseSLPct:   0.7,
	}
	// Rangebound regime, +6% overshoot near the top of the range: the
	// fade signals outweigh momentum.
	reg := schema.RegimeState{State: schema.MarketStateRangebound}
	snap := snapshot(106, 106.5, 99, 6)

	sig := g.Generate(s, reg, snap, NewPerformance())
	require.NotNil(t, sig)
	assert.Equal(t, schema.DirectionShort, sig.Direction)
}

func TestConfidenceWinStreakBonus(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:        "hot",
		Archetype:   schema.ArchetypeVolatility,
		Suitability: fullSuitability(),
		BaseTPPct:   1.8,
		BaseSLPct:   0.9,
	}
	reg := schema.RegimeState{State: schema.MarketStateRangebound}
	snap := snapshot(100, 102, 98, 0)
	snap.Volume = 0

	perf := NewPerformance()
	base := g.Generate(s, reg, snap, perf)
	require.NotNil(t, base)

	perf.Record("hot", 1.0, true)
	perf.Record("hot", 1.0, true)
	boosted := g.Generate(s, reg, snap, perf)
	require.NotNil(t, boosted)
	assert.InDelta(t, base.Confidence+5, boosted.Confidence, 1e-9)

	// The bonus saturates at +10 and the total caps at 95.
	for i := 0; i < 20; i++ {
		perf.Record("hot", 1.0, true)
	}
	capped := g.Generate(s, reg, snap, perf)
	require.NotNil(t, capped)
	assert.InDelta(t, base.Confidence+10, capped.Confidence, 1e-9)
	assert.LessOrEqual(t, capped.Confidence, 95.0)
}

func TestVolatilityScalingOfExits(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig(), neverSkip)
	s := Strategy{
		Name:        "scaler",
		Archetype:   schema.ArchetypeTrend,
		Suitability: fullSuitability(),
		BaseTPPct:   1.6,
		BaseSLPct:   0.8,
	}
	snap := snapshot(100, 102, 98, 3) // 4% span, range adjustment exactly 1.0

	highVol := g.Generate(s, schema.RegimeState{State: schema.MarketStateBullishHighVol}, snap, NewPerformance())
	lowVol := g.Generate(s, schema.RegimeState{State: schema.MarketStateBullishLowVol}, snap, NewPerformance())
	ranging := g.Generate(s, schema.RegimeState{State: schema.MarketStateRangebound}, snap, NewPerformance())
	require.NotNil(t, highVol)
	require.NotNil(t, lowVol)
	require.NotNil(t, ranging)

	assert.InDelta(t, 1.6*1.4, highVol.TPPct, 1e-9)
	assert.InDelta(t, 0.8*1.4, highVol.SLPct, 1e-9)
	assert.InDelta(t, 1.6, lowVol.TPPct, 1e-9)
	assert.InDelta(t, 1.6*0.7, ranging.TPPct, 1e-9)
	assert.Greater(t, lowVol.TPPct, ranging.TPPct)
}
