package strategy

import (
	"ignitex/internal/schema"
)

// TP/SL absolute bounds and the minimum reward:risk ratio, in percent of
// entry price.
const (
	minTPPct      = 0.5
	maxTPPct      = 3.0
	minSLPct      = 0.25
	maxSLPct      = 1.5
	minRewardRisk = 1.5
)

// Signal is a directional trade proposal with adaptive exits.
type Signal struct {
	Strategy   string
	Direction  schema.Direction
	Strength   float64 // 0..1, separation of the bias scores
	Confidence float64 // 0..95
	TPPct      float64 // distance to take-profit, percent of entry
	SLPct      float64 // distance to stop-loss, percent of entry
}

// GeneratorConfig tunes signal generation.
type GeneratorConfig struct {
	MinSuitability   float64
	CooldownStreak   int     // losing streak at which the cooldown applies
	CooldownSkipProb float64 // probability of skipping a cooled-down strategy
}

// DefaultGeneratorConfig returns production tuning.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MinSuitability:   40,
		CooldownStreak:   -3,
		CooldownSkipProb: 0.5,
	}
}

// Generator produces signals from a strategy, the current regime and the
// latest symbol snapshot. The rand source drives only the losing-streak
// cooldown throttle.
type Generator struct {
	cfg  GeneratorConfig
	rand func() float64
}

// NewGenerator creates a generator. rand must return values in [0,1).
func NewGenerator(cfg GeneratorConfig, rand func() float64) *Generator {
	if cfg.CooldownSkipProb < 0 {
		cfg.CooldownSkipProb = 0
	}
	if cfg.CooldownSkipProb > 1 {
		cfg.CooldownSkipProb = 1
	}
	return &Generator{cfg: cfg, rand: rand}
}

// Generate returns a signal, or nil when the strategy is not applicable:
// suitability below the minimum, or skipped by the losing-streak cooldown.
func (g *Generator) Generate(s Strategy, reg schema.RegimeState, snap schema.MarketSnapshot, perf *Performance) *Signal {
	suitability := s.Score(reg.State)
	if suitability < g.cfg.MinSuitability {
		return nil
	}

	outcome := perf.Outcome(s.Name)
	if outcome.Streak <= g.cfg.CooldownStreak && g.rand() < g.cfg.CooldownSkipProb {
		// Deliberate throttle: give a cold strategy room to mean-revert
		// before reuse.
		return nil
	}

	direction, strength := g.bias(s, reg, snap)
	tp, sl := g.exits(s, reg, snap)

	confidence := suitability + strength*15
	if outcome.Streak > 0 {
		bonus := float64(outcome.Streak) * 2.5
		if bonus > 10 {
			bonus = 10
		}
		confidence += bonus
	}
	if confidence > 95 {
		confidence = 95
	}

	return &Signal{
		Strategy:   s.Name,
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		TPPct:      tp,
		SLPct:      sl,
	}
}

// bias accumulates the multi-confirmation direction score. Five
// independent signals contribute; ties resolve to LONG.
func (g *Generator) bias(s Strategy, reg schema.RegimeState, snap schema.MarketSnapshot) (schema.Direction, float64) {
	var bull, bear float64

	// 1. Regime sign, weight 2.
	if reg.State.Bullish() {
		bull += 2
	} else if reg.State.Bearish() {
		bear += 2
	}

	// 2. 24h momentum, weight 1.5, only on moves beyond 2%.
	change := snap.Change24hPct
	if change > 2 {
		bull += 1.5
	} else if change < -2 {
		bear += 1.5
	}

	// 3. Price position in the 24h range, weight 1, mean-reversion only.
	if s.Archetype == schema.ArchetypeReversion {
		switch pos := snap.RangePosition(); {
		case pos <= 0.25:
			bull += 1
		case pos >= 0.75:
			bear += 1
		}
	}

	// 4. Archetype alignment, weight 1.5.
	switch s.Archetype {
	case schema.ArchetypeTrend:
		if reg.State.Bullish() || (!reg.State.Bearish() && change > 0) {
			bull += 1.5
		} else {
			bear += 1.5
		}
	case schema.ArchetypeReversion:
		if change > 5 {
			bear += 1.5
		} else if change < -5 {
			bull += 1.5
		}
	case schema.ArchetypeVolatility:
		if change > 3 {
			bull += 1.5
		} else if change < -3 {
			bear += 1.5
		}
	}

	// 5. Volume confirmation, weight 0.5, when the leading side agrees
	// with momentum.
	if snap.Volume > 0 {
		if bull > bear && change > 0 {
			bull += 0.5
		} else if bear > bull && change < 0 {
			bear += 0.5
		}
	}

	direction := schema.DirectionLong
	if bear > bull {
		direction = schema.DirectionShort
	}
	total := bull + bear
	if total == 0 {
		return direction, 0
	}
	diff := bull - bear
	if diff < 0 {
		diff = -diff
	}
	return direction, diff / total
}

// exits scales the archetype base TP/SL by the regime volatility
// multiplier and a range-derived adjustment, then forces the minimum
// reward:risk ratio and the absolute bounds.
func (g *Generator) exits(s Strategy, reg schema.RegimeState, snap schema.MarketSnapshot) (tp, sl float64) {
	volMult := 1.0
	switch {
	case reg.State.HighVol():
		volMult = 1.4
	case reg.State == schema.MarketStateRangebound:
		volMult = 0.7
	}

	rangeAdj := 1.0
	if snap.Price > 0 && snap.High24h > snap.Low24h {
		spanPct := (snap.High24h - snap.Low24h) / snap.Price * 100
		rangeAdj = spanPct / 4
	}
	if rangeAdj < 0.6 {
		rangeAdj = 0.6
	}
	if rangeAdj > 1.5 {
		rangeAdj = 1.5
	}

	tp = s.BaseTPPct * volMult * rangeAdj
	sl = s.BaseSLPct * volMult * rangeAdj

	if sl < minSLPct {
		sl = minSLPct
	}
	if sl > maxSLPct {
		sl = maxSLPct
	}
	if tp < sl*minRewardRisk {
		tp = sl * minRewardRisk
	}
	if tp < minTPPct {
		tp = minTPPct
	}
	if tp > maxTPPct {
		tp = maxTPPct
	}
	return tp, sl
}
