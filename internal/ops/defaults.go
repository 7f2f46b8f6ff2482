package ops

import (
	"time"

	"ignitex/internal/schema"
	"ignitex/internal/strategy"
)

// DefaultAgents is the fixed roster used when the config names none.
func DefaultAgents() []AgentConfig {
	return []AgentConfig{
		{
			ID:              "blaze",
			Name:            "Blaze",
			Archetype:       schema.ArchetypeTrend,
			InitialBalance:  10000,
			BasePositionPct: 0.10,
			TradeInterval:   45 * time.Second,
		},
		{
			ID:              "ember",
			Name:            "Ember",
			Archetype:       schema.ArchetypeReversion,
			InitialBalance:  10000,
			BasePositionPct: 0.08,
			TradeInterval:   60 * time.Second,
		},
		{
			ID:              "spark",
			Name:            "Spark",
			Archetype:       schema.ArchetypeVolatility,
			InitialBalance:  10000,
			BasePositionPct: 0.12,
			TradeInterval:   30 * time.Second,
		},
	}
}

// DefaultStrategies is the built-in catalog with externally tuned
// suitability scores per regime.
func DefaultStrategies() []strategy.Strategy {
	return []strategy.Strategy{
		{
			Name:      "momentum-ride",
			Archetype: schema.ArchetypeTrend,
			BaseTPPct: 1.6,
			BaseSLPct: 0.8,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 85,
				schema.MarketStateBullishLowVol:  75,
				schema.MarketStateBearishHighVol: 70,
				schema.MarketStateBearishLowVol:  60,
				schema.MarketStateRangebound:     25,
			},
		},
		{
			Name:      "breakout-chase",
			Archetype: schema.ArchetypeTrend,
			BaseTPPct: 2.0,
			BaseSLPct: 1.0,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 80,
				schema.MarketStateBullishLowVol:  55,
				schema.MarketStateBearishHighVol: 75,
				schema.MarketStateBearishLowVol:  50,
				schema.MarketStateRangebound:     20,
			},
		},
		{
			Name:      "range-fade",
			Archetype: schema.ArchetypeReversion,
			BaseTPPct: 1.0,
			BaseSLPct: 0.6,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 35,
				schema.MarketStateBullishLowVol:  55,
				schema.MarketStateBearishHighVol: 30,
				schema.MarketStateBearishLowVol:  55,
				schema.MarketStateRangebound:     90,
			},
		},
		{
			Name:      "overshoot-fade",
			Archetype: schema.ArchetypeReversion,
			BaseTPPct: 1.4,
			BaseSLPct: 0.7,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 60,
				schema.MarketStateBullishLowVol:  40,
				schema.MarketStateBearishHighVol: 65,
				schema.MarketStateBearishLowVol:  45,
				schema.MarketStateRangebound:     70,
			},
		},
		{
			Name:      "vol-expansion",
			Archetype: schema.ArchetypeVolatility,
			BaseTPPct: 2.2,
			BaseSLPct: 1.1,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 90,
				schema.MarketStateBullishLowVol:  40,
				schema.MarketStateBearishHighVol: 88,
				schema.MarketStateBearishLowVol:  40,
				schema.MarketStateRangebound:     30,
			},
		},
		{
			Name:      "squeeze-release",
			Archetype: schema.ArchetypeVolatility,
			BaseTPPct: 1.8,
			BaseSLPct: 0.9,
			Suitability: map[schema.MarketState]float64{
				schema.MarketStateBullishHighVol: 70,
				schema.MarketStateBullishLowVol:  50,
				schema.MarketStateBearishHighVol: 70,
				schema.MarketStateBearishLowVol:  50,
				schema.MarketStateRangebound:     60,
			},
		},
	}
}
