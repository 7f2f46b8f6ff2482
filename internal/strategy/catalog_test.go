package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignitex/internal/schema"
)

func TestCatalogSuitableFiltersAndSorts(t *testing.T) {
	c := NewCatalog([]Strategy{
		{Name: "a", Archetype: schema.ArchetypeTrend, Suitability: map[schema.MarketState]float64{schema.MarketStateRangebound: 50}},
		{Name: "b", Archetype: schema.ArchetypeTrend, Suitability: map[schema.MarketState]float64{schema.MarketStateRangebound: 80}},
		{Name: "c", Archetype: schema.ArchetypeTrend, Suitability: map[schema.MarketState]float64{schema.MarketStateRangebound: 30}},
		{Name: "d", Archetype: schema.ArchetypeReversion, Suitability: map[schema.MarketState]float64{schema.MarketStateRangebound: 95}},
	})

	out := c.Suitable(schema.MarketStateRangebound, 40, schema.ArchetypeTrend)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Name)
	assert.Equal(t, "a", out[1].Name)

	assert.Empty(t, c.Suitable(schema.MarketStateBullishLowVol, 40, schema.ArchetypeTrend))
}

func TestCatalogDropsDuplicateNames(t *testing.T) {
	c := NewCatalog([]Strategy{
		{Name: "a", BaseTPPct: 1},
		{Name: "a", BaseTPPct: 2},
	})
	require.Equal(t, 1, c.Len())
	s, ok := c.Strategy("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, s.BaseTPPct)

	_, ok = c.Strategy("missing")
	assert.False(t, ok)
}

func TestPerformanceStreakAndEWMA(t *testing.T) {
	p := NewPerformance()

	p.Record("s", 1.0, true)
	p.Record("s", 2.0, true)
	o := p.Outcome("s")
	assert.Equal(t, 2, o.Streak)
	assert.Equal(t, 2, o.Wins)
	assert.InDelta(t, 0.3*2.0+0.7*1.0, o.AvgPnL, 1e-9)

	p.Record("s", -1.0, false)
	o = p.Outcome("s")
	assert.Equal(t, -1, o.Streak)
	assert.Equal(t, 1, o.Losses)
	assert.Equal(t, 3, o.Samples)

	p.Reset()
	assert.Zero(t, p.Outcome("s").Samples)
}
