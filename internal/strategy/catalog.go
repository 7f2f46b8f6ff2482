package strategy

import (
	"sort"

	"ignitex/internal/schema"
)

// Strategy is one tradable playbook. Suitability scores are externally
// supplied per market state on a 0-100 scale.
type Strategy struct {
	Name        string
	Archetype   schema.Archetype
	Suitability map[schema.MarketState]float64
	BaseTPPct   float64
	BaseSLPct   float64
}

// Score returns the suitability of the strategy for a market state.
func (s Strategy) Score(state schema.MarketState) float64 {
	return s.Suitability[state]
}

// Catalog holds the strategy set consumed by signal generation.
type Catalog struct {
	strategies []Strategy
	byName     map[string]int
}

// NewCatalog builds a catalog from a strategy list.
func NewCatalog(strategies []Strategy) *Catalog {
	c := &Catalog{
		strategies: make([]Strategy, 0, len(strategies)),
		byName:     make(map[string]int, len(strategies)),
	}
	for _, s := range strategies {
		if _, ok := c.byName[s.Name]; ok {
			continue
		}
		c.byName[s.Name] = len(c.strategies)
		c.strategies = append(c.strategies, s)
	}
	return c
}

// Strategy returns a strategy by name.
func (c *Catalog) Strategy(name string) (Strategy, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Strategy{}, false
	}
	return c.strategies[idx], true
}

// Len returns the number of strategies in the catalog.
func (c *Catalog) Len() int {
	return len(c.strategies)
}

// Suitable returns the archetype's strategies meeting the minimum
// suitability for the given state, ordered by descending score.
func (c *Catalog) Suitable(state schema.MarketState, minScore float64, archetype schema.Archetype) []Strategy {
	out := make([]Strategy, 0, len(c.strategies))
	for _, s := range c.strategies {
		if s.Archetype != archetype {
			continue
		}
		if s.Score(state) < minScore {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score(state) > out[j].Score(state)
	})
	return out
}
