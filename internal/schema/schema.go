package schema

// Version is the current persisted record schema version. Records carrying
// a different version are rejected at the store boundary.
const Version uint16 = 1

// Archetype groups agents by trading temperament. It drives signal
// alignment rules and base take-profit/stop-loss distances.
type Archetype string

const (
	ArchetypeTrend      Archetype = "TREND_FOLLOWER"
	ArchetypeReversion  Archetype = "MEAN_REVERSION"
	ArchetypeVolatility Archetype = "VOLATILITY"
)

// Valid reports whether the archetype is a known value.
func (a Archetype) Valid() bool {
	switch a {
	case ArchetypeTrend, ArchetypeReversion, ArchetypeVolatility:
		return true
	default:
		return false
	}
}
