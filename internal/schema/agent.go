package schema

import "time"

// BreakerLevel is the circuit breaker state of an agent.
type BreakerLevel string

const (
	BreakerActive    BreakerLevel = "ACTIVE"
	BreakerThrottled BreakerLevel = "THROTTLED"
	BreakerHalted    BreakerLevel = "HALTED"
)

// RiskState is the per-agent circuit breaker state. It is mutated only by
// the risk governor after each trade close.
type RiskState struct {
	ConsecutiveLosses int
	RealizedPnL       float64
	HaltUntil         *time.Time
	Level             BreakerLevel
}

// Agent is a simulated trader. Agents are created once at process start
// and never destroyed; balance and counters mutate only through trade
// close events or an explicit reset.
type Agent struct {
	ID             string
	Name           string
	Archetype      Archetype
	InitialBalance float64
	Balance        float64
	TotalPnL       float64
	Trades         int
	Wins           int
	Losses         int
	Streak         int // positive = winning streak, negative = losing

	BasePositionPct float64
	TradeInterval   time.Duration
	LastTradeAt     time.Time

	Position *Position
	Risk     RiskState
}

// Drawdown is the fractional loss relative to the initial balance,
// floored at zero.
func (a *Agent) Drawdown() float64 {
	if a.InitialBalance <= 0 {
		return 0
	}
	dd := (a.InitialBalance - a.Balance) / a.InitialBalance
	if dd < 0 {
		return 0
	}
	return dd
}

// WinRate returns wins over total closed trades as a percentage.
func (a *Agent) WinRate() float64 {
	if a.Trades == 0 {
		return 0
	}
	return float64(a.Wins) / float64(a.Trades) * 100
}

// Clone returns a deep copy safe to hand to subscribers.
func (a *Agent) Clone() Agent {
	cp := *a
	if a.Position != nil {
		pos := *a.Position
		cp.Position = &pos
	}
	if a.Risk.HaltUntil != nil {
		halt := *a.Risk.HaltUntil
		cp.Risk.HaltUntil = &halt
	}
	return cp
}
