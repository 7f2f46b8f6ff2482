package risk

import (
	"time"

	"github.com/yanun0323/logs"

	"ignitex/internal/schema"
)

// Reason explains why the governor refused a trade. A refusal is a result
// value, not an error.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonHalted     Reason = "RISK_HALTED"
	ReasonCoolOff    Reason = "LOSS_COOL_OFF"
	ReasonLowBalance Reason = "BALANCE_BELOW_MINIMUM"
)

// Decision is the outcome of a pre-trade risk check.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Multiplier float64
}

// Config defines circuit breaker limits.
type Config struct {
	MinViableBalance float64       // below this no new trades open
	MaxLossFraction  float64       // cap on loss magnitude vs position notional
	HaltLossStreak   int           // consecutive losses that trigger a halt window
	HaltWindow       time.Duration // duration of the loss-streak halt
	ThrottleStreak   int           // consecutive losses that mark the agent THROTTLED
}

// DefaultConfig returns production circuit breaker limits.
func DefaultConfig() Config {
	return Config{
		MinViableBalance: 100,
		MaxLossFraction:  0.25,
		HaltLossStreak:   5,
		HaltWindow:       30 * time.Minute,
		ThrottleStreak:   3,
	}
}

// Governor maintains per-agent risk state and gates new trades. It is the
// only component that mutates RiskState.
type Governor struct {
	cfg Config
}

// NewGovernor creates a governor with static limits.
func NewGovernor(cfg Config) *Governor {
	if cfg.MaxLossFraction <= 0 {
		cfg.MaxLossFraction = 0.25
	}
	return &Governor{cfg: cfg}
}

// Multiplier maps a fractional drawdown to a position-size multiplier.
// At 25% drawdown or more the agent is halted and the multiplier is zero.
func Multiplier(drawdown float64) float64 {
	switch {
	case drawdown >= 0.25:
		return 0
	case drawdown >= 0.20:
		return 0.25
	case drawdown >= 0.15:
		return 0.50
	case drawdown >= 0.10:
		return 0.70
	case drawdown >= 0.05:
		return 0.85
	default:
		return 1.0
	}
}

// CanTrade decides whether the agent may open a new position and at what
// size multiplier. It never mutates risk state.
func (g *Governor) CanTrade(a *schema.Agent, now time.Time) Decision {
	if a.Risk.Level == schema.BreakerHalted {
		return Decision{Reason: ReasonHalted}
	}
	if a.Risk.HaltUntil != nil && now.Before(*a.Risk.HaltUntil) {
		return Decision{Reason: ReasonCoolOff}
	}
	if a.Balance < g.cfg.MinViableBalance {
		return Decision{Reason: ReasonLowBalance}
	}
	mult := Multiplier(a.Drawdown())
	if mult <= 0 {
		return Decision{Reason: ReasonHalted}
	}
	return Decision{Allowed: true, Multiplier: mult}
}

// RecordOutcome updates the agent's risk state after a trade close.
func (g *Governor) RecordOutcome(a *schema.Agent, pnlDollar float64, isWin bool, now time.Time) {
	a.Risk.RealizedPnL += pnlDollar
	if isWin {
		a.Risk.ConsecutiveLosses = 0
		a.Risk.HaltUntil = nil
	} else {
		a.Risk.ConsecutiveLosses++
		if g.cfg.HaltLossStreak > 0 && a.Risk.ConsecutiveLosses >= g.cfg.HaltLossStreak {
			until := now.Add(g.cfg.HaltWindow)
			a.Risk.HaltUntil = &until
			logs.Warnf("agent %s halted for %s after %d straight losses", a.ID, g.cfg.HaltWindow, a.Risk.ConsecutiveLosses)
		}
	}
	a.Risk.Level = g.level(a, now)
}

// Refresh recomputes the breaker level without a trade outcome, letting a
// lapsed halt window fall back to ACTIVE or THROTTLED.
func (g *Governor) Refresh(a *schema.Agent, now time.Time) {
	if a.Risk.HaltUntil != nil && !now.Before(*a.Risk.HaltUntil) {
		a.Risk.HaltUntil = nil
	}
	a.Risk.Level = g.level(a, now)
}

func (g *Governor) level(a *schema.Agent, now time.Time) schema.BreakerLevel {
	if a.Drawdown() >= 0.25 {
		return schema.BreakerHalted
	}
	if a.Risk.HaltUntil != nil && now.Before(*a.Risk.HaltUntil) {
		return schema.BreakerHalted
	}
	if Multiplier(a.Drawdown()) < 1 {
		return schema.BreakerThrottled
	}
	if g.cfg.ThrottleStreak > 0 && a.Risk.ConsecutiveLosses >= g.cfg.ThrottleStreak {
		return schema.BreakerThrottled
	}
	return schema.BreakerActive
}

// ValidateAndCapPnL limits the loss magnitude of a raw trade P&L against
// a fraction of the position notional. Profits pass through untouched.
func (g *Governor) ValidateAndCapPnL(agentID string, rawPnL, notional float64) (float64, bool) {
	if rawPnL >= 0 || notional <= 0 {
		return rawPnL, false
	}
	maxLoss := notional * g.cfg.MaxLossFraction
	if -rawPnL <= maxLoss {
		return rawPnL, false
	}
	logs.Warnf("agent %s trade loss %.2f capped to %.2f (notional %.2f)", agentID, rawPnL, -maxLoss, notional)
	return -maxLoss, true
}

// ClampBalanceDelta guards recovery against corrupted session rows: a
// persisted delta implying more than 50% loss from the initial balance is
// clamped to exactly -50%.
func ClampBalanceDelta(agentID string, initial, delta float64) (float64, bool) {
	if initial <= 0 {
		return delta, false
	}
	floor := -initial * 0.5
	if delta >= floor {
		return delta, false
	}
	logs.Warnf("agent %s persisted balance delta %.2f exceeds 50%% loss, clamped to %.2f", agentID, delta, floor)
	return floor, true
}
