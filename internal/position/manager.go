package position

import (
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"ignitex/internal/risk"
	"ignitex/internal/schema"
	"ignitex/internal/strategy"
)

var (
	ErrPositionExists = errors.New("agent already holds a position")
	ErrSymbolReserved = errors.New("symbol reserved by another agent")
	ErrSizeTooSmall   = errors.New("position size below viable minimum")
)

// Sizing bounds the notional of a new position.
type Sizing struct {
	MinUSD       float64
	MaxUSD       float64
	MaxPctOfBal  float64 // ceiling as a fraction of balance
	MinViableUSD float64 // below this the open is aborted
}

// DefaultSizing returns production sizing bounds.
func DefaultSizing() Sizing {
	return Sizing{
		MinUSD:       50,
		MaxUSD:       5000,
		MaxPctOfBal:  0.25,
		MinViableUSD: 10,
	}
}

// Config tunes the lifecycle manager.
type Config struct {
	Sizing  Sizing
	MaxHold time.Duration // hard ceiling on position age
}

// Closed is the settled outcome of a position close.
type Closed struct {
	Record     schema.TradeRecord
	PnLPercent float64
	PnLDollar  float64
	IsWin      bool
	WasCapped  bool
}

// Manager owns the open→monitor→close state machine for agent positions.
// At most one position exists per agent; symbol exclusivity is enforced
// through the shared reservation set.
type Manager struct {
	cfg          Config
	reservations *Reservations
	governor     *risk.Governor
	perf         *strategy.Performance
}

// NewManager wires the lifecycle manager to its collaborators.
func NewManager(cfg Config, res *Reservations, gov *risk.Governor, perf *strategy.Performance) *Manager {
	if cfg.MaxHold <= 0 {
		cfg.MaxHold = 30 * time.Minute
	}
	return &Manager{cfg: cfg, reservations: res, governor: gov, perf: perf}
}

// Reservations exposes the shared reservation set.
func (m *Manager) Reservations() *Reservations {
	return m.reservations
}

// Size computes the clamped position notional for a balance and risk
// multiplier. A zero return means no viable size exists.
func (m *Manager) Size(balance, basePct, riskMult float64) float64 {
	notional := balance * basePct * riskMult
	if notional < m.cfg.Sizing.MinUSD {
		notional = m.cfg.Sizing.MinUSD
	}
	if notional > m.cfg.Sizing.MaxUSD {
		notional = m.cfg.Sizing.MaxUSD
	}
	if cap := balance * m.cfg.Sizing.MaxPctOfBal; notional > cap {
		notional = cap
	}
	if notional < m.cfg.Sizing.MinViableUSD {
		return 0
	}
	return notional
}

// Open creates a position for the agent from an approved signal. The
// symbol reservation is taken atomically with the open; a failed open
// leaves no reservation behind.
func (m *Manager) Open(a *schema.Agent, snap schema.MarketSnapshot, sig *strategy.Signal, state schema.MarketState, riskMult float64, now time.Time) (*schema.Position, error) {
	if a.Position != nil {
		return nil, ErrPositionExists
	}
	if holder, ok := m.reservations.Holder(snap.Symbol); ok && holder != a.ID {
		return nil, ErrSymbolReserved
	}
	notional := m.Size(a.Balance, a.BasePositionPct, riskMult)
	if notional <= 0 || snap.Price <= 0 {
		return nil, ErrSizeTooSmall
	}
	if !m.reservations.Reserve(snap.Symbol, a.ID) {
		return nil, ErrSymbolReserved
	}

	tp := snap.Price * (1 + sig.TPPct/100)
	sl := snap.Price * (1 - sig.SLPct/100)
	if sig.Direction == schema.DirectionShort {
		tp = snap.Price * (1 - sig.TPPct/100)
		sl = snap.Price * (1 + sig.SLPct/100)
	}

	pos := &schema.Position{
		Symbol:       snap.Symbol,
		Direction:    sig.Direction,
		EntryPrice:   snap.Price,
		CurrentPrice: snap.Price,
		Quantity:     notional / snap.Price,
		TakeProfit:   tp,
		StopLoss:     sl,
		Strategy:     sig.Strategy,
		StateAtEntry: state,
		OpenedAt:     now,
	}
	a.Position = pos
	a.LastTradeAt = now
	logs.Infof("agent %s opened %s %s @ %.4f qty %.6f tp %.4f sl %.4f (%s)",
		a.ID, pos.Direction, pos.Symbol, pos.EntryPrice, pos.Quantity, pos.TakeProfit, pos.StopLoss, pos.Strategy)
	return pos, nil
}

// Check evaluates close conditions at the given price. TP and SL are
// checked before the hold timeout so a simultaneous hit keeps TP/SL
// semantics.
func (m *Manager) Check(p *schema.Position, price float64, now time.Time) (schema.CloseReason, bool) {
	if p == nil || price <= 0 {
		return "", false
	}
	if p.Direction == schema.DirectionLong {
		if price >= p.TakeProfit {
			return schema.CloseReasonTakeProfit, true
		}
		if price <= p.StopLoss {
			return schema.CloseReasonStopLoss, true
		}
	} else {
		if price <= p.TakeProfit {
			return schema.CloseReasonTakeProfit, true
		}
		if price >= p.StopLoss {
			return schema.CloseReasonStopLoss, true
		}
	}
	if now.Sub(p.OpenedAt) >= m.cfg.MaxHold {
		return schema.CloseReasonTimeout, true
	}
	return "", false
}

// FillPrice resolves the simulated fill for a close: TP and SL closes
// fill at their trigger price even when the observed tick gapped past it;
// every other reason fills at the observed price.
func (m *Manager) FillPrice(p *schema.Position, price float64, reason schema.CloseReason) float64 {
	switch reason {
	case schema.CloseReasonTakeProfit:
		return p.TakeProfit
	case schema.CloseReasonStopLoss:
		return p.StopLoss
	default:
		return price
	}
}

// Close settles the agent's position at the exit price: caps the realized
// P&L, applies aggregate stats, releases the reservation exactly once and
// feeds the outcome to the risk governor and the performance tracker.
func (m *Manager) Close(a *schema.Agent, exitPrice float64, reason schema.CloseReason, now time.Time) (Closed, error) {
	if a.Position == nil {
		return Closed{}, errors.New("agent has no open position")
	}
	p := *a.Position

	pnlPct := p.PnLPercent(exitPrice)
	rawPnL := p.PnLDollar(exitPrice)
	pnl, capped := m.governor.ValidateAndCapPnL(a.ID, rawPnL, p.Notional())
	isWin := pnl > 0

	a.Position = nil
	m.reservations.Release(p.Symbol, a.ID)

	a.Trades++
	if isWin {
		a.Wins++
		if a.Streak < 0 {
			a.Streak = 0
		}
		a.Streak++
	} else {
		a.Losses++
		if a.Streak > 0 {
			a.Streak = 0
		}
		a.Streak--
	}
	a.Balance += pnl
	a.TotalPnL += pnl

	m.perf.Record(p.Strategy, pnlPct, isWin)
	m.governor.RecordOutcome(a, pnl, isWin, now)

	rec := schema.NewTradeRecord(a.ID, p, exitPrice, pnlPct, pnl, reason, now)
	logs.Infof("agent %s closed %s %s @ %.4f reason %s pnl %.2f (%.2f%%)",
		a.ID, p.Direction, p.Symbol, exitPrice, reason, pnl, pnlPct)
	return Closed{
		Record:     rec,
		PnLPercent: pnlPct,
		PnLDollar:  pnl,
		IsWin:      isWin,
		WasCapped:  capped,
	}, nil
}
