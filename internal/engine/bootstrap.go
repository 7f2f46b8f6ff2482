package engine

import (
	"context"

	"github.com/yanun0323/logs"

	"ignitex/internal/obs"
	"ignitex/internal/risk"
	"ignitex/internal/schema"
)

// bootstrap restores agent sessions, open positions and the last regime
// from the store. Every failure degrades to an empty default; startup
// never blocks on persistence.
func (e *Engine) bootstrap(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()

	sessions, err := e.store.LoadSessions(ctx)
	if err != nil {
		obs.IncStoreError()
		logs.Warnf("load sessions failed, starting from defaults: %v", err)
	}
	for _, a := range e.agents {
		data, ok := sessions[a.ID]
		if !ok {
			continue
		}
		delta, clamped := risk.ClampBalanceDelta(a.ID, a.InitialBalance, data.BalanceDelta)
		if clamped {
			obs.IncClamp("balance")
		}
		a.Balance = a.InitialBalance + delta
		a.Trades = data.Trades
		a.Wins = data.Wins
		a.Losses = data.Trades - data.Wins
		a.TotalPnL = data.PnL
		e.governor.Refresh(a, now)
	}

	positions, err := e.store.LoadOpenPositions(ctx)
	if err != nil {
		obs.IncStoreError()
		logs.Warnf("load open positions failed: %v", err)
	}
	for agentID, p := range positions {
		a, ok := e.byID[agentID]
		if !ok {
			logs.Warnf("persisted position for unknown agent %q dropped", agentID)
			continue
		}
		if !e.positions.Reservations().Reserve(p.Symbol, a.ID) {
			logs.Warnf("persisted position %s/%s conflicts with an existing reservation, dropped", agentID, p.Symbol)
			_ = e.store.DeletePosition(ctx, agentID)
			continue
		}
		pos := p
		a.Position = &pos
		logs.Infof("agent %s recovered open %s %s @ %.4f", a.ID, pos.Direction, pos.Symbol, pos.EntryPrice)
	}

	last, err := e.store.LoadLastRegime(ctx)
	if err != nil {
		obs.IncStoreError()
		logs.Warnf("load last regime failed: %v", err)
	}
	if last != nil {
		e.regime = *last
	} else if e.regime.State == schema.MarketStateUnknown {
		e.regime = schema.RegimeState{
			State:      schema.MarketStateRangebound,
			Confidence: 40,
			Since:      now,
		}
	}
}
