package engine

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"ignitex/internal/obs"
	"ignitex/internal/regime"
	"ignitex/internal/schema"
)

// run is the scheduler: one goroutine multiplexing the five cadences.
// Handlers run to completion before the next case fires, so within a tick
// the regime read → risk check → signal → open/close sequence for an
// agent is never interleaved with another handler.
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	price := time.NewTicker(e.cfg.Cadence.Price)
	monitor := time.NewTicker(e.cfg.Cadence.Monitor)
	evaluate := time.NewTicker(e.cfg.Cadence.Evaluate)
	regimeTick := time.NewTicker(e.cfg.Cadence.Regime)
	sync := time.NewTicker(e.cfg.Cadence.Sync)
	defer func() {
		price.Stop()
		monitor.Stop()
		evaluate.Stop()
		regimeTick.Stop()
		sync.Stop()
	}()

	// Prime the market view before the first evaluation window.
	e.requestPrices(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-e.priceCh:
			e.applySnapshot(snap)
		case <-price.C:
			obs.IncTick("price")
			e.requestPrices(ctx)
		case <-monitor.C:
			obs.IncTick("monitor")
			e.handleMonitor()
		case <-evaluate.C:
			obs.IncTick("evaluate")
			e.handleEvaluate()
		case <-regimeTick.C:
			obs.IncTick("regime")
			e.handleRegime()
		case <-sync.C:
			obs.IncTick("sync")
			e.handleSync()
		}
	}
}

// requestPrices fires one async fetch per symbol. Results land on priceCh
// and are applied inside the scheduler loop; a failed fetch leaves the
// previous snapshot in place.
func (e *Engine) requestPrices(ctx context.Context) {
	for _, symbol := range e.cfg.Symbols {
		symbol := symbol
		go func() {
			snap, err := e.provider.FetchSnapshot(ctx, symbol)
			if err != nil {
				obs.IncFetchFailure()
				logs.Debugf("fetch %s failed, keeping stale snapshot: %v", symbol, err)
				return
			}
			select {
			case e.priceCh <- snap:
			case <-ctx.Done():
			}
		}()
	}
}

func (e *Engine) applySnapshot(snap schema.MarketSnapshot) {
	e.mu.Lock()
	e.snapshots[snap.Symbol] = snap
	e.mu.Unlock()
}

// handleMonitor advances every open position against the latest snapshot
// and settles the ones whose close condition fired.
func (e *Engine) handleMonitor() {
	now := e.clock()
	var closes []TradeEvent
	var stateChanged bool

	e.mu.Lock()
	for _, a := range e.agents {
		p := a.Position
		if p == nil {
			continue
		}
		snap, ok := e.snapshots[p.Symbol]
		if !ok || snap.Price <= 0 {
			continue
		}
		p.CurrentPrice = snap.Price

		reason, shouldClose := e.positions.Check(p, snap.Price, now)
		if !shouldClose {
			continue
		}
		closedPos := *p
		fill := e.positions.FillPrice(p, snap.Price, reason)
		closed, err := e.positions.Close(a, fill, reason, now)
		if err != nil {
			logs.Errorf("close %s/%s failed: %v", a.ID, p.Symbol, err)
			continue
		}
		stateChanged = true
		e.settleClose(a, closedPos, closed.Record)
		if closed.WasCapped {
			obs.IncClamp("pnl")
		}
		obs.IncTradeResult(closed.IsWin)
		obs.IncExitReason(string(reason))
		closes = append(closes, TradeEvent{
			Type:       TradeEventClose,
			Agent:      a.Clone(),
			Position:   closedPos,
			ExitPrice:  fill,
			Reason:     reason,
			PnLPercent: closed.PnLPercent,
			IsWin:      closed.IsWin,
		})
	}
	var agents []schema.Agent
	if stateChanged {
		agents = e.cloneAgents()
	}
	e.mu.Unlock()

	for _, evt := range closes {
		e.notifyTrade(evt)
	}
	if stateChanged {
		e.notifyState(agents)
	}
}

// settleClose persists the aftermath of a close. Callers hold the lock.
func (e *Engine) settleClose(a *schema.Agent, p schema.Position, rec schema.TradeRecord) {
	ctx := context.Background()
	if err := e.store.DeletePosition(ctx, a.ID); err != nil {
		obs.IncStoreError()
		logs.Warnf("delete position %s failed: %v", a.ID, err)
	}
	if err := e.store.AppendTrade(ctx, rec); err != nil {
		obs.IncStoreError()
		logs.Warnf("append trade %s failed: %v", a.ID, err)
	}
	e.persistSession(a)
}

// handleEvaluate walks agents in fixed order and tries to open one
// position each. The order only decides who wins a contested symbol.
func (e *Engine) handleEvaluate() {
	now := e.clock()
	var opens []TradeEvent

	e.mu.Lock()
	reg := e.regime
	for _, a := range e.agents {
		if a.Position != nil {
			continue
		}
		if !a.LastTradeAt.IsZero() && now.Sub(a.LastTradeAt) < a.TradeInterval {
			continue
		}

		decision := e.governor.CanTrade(a, now)
		if !decision.Allowed {
			obs.IncRiskRefusal(string(decision.Reason))
			continue
		}

		candidates := e.catalog.Suitable(reg.State, e.cfg.Signal.MinSuitability, a.Archetype)
		if len(candidates) == 0 {
			continue
		}

		snap, ok := e.pickSymbol(a.ID)
		if !ok {
			continue
		}

		for _, s := range candidates {
			sig := e.generator.Generate(s, reg, snap, e.perf)
			if sig == nil {
				continue
			}
			pos, err := e.positions.Open(a, snap, sig, reg.State, decision.Multiplier, now)
			if err != nil {
				logs.Debugf("agent %s open %s skipped: %v", a.ID, snap.Symbol, err)
				break
			}
			obs.IncTradeOpen()
			if err := e.store.SavePosition(context.Background(), a.ID, *pos); err != nil {
				obs.IncStoreError()
				logs.Warnf("save position %s failed: %v", a.ID, err)
			}
			opens = append(opens, TradeEvent{
				Type:     TradeEventOpen,
				Agent:    a.Clone(),
				Position: *pos,
			})
			break
		}
	}
	var agents []schema.Agent
	if len(opens) > 0 {
		agents = e.cloneAgents()
	}
	e.mu.Unlock()

	for _, evt := range opens {
		e.notifyTrade(evt)
	}
	if len(opens) > 0 {
		e.notifyState(agents)
	}
}

// pickSymbol returns the first configured symbol with a live snapshot
// that no other agent holds. Callers hold the lock.
func (e *Engine) pickSymbol(agentID string) (schema.MarketSnapshot, bool) {
	for _, symbol := range e.cfg.Symbols {
		if holder, ok := e.positions.Reservations().Holder(symbol); ok && holder != agentID {
			continue
		}
		snap, ok := e.snapshots[symbol]
		if !ok || snap.Price <= 0 {
			continue
		}
		return snap, true
	}
	return schema.MarketSnapshot{}, false
}

// handleRegime reclassifies the market and, on a transition, notifies all
// agents synchronously before any later evaluate tick can observe the old
// state.
func (e *Engine) handleRegime() {
	now := e.clock()

	e.mu.Lock()
	snaps := make([]schema.MarketSnapshot, 0, len(e.snapshots))
	for _, s := range e.snapshots {
		snaps = append(snaps, s)
	}
	metrics, err := regime.MetricsFromSnapshots(snaps)
	if err != nil {
		// Feed empty this round: keep the last-known regime.
		logs.Debugf("regime metrics unavailable, keeping %s", e.regime.State)
		e.mu.Unlock()
		return
	}
	assessment, err := e.classifier.Classify(metrics, now)
	if err != nil {
		e.mu.Unlock()
		return
	}

	changed := assessment.State != e.regime.State
	prev := e.regime.State
	e.regime.Confidence = assessment.Confidence
	if changed {
		e.regime = schema.RegimeState{
			State:      assessment.State,
			Confidence: assessment.Confidence,
			Since:      now,
		}
		e.onRegimeChange(prev, e.regime)
	}
	obs.SetRegimeConfidence(e.regime.Confidence)
	if err := e.store.SaveRegime(context.Background(), e.regime); err != nil {
		obs.IncStoreError()
	}
	e.mu.Unlock()
}

// onRegimeChange flags open positions whose strategy no longer suits the
// new regime. Advisory only: positions are never force-closed on a
// transition. Callers hold the lock.
func (e *Engine) onRegimeChange(prev schema.MarketState, next schema.RegimeState) {
	logs.Infof("regime transition %s -> %s (confidence %.0f)", prev, next.State, next.Confidence)
	for _, a := range e.agents {
		p := a.Position
		if p == nil {
			continue
		}
		s, ok := e.catalog.Strategy(p.Strategy)
		if !ok {
			continue
		}
		score := s.Score(next.State)
		if score < e.cfg.Signal.MinSuitability {
			logs.Warnf("agent %s holds %s via %s, suitability dropped to %.0f in %s",
				a.ID, p.Symbol, p.Strategy, score, next.State)
		}
	}
}

// handleSync refreshes breaker levels, re-syncs sessions to the store and
// updates the equity gauges.
func (e *Engine) handleSync() {
	now := e.clock()

	e.mu.Lock()
	for _, a := range e.agents {
		e.governor.Refresh(a, now)
		obs.SetEquity(a.ID, a.Balance)
		e.persistSession(a)
	}
	agents := e.cloneAgents()
	e.mu.Unlock()

	e.notifyState(agents)
}
