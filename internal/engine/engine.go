package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"ignitex/internal/feed"
	"ignitex/internal/obs"
	"ignitex/internal/ops"
	"ignitex/internal/position"
	"ignitex/internal/regime"
	"ignitex/internal/risk"
	"ignitex/internal/schema"
	"ignitex/internal/store"
	"ignitex/internal/strategy"
)

// Engine drives the multi-agent simulation. It is constructed once by the
// process entry point and passed by reference; there is no package-level
// instance. All agent, reservation and regime mutation happens inside the
// scheduler goroutine; the mutex only guards cross-goroutine reads.
type Engine struct {
	cfg ops.Loaded

	mu        sync.RWMutex
	agents    []*schema.Agent
	byID      map[string]*schema.Agent
	snapshots map[string]schema.MarketSnapshot
	regime    schema.RegimeState

	classifier *regime.Classifier
	catalog    *strategy.Catalog
	perf       *strategy.Performance
	generator  *strategy.Generator
	governor   *risk.Governor
	positions  *position.Manager

	provider feed.Provider
	store    store.Store

	subMu     sync.Mutex
	stateSubs []func([]schema.Agent)
	tradeSubs []func(TradeEvent)

	clock   func() time.Time
	priceCh chan schema.MarketSnapshot

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires an engine from resolved configuration and collaborators.
func New(cfg ops.Loaded, provider feed.Provider, st store.Store) *Engine {
	perf := strategy.NewPerformance()
	governor := risk.NewGovernor(cfg.Risk)
	reservations := position.NewReservations()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	e := &Engine{
		cfg:        cfg,
		byID:       make(map[string]*schema.Agent),
		snapshots:  make(map[string]schema.MarketSnapshot),
		classifier: regime.NewClassifier(cfg.Regime),
		catalog:    strategy.NewCatalog(cfg.Strategies),
		perf:       perf,
		generator:  strategy.NewGenerator(cfg.Signal, rng.Float64),
		governor:   governor,
		positions: position.NewManager(position.Config{
			Sizing:  cfg.Sizing,
			MaxHold: cfg.MaxHold,
		}, reservations, governor, perf),
		provider: provider,
		store:    st,
		clock:    time.Now,
		priceCh:  make(chan schema.MarketSnapshot, 64),
	}
	e.agents = cfg.BuildAgents()
	for _, a := range e.agents {
		e.byID[a.ID] = a
	}
	return e
}

// Start recovers persisted state and launches the scheduler. Calling
// Start on a running engine is an error.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return errors.New("engine already running")
	}

	e.bootstrap(ctx)

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	go e.run(ctx)
	logs.Infof("engine started: %d agents, %d symbols, %d strategies",
		len(e.agents), len(e.cfg.Symbols), e.catalog.Len())
	return nil
}

// Stop cancels all future ticks and flushes pending persistence. In-flight
// tick handlers run to completion; none are aborted mid-step.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.running = false
	if d, ok := e.store.(*store.Debounced); ok {
		d.Flush()
	}
	logs.Info("engine stopped")
}

// Running reports whether the scheduler is active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

// Agents returns deep copies of all agents in evaluation order.
func (e *Engine) Agents() []schema.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cloneAgents()
}

// CurrentRegime returns the latest classified regime.
func (e *Engine) CurrentRegime() schema.RegimeState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.regime
}

// Stats is the aggregate view across all agents.
type Stats struct {
	Trades        int
	Wins          int
	Losses        int
	TotalPnL      float64
	WinRate       float64
	OpenPositions int
	Regime        schema.RegimeState
}

// Stats aggregates trade counters and P&L across agents.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var s Stats
	for _, a := range e.agents {
		s.Trades += a.Trades
		s.Wins += a.Wins
		s.Losses += a.Losses
		s.TotalPnL += a.TotalPnL
		if a.Position != nil {
			s.OpenPositions++
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	s.Regime = e.regime
	return s
}

// ResetOptions selects which destructive resets to apply. Every flag is
// an explicit opt-in; a zero value resets nothing.
type ResetOptions struct {
	ResetBalances        bool
	ClearHistory         bool
	ResetCircuitBreakers bool
}

// EmergencyReset applies the requested resets. This is the only operation
// that can destroy state.
func (e *Engine) EmergencyReset(opts ResetOptions) {
	e.mu.Lock()
	for _, a := range e.agents {
		if opts.ResetBalances {
			if a.Position != nil {
				a.Position = nil
				_ = e.store.DeletePosition(context.Background(), a.ID)
			}
			a.Balance = a.InitialBalance
			a.TotalPnL = 0
		}
		if opts.ClearHistory {
			a.Trades = 0
			a.Wins = 0
			a.Losses = 0
			a.Streak = 0
		}
		if opts.ResetCircuitBreakers {
			a.Risk = schema.RiskState{Level: schema.BreakerActive}
		}
		e.persistSession(a)
	}
	if opts.ResetBalances {
		// Every open position was discarded above, so the whole symbol
		// reservation set is stale.
		e.positions.Reservations().Clear()
	}
	if opts.ClearHistory {
		e.perf.Reset()
	}
	agents := e.cloneAgents()
	e.mu.Unlock()

	logs.Warnf("emergency reset applied: balances=%t history=%t breakers=%t",
		opts.ResetBalances, opts.ClearHistory, opts.ResetCircuitBreakers)
	e.notifyState(agents)
}

// cloneAgents deep-copies the roster. Callers hold at least a read lock.
func (e *Engine) cloneAgents() []schema.Agent {
	out := make([]schema.Agent, 0, len(e.agents))
	for _, a := range e.agents {
		out = append(out, a.Clone())
	}
	return out
}

func (e *Engine) persistSession(a *schema.Agent) {
	err := e.store.SaveSession(context.Background(), a.ID, store.SessionData{
		Trades:       a.Trades,
		Wins:         a.Wins,
		PnL:          a.TotalPnL,
		BalanceDelta: a.Balance - a.InitialBalance,
	})
	if err != nil {
		obs.IncStoreError()
		logs.Warnf("save session %s failed: %v", a.ID, err)
	}
}
