package engine

import (
	"ignitex/internal/schema"
)

// TradeEventType tags trade lifecycle events.
type TradeEventType string

const (
	TradeEventOpen  TradeEventType = "open"
	TradeEventClose TradeEventType = "close"
)

// TradeEvent is delivered to trade subscribers on every open and close.
// Agent and Position are copies; subscribers may retain them.
type TradeEvent struct {
	Type       TradeEventType     `json:"type"`
	Agent      schema.Agent       `json:"agent"`
	Position   schema.Position    `json:"position"`
	ExitPrice  float64            `json:"exitPrice,omitempty"`
	Reason     schema.CloseReason `json:"reason,omitempty"`
	PnLPercent float64            `json:"pnlPercent,omitempty"`
	IsWin      bool               `json:"isWin,omitempty"`
}

// OnStateChange subscribes to full agent list updates after every
// mutation. The callback receives deep copies.
func (e *Engine) OnStateChange(fn func(agents []schema.Agent)) {
	e.subMu.Lock()
	e.stateSubs = append(e.stateSubs, fn)
	e.subMu.Unlock()
}

// OnTradeEvent subscribes to position opens and closes.
func (e *Engine) OnTradeEvent(fn func(evt TradeEvent)) {
	e.subMu.Lock()
	e.tradeSubs = append(e.tradeSubs, fn)
	e.subMu.Unlock()
}

// notifyState snapshots the listener list before invoking, so a callback
// registering another listener cannot corrupt the iteration.
func (e *Engine) notifyState(agents []schema.Agent) {
	e.subMu.Lock()
	subs := make([]func([]schema.Agent), len(e.stateSubs))
	copy(subs, e.stateSubs)
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(agents)
	}
}

func (e *Engine) notifyTrade(evt TradeEvent) {
	e.subMu.Lock()
	subs := make([]func(TradeEvent), len(e.tradeSubs))
	copy(subs, e.tradeSubs)
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(evt)
	}
}
