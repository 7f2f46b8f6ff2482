package schema

import (
	"time"

	"github.com/google/uuid"
)

// TradeRecord is one immutable row of the append-only trade history.
type TradeRecord struct {
	ID           string
	AgentID      string
	Timestamp    time.Time
	Symbol       string
	Direction    Direction
	EntryPrice   float64
	ExitPrice    float64
	Quantity     float64
	PnLPercent   float64
	PnLDollar    float64
	IsWin        bool
	Strategy     string
	StateAtEntry MarketState
	Reason       CloseReason
}

// NewTradeRecord builds a record for a closed position.
func NewTradeRecord(agentID string, p Position, exitPrice, pnlPct, pnlDollar float64, reason CloseReason, at time.Time) TradeRecord {
	return TradeRecord{
		ID:           uuid.New().String(),
		AgentID:      agentID,
		Timestamp:    at,
		Symbol:       p.Symbol,
		Direction:    p.Direction,
		EntryPrice:   p.EntryPrice,
		ExitPrice:    exitPrice,
		Quantity:     p.Quantity,
		PnLPercent:   pnlPct,
		PnLDollar:    pnlDollar,
		IsWin:        pnlDollar > 0,
		Strategy:     p.Strategy,
		StateAtEntry: p.StateAtEntry,
		Reason:       reason,
	}
}
