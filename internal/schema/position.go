package schema

import "time"

// Direction is the side of a position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// CloseReason records why a position left the OPEN state.
type CloseReason string

const (
	CloseReasonTakeProfit   CloseReason = "TP"
	CloseReasonStopLoss     CloseReason = "SL"
	CloseReasonTimeout      CloseReason = "TIMEOUT"
	CloseReasonRegimeChange CloseReason = "REGIME_CHANGE"
	CloseReasonReset        CloseReason = "RESET"
)

// Position is an agent's single open trade. An agent holds zero or one
// position at any time.
type Position struct {
	Symbol       string
	Direction    Direction
	EntryPrice   float64
	CurrentPrice float64
	Quantity     float64
	TakeProfit   float64
	StopLoss     float64
	Strategy     string
	StateAtEntry MarketState
	OpenedAt     time.Time
}

// Notional returns the entry notional value in dollars.
func (p Position) Notional() float64 {
	return p.EntryPrice * p.Quantity
}

// PnLPercent returns the unrealized P&L percentage at the given price.
func (p Position) PnLPercent(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	pct := (price - p.EntryPrice) / p.EntryPrice * 100
	if p.Direction == DirectionShort {
		pct = -pct
	}
	return pct
}

// PnLDollar returns the unrealized dollar P&L at the given price.
func (p Position) PnLDollar(price float64) float64 {
	return p.PnLPercent(price) / 100 * p.Notional()
}

// ProgressToTarget normalizes the current price against the entry→TP span
// in [0,100]. Negative values mean the price moved toward the stop.
func (p Position) ProgressToTarget(price float64) float64 {
	span := p.TakeProfit - p.EntryPrice
	if p.Direction == DirectionShort {
		span = p.EntryPrice - p.TakeProfit
	}
	if span == 0 {
		return 0
	}
	moved := price - p.EntryPrice
	if p.Direction == DirectionShort {
		moved = p.EntryPrice - price
	}
	progress := moved / span * 100
	if progress > 100 {
		return 100
	}
	return progress
}
