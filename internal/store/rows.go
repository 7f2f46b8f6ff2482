package store

import (
	"time"

	"github.com/yanun0323/errors"

	"ignitex/internal/schema"
)

// Row types are the explicit persisted shapes. Every row carries the
// schema version and is validated before it is trusted; rows failing
// validation are quarantined (skipped and logged), never loaded.

// SessionRow mirrors one agent's session summary.
type SessionRow struct {
	AgentID      string  `gorm:"primaryKey;column:agent_id"`
	Version      uint16  `gorm:"column:version"`
	Trades       int     `gorm:"column:trades"`
	Wins         int     `gorm:"column:wins"`
	PnL          float64 `gorm:"column:pnl"`
	BalanceDelta float64 `gorm:"column:balance_delta"`
	UpdatedAt    time.Time
}

// TableName implements the gorm table naming convention.
func (SessionRow) TableName() string { return "agent_sessions" }

// Validate rejects rows from unknown schema versions or with impossible
// counters.
func (r SessionRow) Validate() error {
	if r.Version != schema.Version {
		return errors.Errorf("unsupported session version %d", r.Version)
	}
	if r.AgentID == "" {
		return errors.New("session row missing agent id")
	}
	if r.Trades < 0 || r.Wins < 0 || r.Wins > r.Trades {
		return errors.Errorf("session row counters invalid: trades=%d wins=%d", r.Trades, r.Wins)
	}
	return nil
}

// PositionRow mirrors one agent's open position.
type PositionRow struct {
	AgentID      string  `gorm:"primaryKey;column:agent_id"`
	Version      uint16  `gorm:"column:version"`
	Symbol       string  `gorm:"column:symbol"`
	Direction    string  `gorm:"column:direction"`
	EntryPrice   float64 `gorm:"column:entry_price"`
	CurrentPrice float64 `gorm:"column:current_price"`
	Quantity     float64 `gorm:"column:quantity"`
	TakeProfit   float64 `gorm:"column:take_profit"`
	StopLoss     float64 `gorm:"column:stop_loss"`
	Strategy     string  `gorm:"column:strategy"`
	StateAtEntry string  `gorm:"column:state_at_entry"`
	OpenedAt     time.Time
	UpdatedAt    time.Time
}

// TableName implements the gorm table naming convention.
func (PositionRow) TableName() string { return "agent_positions" }

// Validate rejects malformed position rows.
func (r PositionRow) Validate() error {
	if r.Version != schema.Version {
		return errors.Errorf("unsupported position version %d", r.Version)
	}
	if r.AgentID == "" || r.Symbol == "" {
		return errors.New("position row missing identity")
	}
	if !schema.Direction(r.Direction).Valid() {
		return errors.Errorf("position row direction invalid: %q", r.Direction)
	}
	if r.EntryPrice <= 0 || r.Quantity <= 0 {
		return errors.Errorf("position row numbers invalid: entry=%f qty=%f", r.EntryPrice, r.Quantity)
	}
	return nil
}

// Position converts a validated row to the domain type.
func (r PositionRow) Position() schema.Position {
	return schema.Position{
		Symbol:       r.Symbol,
		Direction:    schema.Direction(r.Direction),
		EntryPrice:   r.EntryPrice,
		CurrentPrice: r.CurrentPrice,
		Quantity:     r.Quantity,
		TakeProfit:   r.TakeProfit,
		StopLoss:     r.StopLoss,
		Strategy:     r.Strategy,
		StateAtEntry: schema.MarketState(r.StateAtEntry),
		OpenedAt:     r.OpenedAt,
	}
}

func positionRow(agentID string, p schema.Position) PositionRow {
	return PositionRow{
		AgentID:      agentID,
		Version:      schema.Version,
		Symbol:       p.Symbol,
		Direction:    string(p.Direction),
		EntryPrice:   p.EntryPrice,
		CurrentPrice: p.CurrentPrice,
		Quantity:     p.Quantity,
		TakeProfit:   p.TakeProfit,
		StopLoss:     p.StopLoss,
		Strategy:     p.Strategy,
		StateAtEntry: string(p.StateAtEntry),
		OpenedAt:     p.OpenedAt,
	}
}

// RegimeRow mirrors the singleton last-known regime.
type RegimeRow struct {
	ID         uint16  `gorm:"primaryKey;column:id"`
	Version    uint16  `gorm:"column:version"`
	State      string  `gorm:"column:state"`
	Confidence float64 `gorm:"column:confidence"`
	Since      time.Time
	UpdatedAt  time.Time
}

// TableName implements the gorm table naming convention.
func (RegimeRow) TableName() string { return "market_regime" }

// Validate rejects malformed regime rows.
func (r RegimeRow) Validate() error {
	if r.Version != schema.Version {
		return errors.Errorf("unsupported regime version %d", r.Version)
	}
	if !schema.MarketState(r.State).Valid() {
		return errors.Errorf("regime row state invalid: %q", r.State)
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return errors.Errorf("regime row confidence out of range: %f", r.Confidence)
	}
	return nil
}

// TradeRow mirrors one append-only trade history record.
type TradeRow struct {
	ID           string `gorm:"primaryKey;column:id"`
	Version      uint16 `gorm:"column:version"`
	AgentID      string `gorm:"column:agent_id;index"`
	Timestamp    time.Time
	Symbol       string  `gorm:"column:symbol"`
	Direction    string  `gorm:"column:direction"`
	EntryPrice   float64 `gorm:"column:entry_price"`
	ExitPrice    float64 `gorm:"column:exit_price"`
	Quantity     float64 `gorm:"column:quantity"`
	PnLPercent   float64 `gorm:"column:pnl_percent"`
	PnLDollar    float64 `gorm:"column:pnl_dollar"`
	IsWin        bool    `gorm:"column:is_win"`
	Strategy     string  `gorm:"column:strategy"`
	StateAtEntry string  `gorm:"column:state_at_entry"`
	Reason       string  `gorm:"column:reason"`
}

// TableName implements the gorm table naming convention.
func (TradeRow) TableName() string { return "trade_history" }

func tradeRow(rec schema.TradeRecord) TradeRow {
	return TradeRow{
		ID:           rec.ID,
		Version:      schema.Version,
		AgentID:      rec.AgentID,
		Timestamp:    rec.Timestamp,
		Symbol:       rec.Symbol,
		Direction:    string(rec.Direction),
		EntryPrice:   rec.EntryPrice,
		ExitPrice:    rec.ExitPrice,
		Quantity:     rec.Quantity,
		PnLPercent:   rec.PnLPercent,
		PnLDollar:    rec.PnLDollar,
		IsWin:        rec.IsWin,
		Strategy:     rec.Strategy,
		StateAtEntry: string(rec.StateAtEntry),
		Reason:       string(rec.Reason),
	}
}
