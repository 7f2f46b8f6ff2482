package store

import (
	"context"

	"github.com/yanun0323/errors"

	"ignitex/internal/schema"
)

// ErrUnavailable signals the persistence layer cannot be reached. Callers
// degrade to in-memory-only operation; nothing fatal follows from it.
var ErrUnavailable = errors.New("session store unavailable")

// SessionData is the per-agent recoverable session summary. BalanceDelta
// is relative to the agent's configured initial balance.
type SessionData struct {
	Trades       int
	Wins         int
	PnL          float64
	BalanceDelta float64
}

// Store is the durable mirror of engine state. In-memory state stays
// authoritative during a session; writes are best-effort, at-least-once
// and idempotent on agent ID.
type Store interface {
	LoadSessions(ctx context.Context) (map[string]SessionData, error)
	LoadOpenPositions(ctx context.Context) (map[string]schema.Position, error)
	LoadLastRegime(ctx context.Context) (*schema.RegimeState, error)

	SaveSession(ctx context.Context, agentID string, data SessionData) error
	SavePosition(ctx context.Context, agentID string, p schema.Position) error
	DeletePosition(ctx context.Context, agentID string) error
	SaveRegime(ctx context.Context, r schema.RegimeState) error

	AppendTrade(ctx context.Context, rec schema.TradeRecord) error
	Close() error
}
