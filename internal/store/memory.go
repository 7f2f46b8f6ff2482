package store

import (
	"context"
	"sync"

	"ignitex/internal/schema"
)

// Memory is an in-process store used for tests and for degraded operation
// when the persistence layer is unreachable.
type Memory struct {
	mu        sync.Mutex
	sessions  map[string]SessionData
	positions map[string]schema.Position
	regime    *schema.RegimeState
	trades    []schema.TradeRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions:  make(map[string]SessionData),
		positions: make(map[string]schema.Position),
	}
}

// LoadSessions returns a copy of all session summaries.
func (s *Memory) LoadSessions(ctx context.Context) (map[string]SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SessionData, len(s.sessions))
	for id, data := range s.sessions {
		out[id] = data
	}
	return out, nil
}

// LoadOpenPositions returns a copy of all open positions.
func (s *Memory) LoadOpenPositions(ctx context.Context) (map[string]schema.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]schema.Position, len(s.positions))
	for id, p := range s.positions {
		out[id] = p
	}
	return out, nil
}

// LoadLastRegime returns the stored regime, or nil.
func (s *Memory) LoadLastRegime(ctx context.Context) (*schema.RegimeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regime == nil {
		return nil, nil
	}
	r := *s.regime
	return &r, nil
}

// SaveSession stores the session summary, last write wins.
func (s *Memory) SaveSession(ctx context.Context, agentID string, data SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[agentID] = data
	return nil
}

// SavePosition stores the open position, last write wins.
func (s *Memory) SavePosition(ctx context.Context, agentID string, p schema.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[agentID] = p
	return nil
}

// DeletePosition removes the agent's open position.
func (s *Memory) DeletePosition(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, agentID)
	return nil
}

// SaveRegime stores the regime singleton.
func (s *Memory) SaveRegime(ctx context.Context, r schema.RegimeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regime = &r
	return nil
}

// AppendTrade appends one trade record.
func (s *Memory) AppendTrade(ctx context.Context, rec schema.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, rec)
	return nil
}

// Trades returns a copy of the appended trade history.
func (s *Memory) Trades() []schema.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.TradeRecord, len(s.trades))
	copy(out, s.trades)
	return out
}

// Close is a no-op.
func (s *Memory) Close() error {
	return nil
}
