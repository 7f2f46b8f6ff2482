package store

import (
	"context"
	stderrors "errors"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ignitex/internal/schema"
	"ignitex/pkg/conn"
)

// Postgres persists engine state through gorm. Saves upsert on the
// primary key, so replaying the same payload is idempotent
// (last-write-wins per agent).
type Postgres struct {
	client *conn.Client
}

// NewPostgres opens the connection, verifies it answers and migrates
// the session tables.
func NewPostgres(opt conn.Option) (*Postgres, error) {
	client, err := conn.New(opt)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := client.Ping(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if err := client.DB().AutoMigrate(&SessionRow{}, &PositionRow{}, &RegimeRow{}, &TradeRow{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate session tables")
	}
	return &Postgres{client: client}, nil
}

// LoadSessions returns all valid session rows keyed by agent ID.
func (s *Postgres) LoadSessions(ctx context.Context) (map[string]SessionData, error) {
	var rows []SessionRow
	if err := s.db(ctx).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	out := make(map[string]SessionData, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			logs.Warnf("quarantined session row %q: %v", row.AgentID, err)
			continue
		}
		out[row.AgentID] = SessionData{
			Trades:       row.Trades,
			Wins:         row.Wins,
			PnL:          row.PnL,
			BalanceDelta: row.BalanceDelta,
		}
	}
	return out, nil
}

// LoadOpenPositions returns all valid open positions keyed by agent ID.
func (s *Postgres) LoadOpenPositions(ctx context.Context) (map[string]schema.Position, error) {
	var rows []PositionRow
	if err := s.db(ctx).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	out := make(map[string]schema.Position, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			logs.Warnf("quarantined position row %q: %v", row.AgentID, err)
			continue
		}
		out[row.AgentID] = row.Position()
	}
	return out, nil
}

// LoadLastRegime returns the persisted regime, or nil when none exists.
func (s *Postgres) LoadLastRegime(ctx context.Context) (*schema.RegimeState, error) {
	var row RegimeRow
	err := s.db(ctx).First(&row, "id = ?", 1).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	if err := row.Validate(); err != nil {
		logs.Warnf("quarantined regime row: %v", err)
		return nil, nil
	}
	return &schema.RegimeState{
		State:      schema.MarketState(row.State),
		Confidence: row.Confidence,
		Since:      row.Since,
	}, nil
}

// SaveSession upserts the agent's session summary.
func (s *Postgres) SaveSession(ctx context.Context, agentID string, data SessionData) error {
	row := SessionRow{
		AgentID:      agentID,
		Version:      schema.Version,
		Trades:       data.Trades,
		Wins:         data.Wins,
		PnL:          data.PnL,
		BalanceDelta: data.BalanceDelta,
	}
	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// SavePosition upserts the agent's open position.
func (s *Postgres) SavePosition(ctx context.Context, agentID string, p schema.Position) error {
	row := positionRow(agentID, p)
	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// DeletePosition removes the agent's open position row.
func (s *Postgres) DeletePosition(ctx context.Context, agentID string) error {
	err := s.db(ctx).Delete(&PositionRow{}, "agent_id = ?", agentID).Error
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// SaveRegime upserts the singleton regime row.
func (s *Postgres) SaveRegime(ctx context.Context, r schema.RegimeState) error {
	row := RegimeRow{
		ID:         1,
		Version:    schema.Version,
		State:      string(r.State),
		Confidence: r.Confidence,
		Since:      r.Since,
	}
	err := s.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// AppendTrade inserts one immutable trade history row.
func (s *Postgres) AppendTrade(ctx context.Context, rec schema.TradeRecord) error {
	row := tradeRow(rec)
	err := s.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	return nil
}

// Close releases the connection pool.
func (s *Postgres) Close() error {
	return s.client.Close()
}

func (s *Postgres) db(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}
