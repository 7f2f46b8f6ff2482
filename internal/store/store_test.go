package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignitex/internal/schema"
)

func samplePosition() schema.Position {
	return schema.Position{
		Symbol:       "BTCUSDT",
		Direction:    schema.DirectionLong,
		EntryPrice:   100,
		CurrentPrice: 100.4,
		Quantity:     10,
		TakeProfit:   101.2,
		StopLoss:     99.5,
		Strategy:     "momentum-ride",
		StateAtEntry: schema.MarketStateBullishLowVol,
		OpenedAt:     time.Now().Truncate(time.Second),
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveSession(ctx, "blaze", SessionData{Trades: 5, Wins: 3, PnL: 42, BalanceDelta: 42}))
	require.NoError(t, m.SavePosition(ctx, "blaze", samplePosition()))
	require.NoError(t, m.SaveRegime(ctx, schema.RegimeState{State: schema.MarketStateRangebound, Confidence: 60}))

	sessions, err := m.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, SessionData{Trades: 5, Wins: 3, PnL: 42, BalanceDelta: 42}, sessions["blaze"])

	positions, err := m.LoadOpenPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, samplePosition(), positions["blaze"])

	reg, err := m.LoadLastRegime(ctx)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, schema.MarketStateRangebound, reg.State)

	require.NoError(t, m.DeletePosition(ctx, "blaze"))
	positions, err = m.LoadOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

// Saving the same payload twice must land on the same state: state
// writes are last-wins upserts, not appends.
func TestMemorySaveIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	data := SessionData{Trades: 5, Wins: 3, PnL: 42, BalanceDelta: 42}

	require.NoError(t, m.SaveSession(ctx, "blaze", data))
	require.NoError(t, m.SaveSession(ctx, "blaze", data))

	sessions, err := m.LoadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, data, sessions["blaze"])
}

// countingStore wraps Memory and counts writes that reach it.
type countingStore struct {
	*Memory
	mu       sync.Mutex
	sessions int
	saves    int
	deletes  int
}

func (c *countingStore) SaveSession(ctx context.Context, agentID string, data SessionData) error {
	c.mu.Lock()
	c.sessions++
	c.mu.Unlock()
	return c.Memory.SaveSession(ctx, agentID, data)
}

func (c *countingStore) SavePosition(ctx context.Context, agentID string, p schema.Position) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.Memory.SavePosition(ctx, agentID, p)
}

func (c *countingStore) DeletePosition(ctx context.Context, agentID string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.Memory.DeletePosition(ctx, agentID)
}

func (c *countingStore) counts() (sessions, saves, deletes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions, c.saves, c.deletes
}

func TestDebouncedCoalescesSessionWrites(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	d := NewDebounced(inner, 30*time.Millisecond)
	defer d.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, d.SaveSession(ctx, "blaze", SessionData{Trades: i}))
	}
	d.Flush()

	sessions, _, _ := inner.counts()
	assert.Equal(t, 1, sessions)

	stored, err := inner.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stored["blaze"].Trades) // last write wins
}

func TestDebouncedSaveThenDeleteSameKey(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	d := NewDebounced(inner, 30*time.Millisecond)
	defer d.Close()

	require.NoError(t, d.SavePosition(ctx, "blaze", samplePosition()))
	require.NoError(t, d.DeletePosition(ctx, "blaze"))
	d.Flush()

	_, saves, deletes := inner.counts()
	assert.Zero(t, saves)
	assert.Equal(t, 1, deletes)

	positions, err := inner.LoadOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestDebouncedTradeQueueDrainsInOrder(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	d := NewDebounced(inner, time.Minute) // window never fires in-test
	defer d.Close()

	var ids []string
	for i := 0; i < 3; i++ {
		rec := schema.NewTradeRecord("blaze", samplePosition(), 101.2, 1.2, 12, schema.CloseReasonTakeProfit, time.Now())
		ids = append(ids, rec.ID)
		require.NoError(t, d.AppendTrade(ctx, rec))
	}
	assert.Empty(t, inner.Trades()) // queued, not written yet

	d.Flush()
	trades := inner.Trades()
	require.Len(t, trades, 3)
	for i, rec := range trades {
		assert.Equal(t, ids[i], rec.ID)
	}
}

// stalledStore blocks trade writes until released, standing in for a
// database that stops answering.
type stalledStore struct {
	*Memory
	release chan struct{}
}

func (s *stalledStore) AppendTrade(ctx context.Context, rec schema.TradeRecord) error {
	<-s.release
	return s.Memory.AppendTrade(ctx, rec)
}

// Appending trade history must never block the caller on the inner
// store, however slow it is; rows land on the next flush.
func TestDebouncedTradeAppendDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	inner := &stalledStore{Memory: NewMemory(), release: make(chan struct{})}
	d := NewDebounced(inner, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			rec := schema.NewTradeRecord("blaze", samplePosition(), 101.2, 1.2, 12, schema.CloseReasonTakeProfit, time.Now())
			assert.NoError(t, d.AppendTrade(ctx, rec))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AppendTrade blocked on the inner store")
	}

	close(inner.release)
	d.Flush()
	assert.Len(t, inner.Trades(), 3)
	require.NoError(t, d.Close())
}

// failingStore rejects every write that reaches it.
type failingStore struct {
	*Memory
}

func (f *failingStore) SaveSession(context.Context, string, SessionData) error {
	return ErrUnavailable
}

func (f *failingStore) AppendTrade(context.Context, schema.TradeRecord) error {
	return ErrUnavailable
}

func TestDebouncedReportsFlushErrors(t *testing.T) {
	ctx := context.Background()
	d := NewDebounced(&failingStore{Memory: NewMemory()}, time.Minute)
	defer d.Close()

	var mu sync.Mutex
	failures := 0
	d.OnError(func(error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	require.NoError(t, d.SaveSession(ctx, "blaze", SessionData{Trades: 1}))
	rec := schema.NewTradeRecord("blaze", samplePosition(), 101.2, 1.2, 12, schema.CloseReasonTakeProfit, time.Now())
	require.NoError(t, d.AppendTrade(ctx, rec))
	d.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, failures)
}

func TestDebouncedCloseFlushesPending(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Memory: NewMemory()}
	d := NewDebounced(inner, time.Minute)

	require.NoError(t, d.SaveSession(ctx, "blaze", SessionData{Trades: 7}))
	require.NoError(t, d.Close())

	sessions, _, _ := inner.counts()
	assert.Equal(t, 1, sessions)
}

func TestSessionRowValidate(t *testing.T) {
	valid := SessionRow{AgentID: "blaze", Version: schema.Version, Trades: 5, Wins: 3}
	assert.NoError(t, valid.Validate())

	wrongVersion := valid
	wrongVersion.Version = schema.Version + 1
	assert.Error(t, wrongVersion.Validate())

	noID := valid
	noID.AgentID = ""
	assert.Error(t, noID.Validate())

	impossible := valid
	impossible.Wins = 9
	assert.Error(t, impossible.Validate())
}

func TestPositionRowValidate(t *testing.T) {
	valid := positionRow("blaze", samplePosition())
	assert.NoError(t, valid.Validate())

	wrongVersion := valid
	wrongVersion.Version = schema.Version + 1
	assert.Error(t, wrongVersion.Validate())

	badDirection := valid
	badDirection.Direction = "SIDEWAYS"
	assert.Error(t, badDirection.Validate())

	badEntry := valid
	badEntry.EntryPrice = 0
	assert.Error(t, badEntry.Validate())
}

func TestPositionRowRoundTrip(t *testing.T) {
	p := samplePosition()
	row := positionRow("blaze", p)
	require.NoError(t, row.Validate())
	assert.Equal(t, p, row.Position())
}
