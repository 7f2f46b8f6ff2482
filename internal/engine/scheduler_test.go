package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignitex/internal/feed"
	"ignitex/internal/store"
)

// Runs the real scheduler loop against the synthetic provider: ticks
// must produce an opened position, and Stop must terminate the loop.
func TestStartStopLifecycle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cadence.Price = 2 * time.Millisecond
	cfg.Cadence.Monitor = 2 * time.Millisecond
	cfg.Cadence.Evaluate = 5 * time.Millisecond
	cfg.Cadence.Regime = 10 * time.Millisecond
	cfg.Cadence.Sync = 10 * time.Millisecond

	mem := store.NewMemory()
	st := store.NewDebounced(mem, 5*time.Millisecond)
	provider := feed.NewSynthetic(cfg.Feed.BasePrices, 0.2, 1)
	e := New(cfg, provider, st)

	events := make(chan TradeEvent, 64)
	e.OnTradeEvent(func(evt TradeEvent) {
		select {
		case events <- evt:
		default:
		}
	})

	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	require.True(t, e.Running())
	assert.Error(t, e.Start(ctx)) // already running

	select {
	case evt := <-events:
		assert.Equal(t, TradeEventOpen, evt.Type)
		assert.Contains(t, cfg.Symbols, evt.Position.Symbol)
	case <-time.After(3 * time.Second):
		t.Fatal("no trade event before timeout")
	}

	e.Stop()
	assert.False(t, e.Running())
	e.Stop() // idempotent

	// Stop flushed the debounced writes through to the inner store.
	sessions, err := mem.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, len(cfg.Agents))

	require.NoError(t, st.Close())
}
