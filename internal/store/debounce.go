package store

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"ignitex/internal/schema"
)

const flushTimeout = 5 * time.Second

// Debounced wraps a Store and coalesces writes per key inside a short
// window: only the latest payload for an agent reaches the inner store.
// Writes are fire-and-forget relative to the caller; trade history rows
// are queued append-only and drained in arrival order, never coalesced.
type Debounced struct {
	inner  Store
	window time.Duration

	mu      sync.Mutex
	pending map[string]func(context.Context) error
	trades  []schema.TradeRecord

	done chan struct{}
	wg   sync.WaitGroup

	onError func(error)
}

// NewDebounced starts the flush loop around the inner store.
func NewDebounced(inner Store, window time.Duration) *Debounced {
	if window <= 0 {
		window = 2 * time.Second
	}
	d := &Debounced{
		inner:   inner,
		window:  window,
		pending: make(map[string]func(context.Context) error),
		done:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// OnError registers a callback invoked for every failed flush write.
func (d *Debounced) OnError(fn func(error)) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

// LoadSessions passes through to the inner store.
func (d *Debounced) LoadSessions(ctx context.Context) (map[string]SessionData, error) {
	return d.inner.LoadSessions(ctx)
}

// LoadOpenPositions passes through to the inner store.
func (d *Debounced) LoadOpenPositions(ctx context.Context) (map[string]schema.Position, error) {
	return d.inner.LoadOpenPositions(ctx)
}

// LoadLastRegime passes through to the inner store.
func (d *Debounced) LoadLastRegime(ctx context.Context) (*schema.RegimeState, error) {
	return d.inner.LoadLastRegime(ctx)
}

// SaveSession queues the session write, replacing any pending write for
// the same agent.
func (d *Debounced) SaveSession(_ context.Context, agentID string, data SessionData) error {
	d.queue("session:"+agentID, func(ctx context.Context) error {
		return d.inner.SaveSession(ctx, agentID, data)
	})
	return nil
}

// SavePosition queues the position write, replacing any pending save or
// delete for the same agent.
func (d *Debounced) SavePosition(_ context.Context, agentID string, p schema.Position) error {
	d.queue("position:"+agentID, func(ctx context.Context) error {
		return d.inner.SavePosition(ctx, agentID, p)
	})
	return nil
}

// DeletePosition queues the position delete, replacing any pending save
// for the same agent.
func (d *Debounced) DeletePosition(_ context.Context, agentID string) error {
	d.queue("position:"+agentID, func(ctx context.Context) error {
		return d.inner.DeletePosition(ctx, agentID)
	})
	return nil
}

// SaveRegime queues the regime singleton write.
func (d *Debounced) SaveRegime(_ context.Context, r schema.RegimeState) error {
	d.queue("regime", func(ctx context.Context) error {
		return d.inner.SaveRegime(ctx, r)
	})
	return nil
}

// AppendTrade queues the record for the next flush. History rows are
// drained in arrival order and never coalesce.
func (d *Debounced) AppendTrade(_ context.Context, rec schema.TradeRecord) error {
	d.mu.Lock()
	d.trades = append(d.trades, rec)
	d.mu.Unlock()
	return nil
}

// Flush synchronously drains all pending writes.
func (d *Debounced) Flush() {
	d.flush()
}

// Close flushes pending writes and closes the inner store.
func (d *Debounced) Close() error {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	d.wg.Wait()
	d.flush()
	return d.inner.Close()
}

func (d *Debounced) queue(key string, write func(context.Context) error) {
	d.mu.Lock()
	d.pending[key] = write
	d.mu.Unlock()
}

func (d *Debounced) loop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.window)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.flush()
		}
	}
}

func (d *Debounced) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 && len(d.trades) == 0 {
		d.mu.Unlock()
		return
	}
	batch := d.pending
	d.pending = make(map[string]func(context.Context) error)
	trades := d.trades
	d.trades = nil
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for _, rec := range trades {
		if err := d.inner.AppendTrade(ctx, rec); err != nil {
			logs.Warnf("store flush trade %s failed: %v", rec.ID, err)
			d.reportError(err)
		}
	}
	for key, write := range batch {
		if err := write(ctx); err != nil {
			logs.Warnf("store flush %s failed: %v", key, err)
			d.reportError(err)
		}
	}
}

func (d *Debounced) reportError(err error) {
	d.mu.Lock()
	fn := d.onError
	d.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
