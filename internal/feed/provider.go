package feed

import (
	"context"

	"github.com/yanun0323/errors"

	"ignitex/internal/schema"
)

// ErrNoData signals the provider produced nothing for the symbol this
// tick. Callers keep the previous snapshot in place.
var ErrNoData = errors.New("no market data")

// Provider fetches per-symbol market snapshots. Implementations carry
// their own timeouts; a failed fetch must never block the caller's tick.
type Provider interface {
	FetchSnapshot(ctx context.Context, symbol string) (schema.MarketSnapshot, error)
}
