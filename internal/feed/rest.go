package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"ignitex/internal/schema"
)

const defaultTickerBaseURL = "https://api.binance.com"

// Ticker24h is the exchange 24h rolling ticker payload. Numeric fields
// arrive as decimal strings.
type Ticker24h struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	Volume             decimal.Decimal `json:"volume"`
}

// Rest polls a Binance-style REST ticker endpoint.
type Rest struct {
	client *resty.Client
	clock  func() time.Time
}

// NewRest creates a REST provider. An empty baseURL targets the public
// Binance API.
func NewRest(baseURL string, timeout time.Duration) *Rest {
	if baseURL == "" {
		baseURL = defaultTickerBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	return &Rest{client: client, clock: time.Now}
}

// FetchSnapshot polls the 24h ticker for one symbol.
func (r *Rest) FetchSnapshot(ctx context.Context, symbol string) (schema.MarketSnapshot, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get("/api/v3/ticker/24hr")
	if err != nil {
		return schema.MarketSnapshot{}, errors.Wrap(err, "fetch ticker")
	}
	if resp.StatusCode() != 200 {
		return schema.MarketSnapshot{}, errors.Errorf("ticker status %d: %s", resp.StatusCode(), resp.String())
	}

	var ticker Ticker24h
	if err := json.Unmarshal(resp.Body(), &ticker); err != nil {
		return schema.MarketSnapshot{}, errors.Wrap(err, "parse ticker")
	}
	snap := ticker.Snapshot(r.clock())
	if snap.Price <= 0 {
		return schema.MarketSnapshot{}, ErrNoData
	}
	return snap, nil
}

// Snapshot converts the wire payload into the domain snapshot.
func (t Ticker24h) Snapshot(at time.Time) schema.MarketSnapshot {
	return schema.MarketSnapshot{
		Symbol:       t.Symbol,
		Price:        toFloat(t.LastPrice),
		High24h:      toFloat(t.HighPrice),
		Low24h:       toFloat(t.LowPrice),
		Change24hPct: toFloat(t.PriceChangePercent),
		Volume:       toFloat(t.Volume),
		UpdatedAt:    at,
	}
}

func toFloat(d decimal.Decimal) float64 {
	v, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0
	}
	return v
}
