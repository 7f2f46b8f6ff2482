// Package obs exposes the Prometheus metrics the engine updates during
// operation:
//   - sim_ticks_total{cadence}            – scheduler ticks by cadence
//   - sim_trades_total{result}            – trades by result (open|win|loss)
//   - sim_exit_reasons_total{reason}      – closes split by reason
//   - sim_risk_refusals_total{reason}     – trades refused by the risk governor
//   - sim_clamp_events_total{kind}        – safety clamps applied (pnl|balance)
//   - sim_store_errors_total              – failed persistence writes
//   - sim_fetch_failures_total            – market data fetches that returned nothing
//   - sim_equity_usd{agent}               – per-agent balance snapshot (gauge)
//   - sim_regime_confidence               – confidence of the current regime (gauge)
//
// Registered in init() and served at /metrics by cmd/engine.
package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Scheduler ticks by cadence",
		},
		[]string{"cadence"},
	)

	trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_trades_total",
			Help: "Trades counted by result (open|win|loss)",
		},
		[]string{"result"},
	)

	exitReasons = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_exit_reasons_total",
			Help: "Position closes split by reason",
		},
		[]string{"reason"},
	)

	riskRefusals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_risk_refusals_total",
			Help: "Trades refused by the risk governor, by reason",
		},
		[]string{"reason"},
	)

	clampEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_clamp_events_total",
			Help: "Safety clamps applied to computed or persisted values",
		},
		[]string{"kind"}, // pnl|balance
	)

	storeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_store_errors_total",
			Help: "Failed persistence writes",
		},
	)

	fetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_fetch_failures_total",
			Help: "Market data fetches that produced no snapshot",
		},
	)

	equity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sim_equity_usd",
			Help: "Per-agent balance snapshot",
		},
		[]string{"agent"},
	)

	regimeConfidence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_regime_confidence",
			Help: "Confidence of the current market regime",
		},
	)
)

func init() {
	prometheus.MustRegister(ticks, trades, exitReasons, riskRefusals, clampEvents)
	prometheus.MustRegister(storeErrors, fetchFailures, equity, regimeConfidence)
}

func IncTick(cadence string)       { ticks.WithLabelValues(cadence).Inc() }
func IncTradeOpen()                { trades.WithLabelValues("open").Inc() }
func IncExitReason(reason string)  { exitReasons.WithLabelValues(reason).Inc() }
func IncRiskRefusal(reason string) { riskRefusals.WithLabelValues(reason).Inc() }
func IncClamp(kind string)         { clampEvents.WithLabelValues(kind).Inc() }
func IncStoreError()               { storeErrors.Inc() }
func IncFetchFailure()             { fetchFailures.Inc() }

func SetEquity(agent string, v float64) { equity.WithLabelValues(agent).Set(v) }
func SetRegimeConfidence(v float64)     { regimeConfidence.Set(v) }

// IncTradeResult counts a closed trade as win or loss.
func IncTradeResult(isWin bool) {
	if isWin {
		trades.WithLabelValues("win").Inc()
	} else {
		trades.WithLabelValues("loss").Inc()
	}
}
