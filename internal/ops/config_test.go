package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignitex/internal/schema"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT"}, cfg.Symbols)
	assert.Len(t, cfg.Agents, 3)
	assert.Len(t, cfg.Strategies, 6)
	assert.Equal(t, 3*time.Second, cfg.Cadence.Price)
	assert.Equal(t, 2*time.Second, cfg.Cadence.Monitor)
	assert.Equal(t, 15*time.Second, cfg.Cadence.Evaluate)
	assert.Equal(t, time.Minute, cfg.Cadence.Regime)
	assert.Equal(t, 30*time.Second, cfg.Cadence.Sync)
	assert.Equal(t, 30*time.Minute, cfg.MaxHold)
	assert.Equal(t, "synthetic", cfg.Feed.Mode)
	assert.Equal(t, 2*time.Second, cfg.Store.DebounceWindow)
	assert.InDelta(t, 108000, cfg.Feed.BasePrices["BTCUSDT"], 1e-9)

	agents := cfg.BuildAgents()
	require.Len(t, agents, 3)
	assert.Equal(t, "blaze", agents[0].ID)
	assert.Equal(t, schema.BreakerActive, agents[0].Risk.Level)
	assert.Equal(t, agents[0].InitialBalance, agents[0].Balance)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"symbols": ["BTCUSDT"],
		"agents": [{
			"id": "solo",
			"name": "Solo",
			"archetype": "TREND_FOLLOWER",
			"initialBalance": 5000,
			"basePositionPct": 0.2,
			"tradeInterval": 60000000000
		}],
		"feed": {"mode": "rest", "baseUrl": "http://localhost:9999"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "solo", cfg.Agents[0].ID)
	assert.Equal(t, time.Minute, cfg.Agents[0].TradeInterval)
	assert.Equal(t, "rest", cfg.Feed.Mode)
	// Unset sections fall back to defaults.
	assert.Len(t, cfg.Strategies, 6)
	assert.InDelta(t, 0.25, cfg.Risk.MaxLossFraction, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestResolveRejectsBadAgents(t *testing.T) {
	base := AgentConfig{
		ID:              "a",
		Archetype:       schema.ArchetypeTrend,
		InitialBalance:  1000,
		BasePositionPct: 0.1,
		TradeInterval:   time.Minute,
	}

	dup := base
	_, err := resolve(FileConfig{Agents: []AgentConfig{base, dup}})
	assert.Error(t, err)

	badArch := base
	badArch.ID = "b"
	badArch.Archetype = "GAMBLER"
	_, err = resolve(FileConfig{Agents: []AgentConfig{badArch}})
	assert.Error(t, err)

	badPct := base
	badPct.BasePositionPct = 1.5
	_, err = resolve(FileConfig{Agents: []AgentConfig{badPct}})
	assert.Error(t, err)

	badBalance := base
	badBalance.InitialBalance = 0
	_, err = resolve(FileConfig{Agents: []AgentConfig{badBalance}})
	assert.Error(t, err)
}

func TestResolveRejectsBadStrategies(t *testing.T) {
	good := StrategyConfig{
		Name:      "s",
		Archetype: schema.ArchetypeTrend,
		BaseTPPct: 1.6,
		BaseSLPct: 0.8,
		Suitability: map[string]float64{
			"BULLISH_HIGH_VOL": 80,
		},
	}

	cfg, err := resolve(FileConfig{Strategies: []StrategyConfig{good}})
	require.NoError(t, err)
	require.Len(t, cfg.Strategies, 1)
	assert.InDelta(t, 80, cfg.Strategies[0].Suitability[schema.MarketStateBullishHighVol], 1e-9)

	badState := good
	badState.Suitability = map[string]float64{"SIDEWAYS_CHOP": 50}
	_, err = resolve(FileConfig{Strategies: []StrategyConfig{badState}})
	assert.Error(t, err)

	badScore := good
	badScore.Suitability = map[string]float64{"RANGEBOUND": 140}
	_, err = resolve(FileConfig{Strategies: []StrategyConfig{badScore}})
	assert.Error(t, err)

	badExit := good
	badExit.BaseSLPct = 0
	_, err = resolve(FileConfig{Strategies: []StrategyConfig{badExit}})
	assert.Error(t, err)
}
