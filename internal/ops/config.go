package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"ignitex/internal/position"
	"ignitex/internal/regime"
	"ignitex/internal/risk"
	"ignitex/internal/schema"
	"ignitex/internal/strategy"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Symbols    []string         `json:"symbols"`
	Agents     []AgentConfig    `json:"agents"`
	Strategies []StrategyConfig `json:"strategies"`
	Cadence    CadenceConfig    `json:"cadence"`
	Risk       *risk.Config     `json:"risk"`
	Sizing     *position.Sizing `json:"sizing"`
	MaxHold    time.Duration    `json:"maxHold"`
	Signal     *SignalConfig    `json:"signal"`
	Store      StoreConfig      `json:"store"`
	Feed       FeedConfig       `json:"feed"`
	Kafka      KafkaConfig      `json:"kafka"`
}

// AgentConfig describes one simulated trader.
type AgentConfig struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Archetype       schema.Archetype `json:"archetype"`
	InitialBalance  float64          `json:"initialBalance"`
	BasePositionPct float64          `json:"basePositionPct"`
	TradeInterval   time.Duration    `json:"tradeInterval"`
}

// StrategyConfig describes one catalog entry. Suitability is keyed by
// market state name.
type StrategyConfig struct {
	Name        string             `json:"name"`
	Archetype   schema.Archetype   `json:"archetype"`
	BaseTPPct   float64            `json:"baseTpPct"`
	BaseSLPct   float64            `json:"baseSlPct"`
	Suitability map[string]float64 `json:"suitability"`
}

// CadenceConfig sets the five scheduler intervals.
type CadenceConfig struct {
	Price    time.Duration `json:"price"`
	Monitor  time.Duration `json:"monitor"`
	Evaluate time.Duration `json:"evaluate"`
	Regime   time.Duration `json:"regime"`
	Sync     time.Duration `json:"sync"`
}

// SignalConfig mirrors the generator tuning knobs.
type SignalConfig struct {
	MinSuitability   float64 `json:"minSuitability"`
	CooldownStreak   int     `json:"cooldownStreak"`
	CooldownSkipProb float64 `json:"cooldownSkipProb"`
}

// StoreConfig tunes persistence.
type StoreConfig struct {
	DebounceWindow time.Duration `json:"debounceWindow"`
	Disabled       bool          `json:"disabled"`
}

// FeedConfig selects and tunes the market data provider.
type FeedConfig struct {
	Mode       string             `json:"mode"` // rest|synthetic
	BaseURL    string             `json:"baseUrl"`
	Timeout    time.Duration      `json:"timeout"`
	BasePrices map[string]float64 `json:"basePrices"`
	VolPct     float64            `json:"volPct"`
	Seed       int64              `json:"seed"`
}

// KafkaConfig enables trade event publishing when brokers are set.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Symbols    []string
	Agents     []AgentConfig
	Strategies []strategy.Strategy
	Cadence    CadenceConfig
	Risk       risk.Config
	Sizing     position.Sizing
	MaxHold    time.Duration
	Signal     strategy.GeneratorConfig
	Regime     regime.Config
	Store      StoreConfig
	Feed       FeedConfig
	Kafka      KafkaConfig
}

// Load reads a JSON config file and resolves it against defaults. An
// empty path yields the default paper-trading setup.
func Load(path string) (Loaded, error) {
	var cfg FileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "read config")
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, errors.Wrap(err, "parse config")
		}
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	loaded := Loaded{
		Symbols: cfg.Symbols,
		Agents:  cfg.Agents,
		Cadence: cfg.Cadence,
		Risk:    risk.DefaultConfig(),
		Sizing:  position.DefaultSizing(),
		MaxHold: cfg.MaxHold,
		Signal:  strategy.DefaultGeneratorConfig(),
		Regime:  regime.DefaultConfig(),
		Store:   cfg.Store,
		Feed:    cfg.Feed,
		Kafka:   cfg.Kafka,
	}

	if len(loaded.Symbols) == 0 {
		loaded.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT"}
	}
	if len(loaded.Agents) == 0 {
		loaded.Agents = DefaultAgents()
	}
	if cfg.Risk != nil {
		loaded.Risk = *cfg.Risk
	}
	if cfg.Sizing != nil {
		loaded.Sizing = *cfg.Sizing
	}
	if loaded.MaxHold <= 0 {
		loaded.MaxHold = 30 * time.Minute
	}
	if cfg.Signal != nil {
		loaded.Signal = strategy.GeneratorConfig{
			MinSuitability:   cfg.Signal.MinSuitability,
			CooldownStreak:   cfg.Signal.CooldownStreak,
			CooldownSkipProb: cfg.Signal.CooldownSkipProb,
		}
	}
	if loaded.Cadence.Price <= 0 {
		loaded.Cadence.Price = 3 * time.Second
	}
	if loaded.Cadence.Monitor <= 0 {
		loaded.Cadence.Monitor = 2 * time.Second
	}
	if loaded.Cadence.Evaluate <= 0 {
		loaded.Cadence.Evaluate = 15 * time.Second
	}
	if loaded.Cadence.Regime <= 0 {
		loaded.Cadence.Regime = time.Minute
	}
	if loaded.Cadence.Sync <= 0 {
		loaded.Cadence.Sync = 30 * time.Second
	}
	if loaded.Store.DebounceWindow <= 0 {
		loaded.Store.DebounceWindow = 2 * time.Second
	}
	if loaded.Feed.Mode == "" {
		loaded.Feed.Mode = "synthetic"
	}
	if len(loaded.Feed.BasePrices) == 0 {
		loaded.Feed.BasePrices = defaultBasePrices(loaded.Symbols)
	}

	strategies, err := resolveStrategies(cfg.Strategies)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Strategies = strategies

	if err := validateAgents(loaded.Agents); err != nil {
		return Loaded{}, err
	}
	return loaded, nil
}

// BuildAgents materializes the configured traders in declaration order.
// Declaration order is the tick evaluation order.
func (l Loaded) BuildAgents() []*schema.Agent {
	agents := make([]*schema.Agent, 0, len(l.Agents))
	for _, cfg := range l.Agents {
		agents = append(agents, &schema.Agent{
			ID:              cfg.ID,
			Name:            cfg.Name,
			Archetype:       cfg.Archetype,
			InitialBalance:  cfg.InitialBalance,
			Balance:         cfg.InitialBalance,
			BasePositionPct: cfg.BasePositionPct,
			TradeInterval:   cfg.TradeInterval,
			Risk:            schema.RiskState{Level: schema.BreakerActive},
		})
	}
	return agents
}

func validateAgents(agents []AgentConfig) error {
	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if a.ID == "" {
			return errors.New("agent id is empty")
		}
		if _, ok := seen[a.ID]; ok {
			return errors.Errorf("duplicate agent id: %s", a.ID)
		}
		seen[a.ID] = struct{}{}
		if !a.Archetype.Valid() {
			return errors.Errorf("agent %s archetype invalid: %q", a.ID, a.Archetype)
		}
		if a.InitialBalance <= 0 {
			return errors.Errorf("agent %s initial balance must be > 0", a.ID)
		}
		if a.BasePositionPct <= 0 || a.BasePositionPct > 1 {
			return errors.Errorf("agent %s base position pct must be in (0,1]", a.ID)
		}
		if a.TradeInterval <= 0 {
			return errors.Errorf("agent %s trade interval must be > 0", a.ID)
		}
	}
	return nil
}

func resolveStrategies(cfgs []StrategyConfig) ([]strategy.Strategy, error) {
	if len(cfgs) == 0 {
		return DefaultStrategies(), nil
	}
	out := make([]strategy.Strategy, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Name == "" {
			return nil, errors.New("strategy name is empty")
		}
		if !cfg.Archetype.Valid() {
			return nil, errors.Errorf("strategy %s archetype invalid: %q", cfg.Name, cfg.Archetype)
		}
		if cfg.BaseTPPct <= 0 || cfg.BaseSLPct <= 0 {
			return nil, errors.Errorf("strategy %s base tp/sl must be > 0", cfg.Name)
		}
		suitability := make(map[schema.MarketState]float64, len(cfg.Suitability))
		for name, score := range cfg.Suitability {
			state := schema.MarketState(name)
			if !state.Valid() {
				return nil, errors.Errorf("strategy %s suitability state invalid: %q", cfg.Name, name)
			}
			if score < 0 || score > 100 {
				return nil, errors.Errorf("strategy %s suitability score out of range: %f", cfg.Name, score)
			}
			suitability[state] = score
		}
		out = append(out, strategy.Strategy{
			Name:        cfg.Name,
			Archetype:   cfg.Archetype,
			Suitability: suitability,
			BaseTPPct:   cfg.BaseTPPct,
			BaseSLPct:   cfg.BaseSLPct,
		})
	}
	return out, nil
}

func defaultBasePrices(symbols []string) map[string]float64 {
	known := map[string]float64{
		"BTCUSDT": 108000,
		"ETHUSDT": 3900,
		"SOLUSDT": 210,
		"BNBUSDT": 900,
	}
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if price, ok := known[s]; ok {
			out[s] = price
		} else {
			out[s] = 100
		}
	}
	return out
}
