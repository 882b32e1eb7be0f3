package params

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Sizing method names accepted by the per-cohort "sizing" key.
const (
	SizingFractional = "fractional"
	SizingKelly      = "kelly"
)

// Monkeys configures the noise-trader cohort.
type Monkeys struct {
	Count       int     `json:"num_monkeys"`
	NoiseWeight float64 `json:"noise_weight"`
	Sizing      string  `json:"sizing"`
}

// MeanReverters configures the mean-reversion cohort. Each trader draws its
// short/long moving-average windows uniformly from [MinShort,MaxShort] and
// [MinLong,MaxLong] at construction time.
type MeanReverters struct {
	Count    int    `json:"num_mreverters"`
	MinShort int    `json:"min_short"`
	MaxShort int    `json:"max_short"`
	MinLong  int    `json:"min_long"`
	MaxLong  int    `json:"max_long"`
	Sizing   string `json:"sizing"`
}

// MomentumTraders configures the trend-following cohort.
type MomentumTraders struct {
	Count    int    `json:"num_momtraders"`
	MinShort int    `json:"min_short"`
	MaxShort int    `json:"max_short"`
	MinLong  int    `json:"min_long"`
	MaxLong  int    `json:"max_long"`
	Sizing   string `json:"sizing"`
}

// MarketMakers configures the quoting cohort. Makers quote a two-sided market
// around fair value every tick, offset by half the spread.
type MarketMakers struct {
	Count            int     `json:"num_mmakers"`
	FundamentalPrice float64 `json:"fundamental_price"`
	Spread           float64 `json:"spread"`
	QuoteSize        float64 `json:"quote_size"`
}

// Config holds every knob used at market construction time. Loaded from a
// JSON params file, then optionally overridden from the environment.
type Config struct {
	InitialPrice   float64 `json:"initial_price"`
	Evolve         bool    `json:"evolve"`
	EvolutionTicks int     `json:"evolution_ticks"`
	KillFraction   float64 `json:"kill_percentage"`
	WriteEvery     int     `json:"write_every"`
	MaxOrderAge    int     `json:"max_order_age"`
	Seed           int64   `json:"seed"`

	// HistoryCap bounds the in-memory tick history on long live runs.
	// Persistent sinks keep the full stream.
	HistoryCap int `json:"history_cap"`

	Monkeys         Monkeys         `json:"monkeys"`
	MeanReverters   MeanReverters   `json:"mean_reverters"`
	MomentumTraders MomentumTraders `json:"momentum_traders"`
	MarketMakers    MarketMakers    `json:"market_makers"`
}

// Default returns a runnable configuration mirroring the stock params file.
func Default() Config {
	return Config{
		InitialPrice:   100.0,
		Evolve:         true,
		EvolutionTicks: 1000,
		KillFraction:   0.2,
		WriteEvery:     10,
		MaxOrderAge:    50,
		Seed:           1,
		HistoryCap:     10000,
		Monkeys: Monkeys{
			Count:       40,
			NoiseWeight: 0.01,
		},
		MeanReverters: MeanReverters{
			Count:    30,
			MinShort: 5,
			MaxShort: 50,
			MinLong:  100,
			MaxLong:  500,
		},
		MomentumTraders: MomentumTraders{
			Count:    30,
			MinShort: 5,
			MaxShort: 50,
			MinLong:  100,
			MaxLong:  500,
		},
		MarketMakers: MarketMakers{
			Count:            2,
			FundamentalPrice: 100.0,
			Spread:           0.5,
			QuoteSize:        10.0,
		},
	}
}

// Load reads a JSON params file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read params file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse params file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv applies .env file (if present) and environment overrides.
// Priority: ENV > .env file > cfg.
func LoadFromEnv(cfg Config, envPath string) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("SIM_EVOLVE"); v != "" {
		cfg.Evolve = v == "true"
	}
	if v := os.Getenv("SIM_EVOLUTION_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EvolutionTicks = n
		}
	}
	if v := os.Getenv("SIM_KILL_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.KillFraction = f
		}
	}
	if v := os.Getenv("SIM_MAX_ORDER_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxOrderAge = n
		}
	}
	if v := os.Getenv("SIM_WRITE_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WriteEvery = n
		}
	}

	return cfg
}

// Validate rejects configurations the simulation cannot start from.
// Any error here is fatal before the first tick.
func (c Config) Validate() error {
	if c.InitialPrice <= 0 {
		return fmt.Errorf("initial_price must be positive, got %v", c.InitialPrice)
	}
	if c.Monkeys.Count < 0 || c.MeanReverters.Count < 0 || c.MomentumTraders.Count < 0 || c.MarketMakers.Count < 0 {
		return fmt.Errorf("population counts must be non-negative")
	}
	if c.Monkeys.Count+c.MeanReverters.Count+c.MomentumTraders.Count == 0 {
		return fmt.Errorf("at least one trader is required")
	}
	if c.Monkeys.Count > 0 && c.Monkeys.NoiseWeight < 0 {
		return fmt.Errorf("monkeys.noise_weight must be non-negative, got %v", c.Monkeys.NoiseWeight)
	}
	if c.MeanReverters.Count > 0 {
		if err := validateWindows("mean_reverters", c.MeanReverters.MinShort, c.MeanReverters.MaxShort, c.MeanReverters.MinLong, c.MeanReverters.MaxLong); err != nil {
			return err
		}
	}
	if c.MomentumTraders.Count > 0 {
		if err := validateWindows("momentum_traders", c.MomentumTraders.MinShort, c.MomentumTraders.MaxShort, c.MomentumTraders.MinLong, c.MomentumTraders.MaxLong); err != nil {
			return err
		}
	}
	if c.MarketMakers.Count > 0 {
		if c.MarketMakers.Spread <= 0 {
			return fmt.Errorf("market_makers.spread must be positive, got %v", c.MarketMakers.Spread)
		}
		if c.MarketMakers.QuoteSize <= 0 {
			return fmt.Errorf("market_makers.quote_size must be positive, got %v", c.MarketMakers.QuoteSize)
		}
		if c.MarketMakers.FundamentalPrice <= 0 {
			return fmt.Errorf("market_makers.fundamental_price must be positive, got %v", c.MarketMakers.FundamentalPrice)
		}
	}
	if c.Evolve {
		if c.EvolutionTicks <= 0 {
			return fmt.Errorf("evolution_ticks must be positive when evolve is set, got %d", c.EvolutionTicks)
		}
		if c.KillFraction < 0 || c.KillFraction >= 1 {
			return fmt.Errorf("kill_percentage must be in [0,1), got %v", c.KillFraction)
		}
	}
	if c.WriteEvery <= 0 {
		return fmt.Errorf("write_every must be positive, got %d", c.WriteEvery)
	}
	if c.MaxOrderAge <= 0 {
		return fmt.Errorf("max_order_age must be positive, got %d", c.MaxOrderAge)
	}
	if c.HistoryCap <= 0 {
		return fmt.Errorf("history_cap must be positive, got %d", c.HistoryCap)
	}
	for section, sizing := range map[string]string{
		"monkeys":          c.Monkeys.Sizing,
		"mean_reverters":   c.MeanReverters.Sizing,
		"momentum_traders": c.MomentumTraders.Sizing,
	} {
		switch sizing {
		case "", SizingFractional, SizingKelly:
		default:
			return fmt.Errorf("%s.sizing must be %q or %q, got %q", section, SizingFractional, SizingKelly, sizing)
		}
	}
	return nil
}

func validateWindows(section string, minShort, maxShort, minLong, maxLong int) error {
	if minShort <= 0 || minLong <= 0 {
		return fmt.Errorf("%s window bounds must be positive", section)
	}
	if minShort > maxShort {
		return fmt.Errorf("%s: min_short %d exceeds max_short %d", section, minShort, maxShort)
	}
	if minLong > maxLong {
		return fmt.Errorf("%s: min_long %d exceeds max_long %d", section, minLong, maxLong)
	}
	return nil
}
