package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	body := `{
		"seed": 42,
		"evolution_ticks": 500,
		"kill_percentage": 0.3,
		"monkeys": {"num_monkeys": 10, "noise_weight": 0.05},
		"market_makers": {"num_mmakers": 1, "fundamental_price": 50, "spread": 1.0, "quote_size": 5}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, int64(42), cfg.Seed)
	require.Equal(t, 500, cfg.EvolutionTicks)
	require.Equal(t, 0.3, cfg.KillFraction)
	require.Equal(t, 10, cfg.Monkeys.Count)
	require.Equal(t, 0.05, cfg.Monkeys.NoiseWeight)
	require.Equal(t, 1, cfg.MarketMakers.Count)

	// untouched sections keep their defaults
	require.Equal(t, 30, cfg.MeanReverters.Count)
	require.Equal(t, 100.0, cfg.InitialPrice)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("SIM_SEED", "99")
	t.Setenv("SIM_EVOLVE", "false")
	t.Setenv("SIM_KILL_FRACTION", "0.4")
	t.Setenv("SIM_MAX_ORDER_AGE", "25")

	cfg := LoadFromEnv(Default(), "")
	require.Equal(t, int64(99), cfg.Seed)
	require.False(t, cfg.Evolve)
	require.Equal(t, 0.4, cfg.KillFraction)
	require.Equal(t, 25, cfg.MaxOrderAge)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non-positive initial price", func(c *Config) { c.InitialPrice = 0 }},
		{"negative cohort count", func(c *Config) { c.Monkeys.Count = -1 }},
		{"no traders at all", func(c *Config) {
			c.Monkeys.Count = 0
			c.MeanReverters.Count = 0
			c.MomentumTraders.Count = 0
		}},
		{"negative noise weight", func(c *Config) { c.Monkeys.NoiseWeight = -0.1 }},
		{"inverted short window", func(c *Config) {
			c.MeanReverters.MinShort = 60
			c.MeanReverters.MaxShort = 50
		}},
		{"inverted long window", func(c *Config) {
			c.MomentumTraders.MinLong = 600
			c.MomentumTraders.MaxLong = 500
		}},
		{"zero maker spread", func(c *Config) { c.MarketMakers.Spread = 0 }},
		{"zero quote size", func(c *Config) { c.MarketMakers.QuoteSize = 0 }},
		{"kill fraction of one", func(c *Config) { c.KillFraction = 1.0 }},
		{"negative kill fraction", func(c *Config) { c.KillFraction = -0.1 }},
		{"zero evolution period", func(c *Config) { c.EvolutionTicks = 0 }},
		{"zero write cadence", func(c *Config) { c.WriteEvery = 0 }},
		{"zero max order age", func(c *Config) { c.MaxOrderAge = 0 }},
		{"zero history cap", func(c *Config) { c.HistoryCap = 0 }},
		{"unknown sizing method", func(c *Config) { c.Monkeys.Sizing = "martingale" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsSizingMethods(t *testing.T) {
	cfg := Default()
	cfg.Monkeys.Sizing = SizingFractional
	cfg.MomentumTraders.Sizing = SizingKelly
	require.NoError(t, cfg.Validate())
}

func TestValidateSkipsEmptyCohorts(t *testing.T) {
	cfg := Default()
	cfg.MeanReverters = MeanReverters{Count: 0}
	cfg.MarketMakers = MarketMakers{Count: 0}
	require.NoError(t, cfg.Validate())
}
