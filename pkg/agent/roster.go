package agent

import (
	"math/rand"

	"github.com/parkercarrus/MarketSim/params"
	"github.com/parkercarrus/MarketSim/pkg/market"
)

// MakerIDBase keeps maker ids disjoint from trader ids by construction.
const MakerIDBase = 100000

// Default sizing parameters, shared by both methods.
const (
	defaultBetFraction = 0.01
	defaultMinBet      = 1.0
)

func sizerFor(method string) Sizer {
	if method == params.SizingKelly {
		return Kelly{Fraction: defaultBetFraction, MinBet: defaultMinBet}
	}
	return Fractional{Fraction: defaultBetFraction, MinBet: defaultMinBet}
}

// BuildRoster constructs the full agent population from config. Trader ids
// are dense from zero; the roster order is shuffled once here and then fixed
// for the whole run (evolution replaces in place). All randomness comes from
// the one shared generator, consumed in this construction order.
func BuildRoster(cfg params.Config, rng *rand.Rand) ([]market.Trader, []market.Quoter) {
	total := cfg.Monkeys.Count + cfg.MeanReverters.Count + cfg.MomentumTraders.Count
	traders := make([]market.Trader, 0, total)
	id := 0

	for i := 0; i < cfg.Monkeys.Count; i++ {
		traders = append(traders, NewMonkey(id, cfg.Monkeys.NoiseWeight, sizerFor(cfg.Monkeys.Sizing), rng))
		id++
	}

	for i := 0; i < cfg.MeanReverters.Count; i++ {
		short, long := drawWindows(rng, cfg.MeanReverters.MinShort, cfg.MeanReverters.MaxShort, cfg.MeanReverters.MinLong, cfg.MeanReverters.MaxLong)
		traders = append(traders, NewMeanReverter(id, short, long, sizerFor(cfg.MeanReverters.Sizing)))
		id++
	}

	for i := 0; i < cfg.MomentumTraders.Count; i++ {
		short, long := drawWindows(rng, cfg.MomentumTraders.MinShort, cfg.MomentumTraders.MaxShort, cfg.MomentumTraders.MinLong, cfg.MomentumTraders.MaxLong)
		traders = append(traders, NewMomentum(id, short, long, sizerFor(cfg.MomentumTraders.Sizing)))
		id++
	}

	rng.Shuffle(len(traders), func(i, j int) {
		traders[i], traders[j] = traders[j], traders[i]
	})

	makers := make([]market.Quoter, 0, cfg.MarketMakers.Count)
	for i := 0; i < cfg.MarketMakers.Count; i++ {
		makers = append(makers, NewMaker(MakerIDBase+i, cfg.MarketMakers.FundamentalPrice, cfg.MarketMakers.Spread, cfg.MarketMakers.QuoteSize))
	}

	return traders, makers
}

// drawWindows samples a short/long window pair uniformly from the configured
// ranges, swapping if the draw inverts them.
func drawWindows(rng *rand.Rand, minShort, maxShort, minLong, maxLong int) (short, long int) {
	short = minShort + rng.Intn(maxShort-minShort+1)
	long = minLong + rng.Intn(maxLong-minLong+1)
	if short > long {
		short, long = long, short
	}
	return short, long
}
