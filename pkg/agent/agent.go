// Package agent implements the closed set of market participants: three
// evolving trader kinds (Monkey, MeanReverter, MomentumTrader) and the
// exempt MarketMaker, plus the bet-sizing strategies they own.
package agent

import "github.com/parkercarrus/MarketSim/pkg/market"

// hold builds the no-op order a trader returns when its constraints
// (insufficient cash or position) rule out a real one.
func hold(id int, kind market.Kind, marketPrice float64, timestep int) market.Order {
	return market.Order{
		Side:   market.Hold,
		Price:  marketPrice,
		Owner:  id,
		Origin: timestep,
		Kind:   kind,
	}
}

// vwapHistory projects the tick history onto its vwap series.
func vwapHistory(history []market.Tick) []float64 {
	out := make([]float64, len(history))
	for i, t := range history {
		out[i] = t.VWAP
	}
	return out
}

// movingAverage averages the last window entries (fewer when the series is
// shorter). Callers guarantee the series is non-empty.
func movingAverage(series []float64, window int) float64 {
	n := len(series)
	start := n - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range series[start:] {
		sum += v
	}
	return sum / float64(n-start)
}
