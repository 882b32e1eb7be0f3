package agent

import "github.com/parkercarrus/MarketSim/pkg/market"

// Maker quotes both sides around fair value every tick, offset by half its
// spread at a fixed size. Fair value tracks the current market price, so the
// configured fundamental only anchors the very first quotes. Makers carry no
// ledger: they are pure liquidity and are exempt from evolution.
type Maker struct {
	id          int
	fundamental float64
	spread      float64
	size        float64
}

func NewMaker(id int, fundamental, spread, size float64) *Maker {
	return &Maker{id: id, fundamental: fundamental, spread: spread, size: size}
}

func (m *Maker) ID() int { return m.id }

// Quote returns the tick's two-sided quote. Origin is stamped by the engine
// at submission.
func (m *Maker) Quote(marketPrice float64) (bid, ask market.Order) {
	fair := marketPrice
	if fair <= 0 {
		fair = m.fundamental
	}

	bid = market.Order{
		Side:  market.Buy,
		Price: fair - m.spread/2,
		Owner: m.id,
		Kind:  market.MarketMaker,
		Qty:   m.size,
	}
	ask = market.Order{
		Side:  market.Sell,
		Price: fair + m.spread/2,
		Owner: m.id,
		Kind:  market.MarketMaker,
		Qty:   m.size,
	}
	return bid, ask
}
