package agent

import "github.com/parkercarrus/MarketSim/pkg/market"

// MeanReverter bets against the trend: when the short moving average of vwap
// sits below the long one it expects a reversion upward and buys, and sells
// on the inverse. Mirror image of Momentum over the same window pair.
type MeanReverter struct {
	id          int
	shortWindow int
	longWindow  int
	ledger      Ledger
	sizer       Sizer
}

func NewMeanReverter(id, shortWindow, longWindow int, sizer Sizer) *MeanReverter {
	return &MeanReverter{
		id:          id,
		shortWindow: shortWindow,
		longWindow:  longWindow,
		ledger:      NewLedger(),
		sizer:       sizer,
	}
}

func (m *MeanReverter) ID() int           { return m.id }
func (m *MeanReverter) Kind() market.Kind { return market.MeanReverter }
func (m *MeanReverter) Sizing() string    { return m.sizer.Method() }

func (m *MeanReverter) Decide(marketPrice float64, top market.TopOfBook, history []market.Tick, timestep int) market.Order {
	if len(history) < m.longWindow || len(history) < m.shortWindow {
		return hold(m.id, market.MeanReverter, marketPrice, timestep)
	}

	vwaps := vwapHistory(history)
	shortMA := movingAverage(vwaps, m.shortWindow)
	longMA := movingAverage(vwaps, m.longWindow)

	const confidence = 1.0
	qty := m.sizer.Size(marketPrice, longMA, confidence, m.ledger.Value(marketPrice))
	if qty <= 0 {
		return hold(m.id, market.MeanReverter, marketPrice, timestep)
	}

	if shortMA < longMA && top.HasAsk {
		if m.ledger.Cash >= top.Ask*qty {
			return market.Order{
				Side:   market.Buy,
				Price:  top.Ask + priceImprove,
				Owner:  m.id,
				Origin: timestep,
				Kind:   market.MeanReverter,
				Qty:    qty,
			}
		}
	} else if shortMA > longMA && top.HasBid {
		if m.ledger.Position >= qty {
			return market.Order{
				Side:   market.Sell,
				Price:  top.Bid - priceImprove,
				Owner:  m.id,
				Origin: timestep,
				Kind:   market.MeanReverter,
				Qty:    qty,
			}
		}
	}

	return hold(m.id, market.MeanReverter, marketPrice, timestep)
}

func (m *MeanReverter) UpdatePosition(side market.Side, price, qty float64) {
	m.ledger.UpdatePosition(side, price, qty)
}

func (m *MeanReverter) Value(marketPrice float64) float64 {
	return m.ledger.Value(marketPrice)
}

func (m *MeanReverter) Clone(id int) market.Trader {
	return NewMeanReverter(id, m.shortWindow, m.longWindow, m.sizer)
}
