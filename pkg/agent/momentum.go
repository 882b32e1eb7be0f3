package agent

import "github.com/parkercarrus/MarketSim/pkg/market"

// priceImprove is the offset a signal trader adds to cross the spread.
const priceImprove = 0.01

// Momentum follows the trend: when the short moving average of vwap pulls
// above the long one it lifts the ask, and sells into the bid on the inverse.
type Momentum struct {
	id          int
	shortWindow int
	longWindow  int
	ledger      Ledger
	sizer       Sizer
}

func NewMomentum(id, shortWindow, longWindow int, sizer Sizer) *Momentum {
	return &Momentum{
		id:          id,
		shortWindow: shortWindow,
		longWindow:  longWindow,
		ledger:      NewLedger(),
		sizer:       sizer,
	}
}

func (m *Momentum) ID() int           { return m.id }
func (m *Momentum) Kind() market.Kind { return market.MomentumTrader }
func (m *Momentum) Sizing() string    { return m.sizer.Method() }

func (m *Momentum) Decide(marketPrice float64, top market.TopOfBook, history []market.Tick, timestep int) market.Order {
	if len(history) < m.longWindow || len(history) < m.shortWindow {
		return hold(m.id, market.MomentumTrader, marketPrice, timestep)
	}

	vwaps := vwapHistory(history)
	shortMA := movingAverage(vwaps, m.shortWindow)
	longMA := movingAverage(vwaps, m.longWindow)

	const confidence = 1.0
	qty := m.sizer.Size(marketPrice, longMA, confidence, m.ledger.Value(marketPrice))
	if qty <= 0 {
		return hold(m.id, market.MomentumTrader, marketPrice, timestep)
	}

	if shortMA > longMA && top.HasAsk {
		if m.ledger.Cash >= top.Ask*qty {
			return market.Order{
				Side:   market.Buy,
				Price:  top.Ask + priceImprove,
				Owner:  m.id,
				Origin: timestep,
				Kind:   market.MomentumTrader,
				Qty:    qty,
			}
		}
	} else if shortMA < longMA && top.HasBid {
		if m.ledger.Position >= qty {
			return market.Order{
				Side:   market.Sell,
				Price:  top.Bid - priceImprove,
				Owner:  m.id,
				Origin: timestep,
				Kind:   market.MomentumTrader,
				Qty:    qty,
			}
		}
	}

	return hold(m.id, market.MomentumTrader, marketPrice, timestep)
}

func (m *Momentum) UpdatePosition(side market.Side, price, qty float64) {
	m.ledger.UpdatePosition(side, price, qty)
}

func (m *Momentum) Value(marketPrice float64) float64 {
	return m.ledger.Value(marketPrice)
}

func (m *Momentum) Clone(id int) market.Trader {
	return NewMomentum(id, m.shortWindow, m.longWindow, m.sizer)
}
