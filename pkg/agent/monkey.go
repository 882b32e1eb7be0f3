package agent

import (
	"math/rand"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

// Monkey trades noise: a coin flip between buy and sell at a price jittered
// around the market, one share at a time.
type Monkey struct {
	id          int
	noiseWeight float64
	ledger      Ledger
	sizer       Sizer
	rng         *rand.Rand
}

// NewMonkey shares the simulation's seeded generator; draws happen in roster
// order so runs stay reproducible.
func NewMonkey(id int, noiseWeight float64, sizer Sizer, rng *rand.Rand) *Monkey {
	return &Monkey{
		id:          id,
		noiseWeight: noiseWeight,
		ledger:      NewLedger(),
		sizer:       sizer,
		rng:         rng,
	}
}

func (m *Monkey) ID() int           { return m.id }
func (m *Monkey) Kind() market.Kind { return market.Monkey }
func (m *Monkey) Sizing() string    { return m.sizer.Method() }

func (m *Monkey) Decide(marketPrice float64, top market.TopOfBook, history []market.Tick, timestep int) market.Order {
	side := market.Buy
	if m.rng.Float64() < 0.5 {
		side = market.Sell
	}
	price := marketPrice + m.noiseWeight*marketPrice*m.rng.NormFloat64()

	const qty = 1.0

	if side == market.Buy && m.ledger.Cash < price*qty {
		return hold(m.id, market.Monkey, marketPrice, timestep)
	}
	if side == market.Sell && m.ledger.Position < qty {
		return hold(m.id, market.Monkey, marketPrice, timestep)
	}

	return market.Order{
		Side:   side,
		Price:  price,
		Owner:  m.id,
		Origin: timestep,
		Kind:   market.Monkey,
		Qty:    qty,
	}
}

func (m *Monkey) UpdatePosition(side market.Side, price, qty float64) {
	m.ledger.UpdatePosition(side, price, qty)
}

func (m *Monkey) Value(marketPrice float64) float64 {
	return m.ledger.Value(marketPrice)
}

// Clone keeps the noise weight and sizer, takes over the given id, and
// starts from a fresh ledger.
func (m *Monkey) Clone(id int) market.Trader {
	return NewMonkey(id, m.noiseWeight, m.sizer, m.rng)
}
