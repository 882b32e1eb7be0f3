package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parkercarrus/MarketSim/params"
)

// stubTrader is a scripted roster member: it emits its script one order per
// tick (holding once exhausted), tracks fills like a real ledger, and ranks
// at a fixed value.
type stubTrader struct {
	id       int
	kind     Kind
	value    float64
	cash     float64
	position float64
	script   []Order
}

func (s *stubTrader) ID() int        { return s.id }
func (s *stubTrader) Kind() Kind     { return s.kind }
func (s *stubTrader) Sizing() string { return "FixedFraction" }

func (s *stubTrader) Decide(marketPrice float64, top TopOfBook, history []Tick, timestep int) Order {
	if len(s.script) > 0 {
		o := s.script[0]
		s.script = s.script[1:]
		o.Owner = s.id
		o.Kind = s.kind
		return o
	}
	return Order{Side: Hold, Price: marketPrice, Owner: s.id, Kind: s.kind}
}

func (s *stubTrader) UpdatePosition(side Side, price, qty float64) {
	switch side {
	case Buy:
		s.cash -= price
		s.position += qty
	case Sell:
		s.cash += price
		s.position -= qty
	}
}

func (s *stubTrader) Value(marketPrice float64) float64 { return s.value }

func (s *stubTrader) Clone(id int) Trader {
	return &stubTrader{id: id, kind: s.kind, value: s.value}
}

func testConfig() params.Config {
	cfg := params.Default()
	cfg.Evolve = false
	return cfg
}

func newTestMarket(t *testing.T, cfg params.Config, traders []Trader) *Market {
	t.Helper()
	m, err := NewMarket(cfg, traders, nil, nil, nil)
	require.NoError(t, err)
	return m
}

func TestAggressiveOrderTradesAtRestingPrice(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Buy, Price: 100, Owner: 1, Kind: Monkey, Qty: 10})
	m.ProcessAggressive(Order{Side: Sell, Price: 99, Owner: 2, Kind: Monkey, Qty: 5})

	trades := m.RecentTrades(0)
	require.Len(t, trades, 1)
	require.Equal(t, 100.0, trades[0].Price) // resting side sets the price
	require.Equal(t, 5.0, trades[0].Qty)
	require.Equal(t, 1, trades[0].Buyer)
	require.Equal(t, 2, trades[0].Seller)

	// the remaining 5 stay at the bid
	bids, asks := m.Depth()
	require.Equal(t, []Level{{Price: 100, Qty: 5}}, bids)
	require.Empty(t, asks)

	require.Equal(t, 100.0, m.Price())
}

func TestHoldOrderIsNoOp(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Hold, Price: 100, Owner: 1, Kind: Monkey})
	m.ProcessAggressive(Order{Side: Buy, Price: 100, Owner: 1, Kind: Monkey, Qty: 0})

	require.Empty(t, m.RecentTrades(0))
	bids, asks := m.Depth()
	require.Empty(t, bids)
	require.Empty(t, asks)
}

func TestAggressiveRemainderRests(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Sell, Price: 100, Owner: 1, Kind: Monkey, Qty: 3})
	m.ProcessAggressive(Order{Side: Buy, Price: 101, Owner: 2, Kind: Monkey, Qty: 10})

	require.Len(t, m.RecentTrades(0), 1)

	bids, asks := m.Depth()
	require.Empty(t, asks)
	require.Equal(t, []Level{{Price: 101, Qty: 7}}, bids)
}

func TestSelfTradeDiscardsRestingOrder(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Buy, Price: 100, Owner: 1, Kind: Monkey, Qty: 10})
	m.ProcessAggressive(Order{Side: Sell, Price: 99, Owner: 1, Kind: Monkey, Qty: 5})

	require.Empty(t, m.RecentTrades(0))

	// the resting bid was discarded and the incoming sell rested
	bids, asks := m.Depth()
	require.Empty(t, bids)
	require.Equal(t, []Level{{Price: 99, Qty: 5}}, asks)
}

func TestPartialFillKeepsTimePriority(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Sell, Price: 100, Owner: 1, Kind: Monkey, Qty: 5})
	m.ProcessAggressive(Order{Side: Sell, Price: 100, Owner: 2, Kind: Monkey, Qty: 5})

	m.ProcessAggressive(Order{Side: Buy, Price: 101, Owner: 3, Kind: Monkey, Qty: 3})
	m.ProcessAggressive(Order{Side: Buy, Price: 101, Owner: 4, Kind: Monkey, Qty: 4})

	trades := m.RecentTrades(0)
	require.Len(t, trades, 3)
	// owner 1 keeps the front of the level after a partial fill
	require.Equal(t, 1, trades[0].Seller)
	require.Equal(t, 3.0, trades[0].Qty)
	require.Equal(t, 1, trades[1].Seller)
	require.Equal(t, 2.0, trades[1].Qty)
	require.Equal(t, 2, trades[2].Seller)
	require.Equal(t, 2.0, trades[2].Qty)
}

func TestStaleOrderDiscardedNotMatched(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOrderAge = 1
	m := newTestMarket(t, cfg, nil)

	// rests at timestep 0
	m.ProcessAggressive(Order{Side: Sell, Price: 100, Owner: 1, Origin: 0, Kind: Monkey, Qty: 5})

	m.Tick()
	m.Tick()
	require.Equal(t, 2, m.Timestep())

	m.ProcessAggressive(Order{Side: Buy, Price: 101, Owner: 2, Origin: 2, Kind: Monkey, Qty: 5})

	require.Empty(t, m.RecentTrades(0))
	bids, asks := m.Depth()
	require.Empty(t, asks)
	require.Equal(t, []Level{{Price: 101, Qty: 5}}, bids)
}

func TestLedgerUpdatesOnFill(t *testing.T) {
	buyer := &stubTrader{id: 1, kind: Monkey, cash: 100000, position: 10}
	seller := &stubTrader{id: 2, kind: Monkey, cash: 100000, position: 10}
	m := newTestMarket(t, testConfig(), []Trader{buyer, seller})

	m.ProcessAggressive(Order{Side: Buy, Price: 100, Owner: 1, Kind: Monkey, Qty: 10})
	m.ProcessAggressive(Order{Side: Sell, Price: 99, Owner: 2, Kind: Monkey, Qty: 5})

	// one unit of notional per fill, qty shares of position
	require.Equal(t, 99900.0, buyer.cash)
	require.Equal(t, 15.0, buyer.position)
	require.Equal(t, 100100.0, seller.cash)
	require.Equal(t, 5.0, seller.position)
}

func TestTickSnapshotQuietMarket(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	tick := m.Tick()
	require.Equal(t, 1, tick.Timestep)
	require.Equal(t, 0.0, tick.Volume)
	require.Equal(t, 100.0, tick.LastPrice)
	require.Equal(t, 100.0, tick.VWAP) // no volume: vwap falls back to market price
	require.Equal(t, 0.0, tick.MidPrice)
}

func TestTickSnapshotMidPrice(t *testing.T) {
	m := newTestMarket(t, testConfig(), nil)

	m.ProcessAggressive(Order{Side: Buy, Price: 99, Owner: 1, Kind: Monkey, Qty: 5})
	m.ProcessAggressive(Order{Side: Sell, Price: 101, Owner: 2, Kind: Monkey, Qty: 5})

	tick := m.Tick()
	require.Equal(t, 100.0, tick.MidPrice)
}

func TestVolumeKeyedByAggressorKind(t *testing.T) {
	// roster order: the sell rests first, the buy from the momentum trader
	// crosses it within the same tick, so the aggressor sets the volume key
	maker := &stubTrader{id: 1, kind: Monkey, script: []Order{
		{Side: Sell, Price: 100, Qty: 5},
	}}
	taker := &stubTrader{id: 2, kind: MomentumTrader, script: []Order{
		{Side: Buy, Price: 101, Qty: 5},
	}}
	m := newTestMarket(t, testConfig(), []Trader{maker, taker})

	tick := m.Tick()
	require.Equal(t, 5.0, tick.KindVolume[MomentumTrader])
	require.Equal(t, 0.0, tick.KindVolume[Monkey])
	require.Equal(t, 5.0, tick.Volume)
	require.Equal(t, 100.0, tick.VWAP)
}

func TestHistoryCapBoundsSnapshots(t *testing.T) {
	cfg := testConfig()
	cfg.HistoryCap = 5
	m := newTestMarket(t, cfg, nil)

	for i := 0; i < 10; i++ {
		m.Tick()
	}

	hist := m.History(0)
	require.Len(t, hist, 5)
	require.Equal(t, 6, hist[0].Timestep)
	require.Equal(t, 10, hist[4].Timestep)
}

// stubQuoter posts a fixed two-sided quote around the current price.
type stubQuoter struct {
	id     int
	spread float64
	size   float64
}

func (q *stubQuoter) ID() int { return q.id }

func (q *stubQuoter) Quote(marketPrice float64) (bid, ask Order) {
	bid = Order{Side: Buy, Price: marketPrice - q.spread/2, Owner: q.id, Kind: MarketMaker, Qty: q.size}
	ask = Order{Side: Sell, Price: marketPrice + q.spread/2, Owner: q.id, Kind: MarketMaker, Qty: q.size}
	return bid, ask
}

func TestMakersRequoteFreshEveryTick(t *testing.T) {
	cfg := testConfig()
	m, err := NewMarket(cfg, nil, []Quoter{&stubQuoter{id: 100000, spread: 0.5, size: 10}}, nil, nil)
	require.NoError(t, err)

	m.Tick()
	m.Tick()
	m.Tick()

	// quotes are purged and replaced, never accumulated
	bids, asks := m.Depth()
	require.Equal(t, []Level{{Price: 99.75, Qty: 10}}, bids)
	require.Equal(t, []Level{{Price: 100.25, Qty: 10}}, asks)
}

func TestMakerQuotesNeverGoStale(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOrderAge = 1
	m, err := NewMarket(cfg, nil, []Quoter{&stubQuoter{id: 100000, spread: 0.5, size: 10}}, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		m.Tick()
	}

	// origin is stamped at submission, so a fresh quote always matches
	m.ProcessAggressive(Order{Side: Buy, Price: 101, Owner: 1, Kind: Monkey, Qty: 5})
	trades := m.RecentTrades(0)
	require.Len(t, trades, 1)
	require.Equal(t, 100.25, trades[0].Price)
}

func TestNewMarketRejectsDuplicateIDs(t *testing.T) {
	dup := []Trader{
		&stubTrader{id: 1, kind: Monkey},
		&stubTrader{id: 1, kind: MeanReverter},
	}
	_, err := NewMarket(testConfig(), dup, nil, nil, nil)
	require.Error(t, err)
}

func TestNewMarketRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.InitialPrice = -1
	_, err := NewMarket(cfg, nil, nil, nil, nil)
	require.Error(t, err)
}
