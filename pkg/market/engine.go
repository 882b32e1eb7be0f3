package market

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/parkercarrus/MarketSim/params"
)

// Market owns the order book, the agent roster, the ledgers behind it and the
// tick/trade history. The core is single-threaded: one Tick call drives one
// full simulation step with no concurrent mutation. The mutex only fences the
// read-side snapshot accessors used by the live API against the tick loop.
type Market struct {
	mu  sync.RWMutex
	cfg params.Config
	log *zap.SugaredLogger

	book *Book

	// The roster slice is the single owner of all trader agents; slot is an
	// id-keyed view into it. Evolution replaces in place, so roster positions,
	// size and the id set are stable for the whole run.
	traders []Trader
	slot    map[int]int
	makers  []Quoter

	recorder Recorder

	timestep int
	price    float64

	// per-tick volume accumulators
	kindVolume  KindVolumes
	totalVolume float64
	priceVolume float64

	history  []Tick
	trades   []Trade
	censuses []Census
}

// NewMarket wires a market from an already-built roster. Trader and maker ids
// must be unique across both groups; duplicates are a construction error.
func NewMarket(cfg params.Config, traders []Trader, makers []Quoter, rec Recorder, log *zap.SugaredLogger) (*Market, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	slot := make(map[int]int, len(traders))
	for i, t := range traders {
		if _, dup := slot[t.ID()]; dup {
			return nil, fmt.Errorf("duplicate trader id %d", t.ID())
		}
		slot[t.ID()] = i
	}
	seen := make(map[int]struct{}, len(makers))
	for _, mk := range makers {
		if _, dup := slot[mk.ID()]; dup {
			return nil, fmt.Errorf("maker id %d collides with a trader id", mk.ID())
		}
		if _, dup := seen[mk.ID()]; dup {
			return nil, fmt.Errorf("duplicate maker id %d", mk.ID())
		}
		seen[mk.ID()] = struct{}{}
	}

	return &Market{
		cfg:      cfg,
		log:      log,
		book:     NewBook(),
		traders:  traders,
		slot:     slot,
		makers:   makers,
		recorder: rec,
		price:    cfg.InitialPrice,
	}, nil
}

// Tick runs one full simulation step and returns its snapshot:
// clear maker quotes, solicit makers then traders in fixed roster order,
// advance time, evolve if due, then record the tick.
func (m *Market) Tick() Tick {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kindVolume = KindVolumes{}
	m.totalVolume = 0
	m.priceVolume = 0

	// Makers re-quote fresh every tick; stale quotes never rest across ticks.
	m.book.Purge(func(o *Order) bool { return o.Kind != MarketMaker })

	for _, mk := range m.makers {
		bid, ask := mk.Quote(m.price)
		bid.Origin = m.timestep
		ask.Origin = m.timestep
		m.processAggressive(bid)
		m.processAggressive(ask)
	}

	for _, tr := range m.traders {
		order := tr.Decide(m.price, m.book.Top(), m.history, m.timestep)
		order.Origin = m.timestep
		m.processAggressive(order)
	}

	m.timestep++

	if m.cfg.Evolve {
		m.evolve()
	}

	tick := m.snapshot()
	m.history = append(m.history, tick)
	if n := len(m.history); n > m.cfg.HistoryCap {
		m.history = append(m.history[:0:0], m.history[n-m.cfg.HistoryCap:]...)
	}
	m.recorder.RecordTick(tick)

	return tick
}

// ProcessAggressive crosses one incoming order against the book under
// price-time priority and rests any unfilled remainder. Hold orders are a
// no-op. Exposed for the engine tests; the tick loop is the only live caller.
func (m *Market) ProcessAggressive(o Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processAggressive(o)
}

func (m *Market) processAggressive(o Order) {
	if o.Side == Hold || o.Qty <= 0 {
		return
	}

	rem := o

	if o.Side == Buy {
		for rem.Qty > 0 {
			askPrice, ok := m.book.BestAsk()
			if !ok || askPrice > rem.Price {
				break
			}
			maker := m.book.PeekBest(Sell)
			if maker.Owner == rem.Owner {
				m.book.PopBest(Sell)
				m.log.Debugw("self_trade_discard", "owner", maker.Owner, "price", maker.Price)
				continue
			}
			if m.timestep-maker.Origin > m.cfg.MaxOrderAge {
				m.book.PopBest(Sell)
				m.log.Debugw("stale_order_discard", "owner", maker.Owner, "origin", maker.Origin)
				continue
			}

			qty := math.Min(rem.Qty, maker.Qty)
			m.applyTrade(Trade{
				Price:      maker.Price, // maker pricing: the resting side sets the price
				Qty:        qty,
				Buyer:      rem.Owner,
				Seller:     maker.Owner,
				Timestep:   m.timestep,
				BuyerKind:  rem.Kind,
				SellerKind: maker.Kind,
			}, rem.Kind)

			rem.Qty -= qty
			maker.Qty -= qty
			if maker.Qty <= 0 {
				m.book.PopBest(Sell)
			}
			// A partially filled maker keeps its place at the front of the level.
		}
	} else { // Sell
		for rem.Qty > 0 {
			bidPrice, ok := m.book.BestBid()
			if !ok || bidPrice < rem.Price {
				break
			}
			maker := m.book.PeekBest(Buy)
			if maker.Owner == rem.Owner {
				m.book.PopBest(Buy)
				m.log.Debugw("self_trade_discard", "owner", maker.Owner, "price", maker.Price)
				continue
			}
			if m.timestep-maker.Origin > m.cfg.MaxOrderAge {
				m.book.PopBest(Buy)
				m.log.Debugw("stale_order_discard", "owner", maker.Owner, "origin", maker.Origin)
				continue
			}

			qty := math.Min(rem.Qty, maker.Qty)
			m.applyTrade(Trade{
				Price:      maker.Price,
				Qty:        qty,
				Buyer:      maker.Owner,
				Seller:     rem.Owner,
				Timestep:   m.timestep,
				BuyerKind:  maker.Kind,
				SellerKind: rem.Kind,
			}, rem.Kind)

			rem.Qty -= qty
			maker.Qty -= qty
			if maker.Qty <= 0 {
				m.book.PopBest(Buy)
			}
		}
	}

	if rem.Qty > 0 {
		m.book.Rest(&rem)
	}
}

// applyTrade updates volume accumulators, both counterparties' ledgers, the
// last-trade price, the recent-trade window and the recorder stream.
func (m *Market) applyTrade(t Trade, aggressor Kind) {
	m.kindVolume[aggressor] += t.Qty
	m.totalVolume += t.Qty
	m.priceVolume += t.Price * t.Qty

	m.updateLedger(t.Buyer, Buy, t.Price, t.Qty)
	m.updateLedger(t.Seller, Sell, t.Price, t.Qty)

	m.price = t.Price

	m.trades = append(m.trades, t)
	if n := len(m.trades); n > m.cfg.HistoryCap {
		m.trades = append(m.trades[:0:0], m.trades[n-m.cfg.HistoryCap:]...)
	}
	m.recorder.RecordTrade(t)
}

// updateLedger routes a fill to the owning trader. Maker ids (and only maker
// ids, given the book invariants) miss the roster: a miss is a no-op, not an
// error.
func (m *Market) updateLedger(id int, side Side, price, qty float64) {
	i, ok := m.slot[id]
	if !ok {
		return
	}
	m.traders[i].UpdatePosition(side, price, qty)
}

// snapshot builds the tick record from this tick's accumulators and the book
// state after all matching. Mid price is 0 when either side is empty.
func (m *Market) snapshot() Tick {
	vwap := m.price
	if m.totalVolume > 0 {
		vwap = m.priceVolume / m.totalVolume
	}

	var mid float64
	bid, hasBid := m.book.BestBid()
	ask, hasAsk := m.book.BestAsk()
	if hasBid && hasAsk {
		mid = (bid + ask) / 2
	}

	return Tick{
		LastPrice:  m.price,
		Volume:     m.totalVolume,
		VWAP:       vwap,
		MidPrice:   mid,
		Timestep:   m.timestep,
		KindVolume: m.kindVolume,
	}
}

// ==============================
// Read-side snapshot accessors
// ==============================

func (m *Market) Timestep() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timestep
}

func (m *Market) Price() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.price
}

func (m *Market) Top() TopOfBook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.Top()
}

// Depth returns aggregated bid and ask levels, best-first on both sides.
func (m *Market) Depth() (bids, asks []Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.book.BidLevels(), m.book.AskLevels()
}

// History returns up to limit most recent tick snapshots (all when limit<=0).
func (m *Market) History(limit int) []Tick {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tailCopy(m.history, limit)
}

// RecentTrades returns up to limit most recent trades (all retained when limit<=0).
func (m *Market) RecentTrades(limit int) []Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tailCopy(m.trades, limit)
}

// Censuses returns the evolution-event census history.
func (m *Market) Censuses() []Census {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tailCopy(m.censuses, 0)
}

// Population counts the current roster by type.
func (m *Market) Population() Census {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.census()
}

func (m *Market) census() Census {
	c := Census{Timestep: m.timestep, MarketMakers: len(m.makers)}
	for _, t := range m.traders {
		switch t.Kind() {
		case Monkey:
			c.Monkeys++
		case MeanReverter:
			c.MeanReverters++
		case MomentumTrader:
			c.MomentumTraders++
		case MarketMaker:
			// traders never carry the maker kind
		}
	}
	return c
}

func tailCopy[T any](s []T, limit int) []T {
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	out := make([]T, limit)
	copy(out, s[len(s)-limit:])
	return out
}
