package market

import (
	"container/heap"
	"sort"
)

// Book holds the resting orders: two sorted sides of price levels, each level
// a FIFO queue. Best-price lookup is O(1) via heaps that track live levels.
//
// Invariant: a level is deleted the instant its queue empties, so neither map
// ever holds an empty slice and the heaps only carry prices with liquidity.
// The book carries no lock of its own; it is exclusively owned by one Market.
type Book struct {
	bidHeap *priceHeap
	askHeap *priceHeap

	// price -> FIFO queue of resting orders
	bids map[float64][]*Order
	asks map[float64][]*Order
}

func NewBook() *Book {
	return &Book{
		bidHeap: newBidHeap(),
		askHeap: newAskHeap(),
		bids:    make(map[float64][]*Order),
		asks:    make(map[float64][]*Order),
	}
}

// BestBid returns the highest bid price, false when the side is empty.
func (b *Book) BestBid() (float64, bool) {
	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.Peek(), true
}

// BestAsk returns the lowest ask price, false when the side is empty.
func (b *Book) BestAsk() (float64, bool) {
	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.Peek(), true
}

// Top bundles both sides for agent decision calls.
func (b *Book) Top() TopOfBook {
	var t TopOfBook
	t.Bid, t.HasBid = b.BestBid()
	t.Ask, t.HasAsk = b.BestAsk()
	return t
}

// Rest appends o to the FIFO queue at its price, creating the level if absent.
// Hold orders and non-positive quantities must never reach the book.
func (b *Book) Rest(o *Order) {
	if o.Side == Hold || o.Qty <= 0 {
		panic("book: resting a hold or non-positive-quantity order")
	}
	side := b.sideOf(o.Side)
	if len(side[o.Price]) == 0 {
		b.pushPrice(o.Side, o.Price)
	}
	side[o.Price] = append(side[o.Price], o)
}

// PeekBest returns the front order of the best level on the given side
// without removing it, or nil when the side is empty.
func (b *Book) PeekBest(s Side) *Order {
	price, ok := b.bestOf(s)
	if !ok {
		return nil
	}
	return b.sideOf(s)[price][0]
}

// PopBest removes and returns the front order of the best level, deleting the
// level if now empty. Popping an empty side is an internal-consistency fault.
func (b *Book) PopBest(s Side) *Order {
	price, ok := b.bestOf(s)
	if !ok {
		panic("book: pop from empty side")
	}
	side := b.sideOf(s)
	level := side[price]
	o := level[0]
	level = level[1:]
	if len(level) == 0 {
		delete(side, price)
		b.removePrice(s, price)
	} else {
		side[price] = level
	}
	return o
}

// Purge drops every resting order for which keep returns false, deleting
// levels that empty out. Used by the tick scheduler to clear market-maker
// quotes before re-quoting.
func (b *Book) Purge(keep func(*Order) bool) {
	b.purgeSide(Buy, keep)
	b.purgeSide(Sell, keep)
}

func (b *Book) purgeSide(s Side, keep func(*Order) bool) {
	side := b.sideOf(s)
	for price, level := range side {
		filtered := level[:0]
		for _, o := range level {
			if keep(o) {
				filtered = append(filtered, o)
			}
		}
		if len(filtered) == 0 {
			delete(side, price)
			b.removePrice(s, price)
		} else {
			side[price] = filtered
		}
	}
}

// BidLevels returns aggregated bid depth sorted best-first (high to low).
func (b *Book) BidLevels() []Level {
	levels := b.aggregate(b.bids)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// AskLevels returns aggregated ask depth sorted best-first (low to high).
func (b *Book) AskLevels() []Level {
	levels := b.aggregate(b.asks)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

func (b *Book) aggregate(side map[float64][]*Order) []Level {
	levels := make([]Level, 0, len(side))
	for price, orders := range side {
		var total float64
		for _, o := range orders {
			total += o.Qty
		}
		levels = append(levels, Level{Price: price, Qty: total})
	}
	return levels
}

func (b *Book) sideOf(s Side) map[float64][]*Order {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) bestOf(s Side) (float64, bool) {
	if s == Buy {
		return b.BestBid()
	}
	return b.BestAsk()
}

func (b *Book) pushPrice(s Side, price float64) {
	if s == Buy {
		heap.Push(b.bidHeap, price)
	} else {
		heap.Push(b.askHeap, price)
	}
}

// removePrice drops a now-empty level's price from its heap.
func (b *Book) removePrice(s Side, price float64) {
	if s == Buy {
		b.bidHeap.remove(price)
	} else {
		b.askHeap.remove(price)
	}
}
