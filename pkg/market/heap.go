package market

import "container/heap"

// priceHeap tracks the live price levels of one book side so best-price
// lookup stays O(1) as levels come and go. better orders the heap: highest
// price first for bids, lowest first for asks. Manipulate only through
// container/heap.
type priceHeap struct {
	prices []float64
	better func(a, b float64) bool
}

func newBidHeap() *priceHeap {
	return &priceHeap{better: func(a, b float64) bool { return a > b }}
}

func newAskHeap() *priceHeap {
	return &priceHeap{better: func(a, b float64) bool { return a < b }}
}

func (h *priceHeap) Len() int           { return len(h.prices) }
func (h *priceHeap) Less(i, j int) bool { return h.better(h.prices[i], h.prices[j]) }
func (h *priceHeap) Swap(i, j int)      { h.prices[i], h.prices[j] = h.prices[j], h.prices[i] }

func (h *priceHeap) Push(x interface{}) { h.prices = append(h.prices, x.(float64)) }

func (h *priceHeap) Pop() interface{} {
	old := h.prices
	n := len(old)
	x := old[n-1]
	h.prices = old[:n-1]
	return x
}

// Peek returns the best price without removing it.
func (h *priceHeap) Peek() float64 {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[0]
}

// remove drops one price from the heap. O(levels) scan, same trade-off as
// cancelling a level anywhere else in the book.
func (h *priceHeap) remove(price float64) {
	for i, p := range h.prices {
		if p == price {
			heap.Remove(h, i)
			return
		}
	}
}
