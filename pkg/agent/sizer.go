package agent

import "math"

// Sizer turns a price edge into a share quantity. Pluggable per agent;
// agents depend only on this signature.
type Sizer interface {
	Size(marketPrice, expectedPrice, confidence, capital float64) float64
	Method() string
}

// Fractional bets a fixed fraction of current capital regardless of edge.
type Fractional struct {
	Fraction float64
	MinBet   float64
}

func (f Fractional) Size(marketPrice, expectedPrice, confidence, capital float64) float64 {
	return (f.Fraction * capital) / marketPrice
}

func (f Fractional) Method() string { return "FixedFraction" }

// Kelly scales the bet by a simplified, bounded Kelly criterion over the
// expected edge. Bets below MinBet are suppressed entirely.
type Kelly struct {
	Fraction float64
	MinBet   float64
}

func (k Kelly) Size(marketPrice, expectedPrice, confidence, capital float64) float64 {
	edge := expectedPrice - marketPrice
	odds := math.Abs(edge / marketPrice)

	if odds == 0 || confidence <= 0.5 {
		return 0
	}

	kelly := (confidence - (1 - confidence)) * odds
	kelly = math.Min(math.Max(kelly, 0), 1)
	bet := k.Fraction * kelly * capital

	if bet < k.MinBet {
		return 0
	}
	return bet / marketPrice
}

func (k Kelly) Method() string { return "Kelly" }
