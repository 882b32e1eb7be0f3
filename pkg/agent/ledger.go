package agent

import "github.com/parkercarrus/MarketSim/pkg/market"

// Every agent starts from the same endowment; evolution clones get a fresh one.
const (
	defaultCash     = 100000.0
	defaultPosition = 10.0
)

// Ledger is an agent's cash and signed position. Buy moves one unit of
// notional per fill and qty shares of position; Sell is the inverse.
type Ledger struct {
	Cash     float64
	Position float64
}

func NewLedger() Ledger {
	return Ledger{Cash: defaultCash, Position: defaultPosition}
}

func (l *Ledger) UpdatePosition(side market.Side, price, qty float64) {
	switch side {
	case market.Buy:
		l.Cash -= price
		l.Position += qty
	case market.Sell:
		l.Cash += price
		l.Position -= qty
	case market.Hold:
		// holds never trade
	}
}

// Value marks the ledger to market: position at the current price plus cash.
func (l *Ledger) Value(marketPrice float64) float64 {
	return l.Position*marketPrice + l.Cash
}
