package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

func TestLedgerUpdatePosition(t *testing.T) {
	l := NewLedger()
	require.Equal(t, 100000.0, l.Cash)
	require.Equal(t, 10.0, l.Position)

	l.UpdatePosition(market.Buy, 100, 5)
	require.Equal(t, 99900.0, l.Cash)
	require.Equal(t, 15.0, l.Position)

	l.UpdatePosition(market.Sell, 110, 3)
	require.Equal(t, 100010.0, l.Cash)
	require.Equal(t, 12.0, l.Position)

	l.UpdatePosition(market.Hold, 999, 999)
	require.Equal(t, 100010.0, l.Cash)
	require.Equal(t, 12.0, l.Position)
}

func TestLedgerValueMarksToMarket(t *testing.T) {
	l := Ledger{Cash: 500, Position: 4}
	require.Equal(t, 500.0+4*25, l.Value(25))
	require.Equal(t, 500.0, l.Value(0))

	short := Ledger{Cash: 1000, Position: -2}
	require.Equal(t, 1000.0-2*100, short.Value(100))
}
