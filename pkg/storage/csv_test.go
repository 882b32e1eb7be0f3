package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterStreams(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir, 2)
	require.NoError(t, err)

	w.RecordTrade(market.Trade{
		Price: 100.5, Qty: 3, Buyer: 1, Seller: 2, Timestep: 7,
		BuyerKind: market.Monkey, SellerKind: market.MarketMaker,
	})
	w.RecordTick(market.Tick{LastPrice: 100.5, Volume: 3, VWAP: 100.5, MidPrice: 100, Timestep: 1})
	w.RecordTick(market.Tick{
		LastPrice: 101, Volume: 2, VWAP: 101, MidPrice: 101, Timestep: 2,
		KindVolume: market.KindVolumes{market.Monkey: 2},
	})
	w.RecordCensus(market.Census{Timestep: 10, Monkeys: 8, MeanReverters: 1, MomentumTraders: 1, MarketMakers: 2})

	require.NoError(t, w.Close())

	trades := readCSV(t, filepath.Join(dir, "trades.csv"))
	require.Equal(t, []string{"timestep", "price", "quantity", "buyer_id", "seller_id", "buyer_type", "seller_type"}, trades[0])
	require.Equal(t, []string{"7", "100.5", "3", "1", "2", "Monkey", "MarketMaker"}, trades[1])

	ticks := readCSV(t, filepath.Join(dir, "tick_history.csv"))
	require.Len(t, ticks, 3) // header + both ticks

	// price.csv samples every second tick only
	price := readCSV(t, filepath.Join(dir, "price.csv"))
	require.Len(t, price, 2)
	require.Equal(t, []string{"2", "101", "0", "0", "2"}, price[1])

	counts := readCSV(t, filepath.Join(dir, "trader_counts.csv"))
	require.Equal(t, []string{"10", "8", "1", "1", "2"}, counts[1])
}

func TestCSVWriterPnL(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir, 1)
	require.NoError(t, err)
	defer w.Close()

	standings := []market.Standing{
		{ID: 0, Kind: market.Monkey, Value: 100},
		{ID: 1, Kind: market.Monkey, Value: 200},
		{ID: 2, Kind: market.MomentumTrader, Value: 50},
	}
	require.NoError(t, w.WritePnL(standings))

	rows := readCSV(t, filepath.Join(dir, "avg_pnl.csv"))
	require.Equal(t, []string{"trader_type", "avg_pnl"}, rows[0])
	require.Equal(t, []string{"Monkey", "150"}, rows[1])
	// no mean reverters in the standings: no row for them
	require.Equal(t, []string{"MomentumTrader", "50"}, rows[2])
	require.Len(t, rows, 3)
}

type countingRecorder struct {
	trades, ticks, censuses int
}

func (c *countingRecorder) RecordTrade(market.Trade)   { c.trades++ }
func (c *countingRecorder) RecordTick(market.Tick)     { c.ticks++ }
func (c *countingRecorder) RecordCensus(market.Census) { c.censuses++ }

func TestMultiFansOut(t *testing.T) {
	a := &countingRecorder{}
	b := &countingRecorder{}
	m := Multi{a, b}

	m.RecordTrade(market.Trade{})
	m.RecordTick(market.Tick{})
	m.RecordTick(market.Tick{})
	m.RecordCensus(market.Census{})

	for _, r := range []*countingRecorder{a, b} {
		require.Equal(t, 1, r.trades)
		require.Equal(t, 2, r.ticks)
		require.Equal(t, 1, r.censuses)
	}
}
