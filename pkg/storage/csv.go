package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

// CSVWriter streams the run into the results directory:
//
//	trades.csv        every trade
//	tick_history.csv  every tick snapshot
//	price.csv         live-plot file, sampled every writeEvery ticks
//	trader_counts.csv census per evolution event
//	avg_pnl.csv       written once at end of run via WritePnL
type CSVWriter struct {
	trades  *fileCSV
	ticks   *fileCSV
	price   *fileCSV
	counts  *fileCSV
	dir     string
	every   int
}

type fileCSV struct {
	f *os.File
	w *csv.Writer
}

func newFileCSV(path string, header []string) (*fileCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &fileCSV{f: f, w: w}, nil
}

func (fc *fileCSV) close() error {
	fc.w.Flush()
	if err := fc.w.Error(); err != nil {
		fc.f.Close()
		return err
	}
	return fc.f.Close()
}

// NewCSVWriter creates the results directory and the stream files with their
// headers. writeEvery controls the sampling cadence of price.csv only.
func NewCSVWriter(dir string, writeEvery int) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	trades, err := newFileCSV(filepath.Join(dir, "trades.csv"),
		[]string{"timestep", "price", "quantity", "buyer_id", "seller_id", "buyer_type", "seller_type"})
	if err != nil {
		return nil, err
	}
	ticks, err := newFileCSV(filepath.Join(dir, "tick_history.csv"),
		[]string{"timestep", "last_price", "vwap", "mid_price", "volume"})
	if err != nil {
		trades.close()
		return nil, err
	}
	price, err := newFileCSV(filepath.Join(dir, "price.csv"),
		[]string{"timestep", "price", "mean_reverter_volume", "momentum_trader_volume", "monkey_volume"})
	if err != nil {
		trades.close()
		ticks.close()
		return nil, err
	}
	counts, err := newFileCSV(filepath.Join(dir, "trader_counts.csv"),
		[]string{"timestep", "monkeys", "meanreverters", "momentumtraders", "marketmakers"})
	if err != nil {
		trades.close()
		ticks.close()
		price.close()
		return nil, err
	}

	return &CSVWriter{trades: trades, ticks: ticks, price: price, counts: counts, dir: dir, every: writeEvery}, nil
}

func (c *CSVWriter) RecordTrade(t market.Trade) {
	c.trades.w.Write([]string{
		strconv.Itoa(t.Timestep),
		ftoa(t.Price),
		ftoa(t.Qty),
		strconv.Itoa(t.Buyer),
		strconv.Itoa(t.Seller),
		t.BuyerKind.String(),
		t.SellerKind.String(),
	})
}

func (c *CSVWriter) RecordTick(t market.Tick) {
	c.ticks.w.Write([]string{
		strconv.Itoa(t.Timestep),
		ftoa(t.LastPrice),
		ftoa(t.VWAP),
		ftoa(t.MidPrice),
		ftoa(t.Volume),
	})

	if t.Timestep%c.every == 0 {
		c.price.w.Write([]string{
			strconv.Itoa(t.Timestep),
			ftoa(t.LastPrice),
			ftoa(t.KindVolume[market.MeanReverter]),
			ftoa(t.KindVolume[market.MomentumTrader]),
			ftoa(t.KindVolume[market.Monkey]),
		})
	}
}

func (c *CSVWriter) RecordCensus(cs market.Census) {
	c.counts.w.Write([]string{
		strconv.Itoa(cs.Timestep),
		strconv.Itoa(cs.Monkeys),
		strconv.Itoa(cs.MeanReverters),
		strconv.Itoa(cs.MomentumTraders),
		strconv.Itoa(cs.MarketMakers),
	})
}

// WritePnL writes the per-type average value of the final leaderboard.
func (c *CSVWriter) WritePnL(standings []market.Standing) error {
	pnl, err := newFileCSV(filepath.Join(c.dir, "avg_pnl.csv"), []string{"trader_type", "avg_pnl"})
	if err != nil {
		return err
	}

	var sums [market.NumKinds]float64
	var counts [market.NumKinds]int
	for _, s := range standings {
		sums[s.Kind] += s.Value
		counts[s.Kind]++
	}
	for _, kind := range market.TraderKinds {
		if counts[kind] == 0 {
			continue
		}
		pnl.w.Write([]string{kind.String(), ftoa(sums[kind] / float64(counts[kind]))})
	}
	return pnl.close()
}

// Flush pushes buffered rows to disk without closing.
func (c *CSVWriter) Flush() {
	c.trades.w.Flush()
	c.ticks.w.Flush()
	c.price.w.Flush()
	c.counts.w.Flush()
}

// Close flushes and closes all stream files, reporting the first error.
func (c *CSVWriter) Close() error {
	var first error
	for _, fc := range []*fileCSV{c.trades, c.ticks, c.price, c.counts} {
		if err := fc.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var _ market.Recorder = (*CSVWriter)(nil)
