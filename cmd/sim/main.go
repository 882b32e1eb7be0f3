// Batch simulation: load params, build the population, run N ticks flat out,
// write the result files and the final leaderboard.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/parkercarrus/MarketSim/params"
	"github.com/parkercarrus/MarketSim/pkg/agent"
	"github.com/parkercarrus/MarketSim/pkg/market"
	"github.com/parkercarrus/MarketSim/pkg/storage"
	"github.com/parkercarrus/MarketSim/pkg/util"
)

func main() {
	var (
		paramsPath = flag.String("params", "params.json", "path to the JSON params file")
		ticks      = flag.Int("ticks", 10000, "number of ticks to simulate")
		resultsDir = flag.String("results", "results", "directory for CSV output")
		archiveDir = flag.String("archive", "", "pebble archive directory (disabled when empty)")
		verbose    = flag.Bool("verbose", false, "debug logging (matching-loop discards)")
	)
	flag.Parse()

	logger, err := util.NewLogger(*verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := params.Load(*paramsPath)
	if err != nil {
		// Missing params file falls back to defaults; a malformed one is fatal.
		if errors.Is(err, os.ErrNotExist) {
			sugar.Infow("params_file_missing", "path", *paramsPath)
			cfg = params.Default()
		} else {
			sugar.Fatalw("params_load_failed", "path", *paramsPath, "err", err)
		}
	}
	cfg = params.LoadFromEnv(cfg, "")
	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("invalid_config", "err", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	traders, makers := agent.BuildRoster(cfg, rng)

	csv, err := storage.NewCSVWriter(*resultsDir, cfg.WriteEvery)
	if err != nil {
		sugar.Fatalw("csv_writer_failed", "err", err)
	}
	defer csv.Close()

	sinks := storage.Multi{csv}
	if *archiveDir != "" {
		archive, err := storage.NewPebbleStore(*archiveDir, sugar)
		if err != nil {
			sugar.Fatalw("archive_open_failed", "dir", *archiveDir, "err", err)
		}
		defer archive.Close()
		sinks = append(sinks, archive)
	}
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		journal, err := storage.NewPostgresJournal(connStr, sugar)
		if err != nil {
			sugar.Fatalw("postgres_journal_failed", "err", err)
		}
		defer journal.Close()
		sinks = append(sinks, journal)
	}

	mkt, err := market.NewMarket(cfg, traders, makers, sinks, sugar)
	if err != nil {
		sugar.Fatalw("market_init_failed", "err", err)
	}

	sugar.Infow("simulation_starting",
		"ticks", *ticks,
		"seed", cfg.Seed,
		"traders", len(traders),
		"makers", len(makers),
		"evolve", cfg.Evolve)

	start := time.Now()
	runner := market.Runner{Market: mkt}
	done := runner.Run(context.Background(), *ticks)
	elapsed := time.Since(start)

	sugar.Infow("simulation_complete",
		"ticks", done,
		"elapsed", elapsed.String(),
		"ticks_per_sec", float64(done)/elapsed.Seconds(),
		"final_price", mkt.Price())

	standings := mkt.Leaderboard()
	top := standings
	if len(top) > 5 {
		top = top[:5]
	}
	for i, st := range top {
		sugar.Infow("leaderboard_entry",
			"rank", i+1,
			"id", st.ID,
			"type", st.Kind.String(),
			"value", st.Value)
	}

	if err := csv.WritePnL(standings); err != nil {
		sugar.Errorw("pnl_write_failed", "err", err)
	}
}
