// Live simulation server: a paced tick loop feeding the REST/WebSocket API,
// with CSV output and an optional pebble archive alongside.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parkercarrus/MarketSim/params"
	"github.com/parkercarrus/MarketSim/pkg/agent"
	"github.com/parkercarrus/MarketSim/pkg/api"
	"github.com/parkercarrus/MarketSim/pkg/market"
	"github.com/parkercarrus/MarketSim/pkg/storage"
	"github.com/parkercarrus/MarketSim/pkg/util"
)

func main() {
	var (
		paramsPath = flag.String("params", "params.json", "path to the JSON params file")
		addr       = flag.String("addr", "", "API listen address (overrides API_ADDR)")
		pace       = flag.Duration("pace", 100*time.Millisecond, "delay between ticks (0 = flat out)")
		resultsDir = flag.String("results", "results", "directory for CSV output")
		archiveDir = flag.String("archive", "data/archive", "pebble archive directory (disabled when empty)")
		verbose    = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/server.log"
	}
	logger, err := util.NewLoggerWithFile(logFile, *verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := params.Load(*paramsPath)
	if err != nil {
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

	// The API server broadcasts ticks and trades but needs the market to
	// exist first, so it joins the fan-out through a late binding.
	live := &lateRecorder{}

	mkt, err := market.NewMarket(cfg, traders, makers, append(sinks, live), sugar)
	if err != nil {
		sugar.Fatalw("market_init_failed", "err", err)
	}

	srv := api.NewServer(mkt, sugar)
	live.bind(srv)

	apiAddr := *addr
	if apiAddr == "" {
		apiAddr = os.Getenv("API_ADDR")
	}
	if apiAddr == "" {
		apiAddr = ":8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(apiAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("server_starting",
		"addr", apiAddr,
		"pace", pace.String(),
		"seed", cfg.Seed,
		"traders", len(traders),
		"makers", len(makers))

	runner := market.Runner{
		Market: mkt,
		Clock:  util.RealClock{},
		Pace:   *pace,
	}
	done := runner.Run(ctx, 0)

	sugar.Infow("server_stopped", "ticks", done, "final_price", mkt.Price())

	if err := csv.WritePnL(mkt.Leaderboard()); err != nil {
		sugar.Errorw("pnl_write_failed", "err", err)
	}
}

// lateRecorder lets the tick loop's fan-out include a recorder that is only
// constructed after the market. Bind before the first tick.
type lateRecorder struct {
	r market.Recorder
}

func (l *lateRecorder) bind(r market.Recorder) { l.r = r }

func (l *lateRecorder) RecordTrade(t market.Trade) {
	if l.r != nil {
		l.r.RecordTrade(t)
	}
}

func (l *lateRecorder) RecordTick(t market.Tick) {
	if l.r != nil {
		l.r.RecordTick(t)
	}
}

func (l *lateRecorder) RecordCensus(c market.Census) {
	if l.r != nil {
		l.r.RecordCensus(c)
	}
}
