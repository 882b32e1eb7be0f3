package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/parkercarrus/MarketSim/pkg/market"
)

// PostgresJournal mirrors the trade/tick/census streams into Postgres for
// SQL-side analysis of long runs. Enabled when a connection string is
// configured; failures are logged, never fatal to the simulation.
type PostgresJournal struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func NewPostgresJournal(connStr string, log *zap.SugaredLogger) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	j := &PostgresJournal{db: db, log: log}
	if err := j.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *PostgresJournal) createSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			timestep BIGINT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			buyer_id BIGINT NOT NULL,
			seller_id BIGINT NOT NULL,
			buyer_type TEXT NOT NULL,
			seller_type TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ticks (
			timestep BIGINT PRIMARY KEY,
			last_price DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			vwap DOUBLE PRECISION NOT NULL,
			mid_price DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trader_counts (
			timestep BIGINT PRIMARY KEY,
			monkeys INT NOT NULL,
			meanreverters INT NOT NULL,
			momentumtraders INT NOT NULL,
			marketmakers INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_timestep ON trades (timestep)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (j *PostgresJournal) RecordTrade(t market.Trade) {
	_, err := j.db.Exec(`
		INSERT INTO trades (timestep, price, quantity, buyer_id, seller_id, buyer_type, seller_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.Timestep, t.Price, t.Qty, t.Buyer, t.Seller, t.BuyerKind.String(), t.SellerKind.String())
	if err != nil {
		j.log.Errorw("journal_trade_failed", "err", err)
	}
}

func (j *PostgresJournal) RecordTick(t market.Tick) {
	_, err := j.db.Exec(`
		INSERT INTO ticks (timestep, last_price, volume, vwap, mid_price)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (timestep) DO UPDATE SET
			last_price=EXCLUDED.last_price, volume=EXCLUDED.volume,
			vwap=EXCLUDED.vwap, mid_price=EXCLUDED.mid_price`,
		t.Timestep, t.LastPrice, t.Volume, t.VWAP, t.MidPrice)
	if err != nil {
		j.log.Errorw("journal_tick_failed", "err", err)
	}
}

func (j *PostgresJournal) RecordCensus(c market.Census) {
	_, err := j.db.Exec(`
		INSERT INTO trader_counts (timestep, monkeys, meanreverters, momentumtraders, marketmakers)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (timestep) DO NOTHING`,
		c.Timestep, c.Monkeys, c.MeanReverters, c.MomentumTraders, c.MarketMakers)
	if err != nil {
		j.log.Errorw("journal_census_failed", "err", err)
	}
}

func (j *PostgresJournal) Close() error { return j.db.Close() }

var _ market.Recorder = (*PostgresJournal)(nil)
