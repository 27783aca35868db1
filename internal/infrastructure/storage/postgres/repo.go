package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS positions_latest (
  id TEXT PRIMARY KEY,
  instrument_key BIGINT NOT NULL,
  symbol TEXT NOT NULL,
  exchange TEXT NOT NULL,
  product TEXT NOT NULL,
  source TEXT NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  avg_price DOUBLE PRECISION NOT NULL,
  last_price DOUBLE PRECISION NOT NULL,
  pnl DOUBLE PRECISION NOT NULL,
  margin_used DOUBLE PRECISION NOT NULL,
  pnl_on_margin_pct DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS totals_history (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  collection TEXT NOT NULL,
  pnl DOUBLE PRECISION NOT NULL,
  margin_used DOUBLE PRECISION NOT NULL,
  pnl_on_margin_pct DOUBLE PRECISION NOT NULL,
  count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_totals_history_ts ON totals_history(ts_ms);

CREATE TABLE IF NOT EXISTS connectivity_events (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  connected BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connectivity_ts ON connectivity_events(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO positions_latest (id, instrument_key, symbol, exchange, product, source,
  quantity, avg_price, last_price, pnl, margin_used, pnl_on_margin_pct, ts_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT(id) DO UPDATE SET
  instrument_key = EXCLUDED.instrument_key,
  symbol = EXCLUDED.symbol,
  exchange = EXCLUDED.exchange,
  product = EXCLUDED.product,
  source = EXCLUDED.source,
  quantity = EXCLUDED.quantity,
  avg_price = EXCLUDED.avg_price,
  last_price = EXCLUDED.last_price,
  pnl = EXCLUDED.pnl,
  margin_used = EXCLUDED.margin_used,
  pnl_on_margin_pct = EXCLUDED.pnl_on_margin_pct,
  ts_ms = EXCLUDED.ts_ms
`, p.ID, p.InstrumentKey, p.Symbol, p.Exchange, p.Product, string(p.Source),
		p.Quantity, p.AvgPrice, p.LastPrice, p.PnL, p.MarginUsed, p.PnLOnMarginPct, ts)
	return err
}

func (r *Repo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO totals_history (ts_ms, collection, pnl, margin_used, pnl_on_margin_pct, count)
VALUES ($1, $2, $3, $4, $5, $6)
`, ts, collection, t.PnL, t.MarginUsed, t.PnLOnMarginPct, t.Count)
	return err
}

func (r *Repo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO connectivity_events (ts_ms, connected) VALUES ($1, $2)
`, ts, connected)
	return err
}

var _ port.HistoryRepository = (*Repo)(nil)
