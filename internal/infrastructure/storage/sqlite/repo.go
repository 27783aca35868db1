package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  instrument_key INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  exchange TEXT NOT NULL,
  product TEXT NOT NULL,
  source TEXT NOT NULL,
  quantity REAL NOT NULL,
  avg_price REAL NOT NULL,
  last_price REAL NOT NULL,
  pnl REAL NOT NULL,
  margin_used REAL NOT NULL,
  pnl_on_margin_pct REAL NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_latest_key ON positions_latest(instrument_key);

CREATE TABLE IF NOT EXISTS totals_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  collection TEXT NOT NULL,
  pnl REAL NOT NULL,
  margin_used REAL NOT NULL,
  pnl_on_margin_pct REAL NOT NULL,
  count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_totals_history_ts ON totals_history(ts_ms);
CREATE INDEX IF NOT EXISTS idx_totals_history_collection ON totals_history(collection);

CREATE TABLE IF NOT EXISTS connectivity_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  connected INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_connectivity_ts ON connectivity_events(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO positions_latest (id, instrument_key, symbol, exchange, product, source,
  quantity, avg_price, last_price, pnl, margin_used, pnl_on_margin_pct, ts_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  instrument_key = excluded.instrument_key,
  symbol = excluded.symbol,
  exchange = excluded.exchange,
  product = excluded.product,
  source = excluded.source,
  quantity = excluded.quantity,
  avg_price = excluded.avg_price,
  last_price = excluded.last_price,
  pnl = excluded.pnl,
  margin_used = excluded.margin_used,
  pnl_on_margin_pct = excluded.pnl_on_margin_pct,
  ts_ms = excluded.ts_ms
`, p.ID, p.InstrumentKey, p.Symbol, p.Exchange, p.Product, string(p.Source),
		p.Quantity, p.AvgPrice, p.LastPrice, p.PnL, p.MarginUsed, p.PnLOnMarginPct, ts)
	return err
}

func (r *Repo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO totals_history (ts_ms, collection, pnl, margin_used, pnl_on_margin_pct, count)
VALUES (?, ?, ?, ?, ?, ?)
`, ts, collection, t.PnL, t.MarginUsed, t.PnLOnMarginPct, t.Count)
	return err
}

func (r *Repo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	v := 0
	if connected {
		v = 1
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO connectivity_events (ts_ms, connected) VALUES (?, ?)
`, ts, v)
	return err
}

// CountTotals returns the number of totals samples stored for a
// collection, used by maintenance tooling and tests.
func (r *Repo) CountTotals(ctx context.Context, collection string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM totals_history WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

var _ port.HistoryRepository = (*Repo)(nil)
