package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

// Repo publishes merged state to Redis for out-of-process dashboard
// consumers: latest merged positions in a hash, totals samples on a
// stream, connectivity transitions on a pub/sub channel.
type Repo struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	keyPositions string // prefix + ":positions:latest"
	totalsStream string
	connChan     string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "livedesk"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		keyPositions: prefix + ":positions:latest",
		totalsStream: prefix + ":totals",
		connChan:     prefix + ":connectivity:pub",
	}
}

type latestPosition struct {
	ID             string  `json:"id"`
	InstrumentKey  int64   `json:"instrument_key"`
	Symbol         string  `json:"symbol"`
	LastPrice      float64 `json:"last_price"`
	PnL            float64 `json:"pnl"`
	MarginUsed     float64 `json:"margin_used"`
	PnLOnMarginPct float64 `json:"pnl_on_margin_pct"`
	Ts             int64   `json:"ts"`
}

func (r *Repo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	lp := latestPosition{
		ID:             p.ID,
		InstrumentKey:  p.InstrumentKey,
		Symbol:         p.Symbol,
		LastPrice:      p.LastPrice,
		PnL:            p.PnL,
		MarginUsed:     p.MarginUsed,
		PnLOnMarginPct: p.PnLOnMarginPct,
		Ts:             ts,
	}
	b, _ := json.Marshal(lp)

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyPositions, p.ID, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyPositions, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.totalsStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]any{
			"ts_ms":             ts,
			"collection":        collection,
			"pnl":               t.PnL,
			"margin_used":       t.MarginUsed,
			"pnl_on_margin_pct": t.PnLOnMarginPct,
			"count":             t.Count,
		},
	}).Result()
	return err
}

func (r *Repo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	msg, _ := json.Marshal(map[string]any{"ts_ms": ts, "connected": connected})
	return r.rdb.Publish(ctx, r.connChan, string(msg)).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.HistoryRepository = (*Repo)(nil)
