package port

import (
	"context"

	"livedesk/internal/domain"
)

// HistoryRepository records merged state as it evolves: latest merged
// positions, totals history per collection, and connectivity
// transitions. Writes are best-effort; the engine never blocks the
// merge path on persistence failures.
type HistoryRepository interface {
	UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error
	InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error
	InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error
	Close() error
}
