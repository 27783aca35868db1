package storage

import (
	"context"
	"sync"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

// TotalsRow is one persisted aggregate sample.
type TotalsRow struct {
	Ts         int64
	Collection string
	Totals     domain.Totals
}

// ConnectivityRow is one persisted connectivity transition.
type ConnectivityRow struct {
	Ts        int64
	Connected bool
}

// MemoryRepo is the in-process implementation of the history
// repository, used by default and in tests.
type MemoryRepo struct {
	mu           sync.Mutex
	positions    map[string]domain.Position
	totals       []TotalsRow
	connectivity []ConnectivityRow
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		positions: make(map[string]domain.Position),
	}
}

func (r *MemoryRepo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions[p.ID] = p
	return nil
}

func (r *MemoryRepo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals = append(r.totals, TotalsRow{Ts: ts, Collection: collection, Totals: t})
	return nil
}

func (r *MemoryRepo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivity = append(r.connectivity, ConnectivityRow{Ts: ts, Connected: connected})
	return nil
}

func (r *MemoryRepo) Close() error { return nil }

// LatestPositions returns a copy of the latest merged positions.
func (r *MemoryRepo) LatestPositions() []domain.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Position, 0, len(r.positions))
	for _, p := range r.positions {
		out = append(out, p)
	}
	return out
}

// TotalsHistory returns a copy of the recorded totals samples.
func (r *MemoryRepo) TotalsHistory() []TotalsRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TotalsRow, len(r.totals))
	copy(out, r.totals)
	return out
}

// ConnectivityHistory returns a copy of the recorded transitions.
func (r *MemoryRepo) ConnectivityHistory() []ConnectivityRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectivityRow, len(r.connectivity))
	copy(out, r.connectivity)
	return out
}

var _ port.HistoryRepository = (*MemoryRepo)(nil)
