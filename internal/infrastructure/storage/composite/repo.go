package composite

import (
	"context"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

// Repo fans every write out to all configured backends, returning the
// first error after trying each one.
type Repo struct {
	repos []port.HistoryRepository
}

func New(repos ...port.HistoryRepository) *Repo {
	// nil entries stand for backends that were not configured
	out := make([]port.HistoryRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestPosition(ctx, p, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertTotals(ctx, ts, collection, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertConnectivityEvent(ctx, ts, connected); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.HistoryRepository = (*Repo)(nil)
