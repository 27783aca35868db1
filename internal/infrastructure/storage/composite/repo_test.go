package composite

import (
	"context"
	"errors"
	"testing"

	"livedesk/internal/domain"
	"livedesk/internal/infrastructure/storage"
)

type failingRepo struct {
	err error
}

func (f *failingRepo) UpsertLatestPosition(ctx context.Context, p domain.Position, ts int64) error {
	return f.err
}

func (f *failingRepo) InsertTotals(ctx context.Context, ts int64, collection string, t domain.Totals) error {
	return f.err
}

func (f *failingRepo) InsertConnectivityEvent(ctx context.Context, ts int64, connected bool) error {
	return f.err
}

func (f *failingRepo) Close() error { return nil }

func TestCompositeFansOutToAllBackends(t *testing.T) {
	a := storage.NewMemoryRepo()
	b := storage.NewMemoryRepo()
	r := New(a, nil, b)

	ctx := context.Background()
	p := domain.Position{ID: "p1", PnL: 100}
	if err := r.UpsertLatestPosition(ctx, p, 1000); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if len(a.LatestPositions()) != 1 || len(b.LatestPositions()) != 1 {
		t.Error("write must reach every configured backend")
	}
}

func TestCompositeFailureDoesNotStopOtherBackends(t *testing.T) {
	boom := errors.New("backend down")
	mem := storage.NewMemoryRepo()
	r := New(&failingRepo{err: boom}, mem)

	ctx := context.Background()
	err := r.InsertTotals(ctx, 1000, "positions", domain.Totals{PnL: 1})
	if !errors.Is(err, boom) {
		t.Errorf("first error must surface, got %v", err)
	}
	if len(mem.TotalsHistory()) != 1 {
		t.Error("healthy backend must still receive the write")
	}
}
