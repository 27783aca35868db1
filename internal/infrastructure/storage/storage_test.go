package storage

import (
	"context"
	"testing"

	"livedesk/internal/domain"
)

func TestMemoryRepoUpsertReplaces(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	p := domain.Position{ID: "p1", InstrumentKey: 111, PnL: 100}
	if err := r.UpsertLatestPosition(ctx, p, 1000); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.PnL = 150
	if err := r.UpsertLatestPosition(ctx, p, 2000); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := r.LatestPositions()
	if len(got) != 1 {
		t.Fatalf("expected one latest row per id, got %d", len(got))
	}
	if got[0].PnL != 150 {
		t.Errorf("pnl = %v, want 150", got[0].PnL)
	}
}

func TestMemoryRepoHistoryAppends(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	_ = r.InsertTotals(ctx, 1000, "positions", domain.Totals{PnL: 1})
	_ = r.InsertTotals(ctx, 2000, "positions", domain.Totals{PnL: 2})
	_ = r.InsertConnectivityEvent(ctx, 1500, true)

	totals := r.TotalsHistory()
	if len(totals) != 2 || totals[1].Totals.PnL != 2 {
		t.Errorf("totals history mismatch: %+v", totals)
	}
	conn := r.ConnectivityHistory()
	if len(conn) != 1 || !conn[0].Connected {
		t.Errorf("connectivity history mismatch: %+v", conn)
	}
}

func TestMemoryRepoAccessorsReturnCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	_ = r.InsertTotals(ctx, 1000, "positions", domain.Totals{PnL: 1})

	first := r.TotalsHistory()
	first[0].Totals.PnL = 999

	if got := r.TotalsHistory()[0].Totals.PnL; got != 1 {
		t.Errorf("accessor must return a copy, stored pnl became %v", got)
	}
}
