package domain

import "testing"

func TestAggregateMatchesFreshSum(t *testing.T) {
	list := []Position{
		{ID: "p1", PnL: 100, MarginUsed: 1000},
		{ID: "p2", PnL: -40, MarginUsed: 500},
		{ID: "p3", PnL: 12.5, MarginUsed: 250},
	}

	got := Aggregate(list)

	// mutate one element and recompute; no incremental total may drift
	list[1].PnL = 60
	regot := Aggregate(list)

	var fresh float64
	for _, p := range list {
		fresh += p.PnL
	}
	if regot.PnL != fresh {
		t.Errorf("recomputed total %v != independent sum %v", regot.PnL, fresh)
	}
	if got.PnL == regot.PnL {
		t.Errorf("totals must reflect the mutation, both were %v", got.PnL)
	}
	if regot.Count != 3 {
		t.Errorf("expected count 3, got %d", regot.Count)
	}
}

func TestAggregateConcreteScenario(t *testing.T) {
	// baseline pnl 100 overlaid by stream pnl 150 on margin 1000
	list := []Position{{ID: "p1", InstrumentKey: 111, PnL: 150, MarginUsed: 1000}}
	tot := Aggregate(list)
	if tot.PnL != 150 {
		t.Errorf("expected pnl 150, got %v", tot.PnL)
	}
	if tot.PnLOnMarginPct != 15.0 {
		t.Errorf("expected pnl-on-margin 15.0, got %v", tot.PnLOnMarginPct)
	}
}

func TestPnLOnMarginZeroMargin(t *testing.T) {
	if got := PnLOnMargin(100, 0); got != 0 {
		t.Errorf("zero margin must yield 0, got %v", got)
	}
	if got := PnLOnMargin(50, 200); got != 25.0 {
		t.Errorf("expected 25.0, got %v", got)
	}
}

func TestAggregateEmptyList(t *testing.T) {
	tot := Aggregate(nil)
	if tot.PnL != 0 || tot.MarginUsed != 0 || tot.PnLOnMarginPct != 0 || tot.Count != 0 {
		t.Errorf("empty aggregate must be zero: %+v", tot)
	}
}

func TestFilteredTotalsMatchFilteredRows(t *testing.T) {
	list := []Position{
		{ID: "p1", Source: SourceLive, PnL: 100, MarginUsed: 1000},
		{ID: "p2", Source: SourcePaper, PnL: 999, MarginUsed: 1},
		{ID: "p3", Source: SourceLive, PnL: -20, MarginUsed: 500},
	}

	live := FilterPositionsBySource(list, SourceLive)
	tot := Aggregate(live)

	var fresh float64
	for _, p := range live {
		fresh += p.PnL
	}
	if tot.PnL != fresh {
		t.Errorf("filtered totals %v != sum of filtered rows %v", tot.PnL, fresh)
	}
	if tot.Count != 2 {
		t.Errorf("expected 2 live rows, got %d", tot.Count)
	}
}
