package reconcile

import (
	"testing"
	"time"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

func f64(v float64) *float64 { return &v }

func quotes(qs ...domain.StreamQuote) *[]domain.StreamQuote { return &qs }

func baseline() *domain.Snapshot {
	return &domain.Snapshot{
		Positions: []domain.Position{
			{ID: "p1", InstrumentKey: 111, PnL: 100, MarginUsed: 1000, LastPrice: 50},
		},
		FetchedAt: time.Now(),
	}
}

func TestBuildViewBeforeBaselineIsEmpty(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyUpdate(&port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 111, PnL: f64(150)}),
	})

	v := st.buildView()
	if v.Loaded {
		t.Error("view must not be loaded before any baseline")
	}
	if len(v.Positions) != 0 {
		t.Errorf("no display entity may be synthesized from stream data, got %d", len(v.Positions))
	}
}

func TestInitialStateIsIdempotent(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyBaseline(baseline())

	msg := &port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 111, PnL: f64(150)}),
	}
	st.applyInitial(msg)
	once := st.buildView()

	st.applyInitial(msg)
	twice := st.buildView()

	if once.Positions[0].PnL != 150 || twice.Positions[0].PnL != 150 {
		t.Errorf("expected pnl 150 after initial_state, got %v then %v",
			once.Positions[0].PnL, twice.Positions[0].PnL)
	}
	if once.PositionTotals != twice.PositionTotals {
		t.Errorf("reapplying initial_state changed totals: %+v vs %+v",
			once.PositionTotals, twice.PositionTotals)
	}
}

func TestInitialStateReplacesWholesale(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyBaseline(baseline())

	st.applyUpdate(&port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 111, PnL: f64(150)}),
	})
	// initial_state with no positions clears the held quote
	st.applyInitial(&port.StreamPayload{})

	v := st.buildView()
	if v.Positions[0].PnL != 100 {
		t.Errorf("initial_state must replace the stream map wholesale, got pnl %v", v.Positions[0].PnL)
	}
}

func TestUpdateLeavesAbsentCollectionsUntouched(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyBaseline(baseline())

	st.applyUpdate(&port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 111, PnL: f64(150)}),
	})
	// update carrying only strategies must not disturb position quotes
	st.applyUpdate(&port.StreamPayload{
		Strategies: &[]domain.StreamRollup{{ID: "s1", PnL: f64(7)}},
	})

	v := st.buildView()
	if v.Positions[0].PnL != 150 {
		t.Errorf("absent collections must leave prior stream state, got pnl %v", v.Positions[0].PnL)
	}
}

func TestDisconnectRevertsToBaseline(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyBaseline(baseline())
	st.applyUpdate(&port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 111, PnL: f64(150)}),
	})

	v := st.buildView()
	if v.Positions[0].PnL != 150 || v.PositionTotals.PnL != 150 {
		t.Fatalf("expected live pnl 150, got %v / %v", v.Positions[0].PnL, v.PositionTotals.PnL)
	}
	if v.PositionTotals.PnLOnMarginPct != 15.0 {
		t.Fatalf("expected pnl-on-margin 15.0, got %v", v.PositionTotals.PnLOnMarginPct)
	}

	st.connected = false
	st.clearStream()

	v = st.buildView()
	if v.Positions[0].PnL != 100 {
		t.Errorf("disconnect must revert merged to baseline, got %v", v.Positions[0].PnL)
	}
	if v.PositionTotals.PnL != 100 {
		t.Errorf("totals must follow the reverted set, got %v", v.PositionTotals.PnL)
	}
}

func TestHeldQuoteSurvivesBaselineSwap(t *testing.T) {
	st := newState()
	st.connected = true
	st.applyBaseline(baseline())

	// quote for an instrument the snapshot does not know yet
	st.applyUpdate(&port.StreamPayload{
		Positions: quotes(domain.StreamQuote{InstrumentKey: 222, PnL: f64(9)}),
	})
	if n := len(st.buildView().Positions); n != 1 {
		t.Fatalf("held quote must not be displayed, got %d rows", n)
	}

	// next snapshot includes the new position: the held quote applies
	snap := baseline()
	snap.Positions = append(snap.Positions, domain.Position{ID: "p2", InstrumentKey: 222, PnL: 0})
	st.applyBaseline(snap)

	v := st.buildView()
	if len(v.Positions) != 2 {
		t.Fatalf("expected 2 rows after snapshot includes the instrument, got %d", len(v.Positions))
	}
	if v.Positions[1].PnL != 9 {
		t.Errorf("held quote must overlay once displayed, got %v", v.Positions[1].PnL)
	}
}
