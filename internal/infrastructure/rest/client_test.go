package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"livedesk/internal/domain"
)

func apiServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPositions(t *testing.T) {
	srv := apiServer(t, map[string]string{
		"/api/positions": `{
			"positions": [
				{"id":"p1","instrument_key":111,"symbol":"NIFTY25SEPFUT","exchange":"NFO","source":"live",
				 "quantity":50,"avg_price":100,"last_price":103,"pnl":150,"margin_used":1000,"pnl_on_margin_pct":15}
			],
			"account": {"total_margin":50000,"used_margin":1000,"available_margin":49000,"cash":20000},
			"totals": {"pnl":150,"margin_used":1000,"pnl_on_margin_pct":15,"count":1}
		}`,
	})

	c := NewClient(srv.URL, nil)
	snap, err := c.FetchPositions(context.Background())
	if err != nil {
		t.Fatalf("FetchPositions: %v", err)
	}
	if len(snap.Positions) != 1 {
		t.Fatalf("got %d positions", len(snap.Positions))
	}
	p := snap.Positions[0]
	if p.ID != "p1" || p.InstrumentKey != 111 || p.PnL != 150 {
		t.Errorf("position mismatch: %+v", p)
	}
	if p.Source != domain.SourceLive {
		t.Errorf("source = %q", p.Source)
	}
	if snap.Account.AvailableMargin != 49000 {
		t.Errorf("account mismatch: %+v", snap.Account)
	}
	if snap.Totals.PnLOnMarginPct != 15 || snap.Totals.Count != 1 {
		t.Errorf("totals mismatch: %+v", snap.Totals)
	}
}

func TestFetchStrategiesParsesLegs(t *testing.T) {
	srv := apiServer(t, map[string]string{
		"/api/strategies": `{
			"strategies": [
				{"id":"s1","name":"iron-condor","source":"paper","realized_pnl":20,
				 "trades":[{"instrument_key":111,"symbol":"A"},{"instrument_key":222,"symbol":"B"}],
				 "pnl":80,"margin_used":400}
			],
			"totals": {"pnl":80,"margin_used":400,"count":1}
		}`,
	})

	c := NewClient(srv.URL, nil)
	snap, err := c.FetchStrategies(context.Background())
	if err != nil {
		t.Fatalf("FetchStrategies: %v", err)
	}
	if len(snap.Strategies) != 1 {
		t.Fatalf("got %d strategies", len(snap.Strategies))
	}
	s := snap.Strategies[0]
	if len(s.Legs) != 2 || s.Legs[1].InstrumentKey != 222 {
		t.Errorf("legs mismatch: %+v", s.Legs)
	}
	if s.RealizedPnL != 20 {
		t.Errorf("realized pnl = %v", s.RealizedPnL)
	}
}

func TestFetchPortfolios(t *testing.T) {
	srv := apiServer(t, map[string]string{
		"/api/portfolios": `{"portfolios":[{"id":"pf1","name":"sept","strategy_ids":["s1","s2"],"pnl":60}]}`,
	})

	c := NewClient(srv.URL, nil)
	snap, err := c.FetchPortfolios(context.Background())
	if err != nil {
		t.Fatalf("FetchPortfolios: %v", err)
	}
	if len(snap.Portfolios) != 1 {
		t.Fatalf("got %d portfolios", len(snap.Portfolios))
	}
	if got := snap.Portfolios[0].StrategyIDs; len(got) != 2 || got[0] != "s1" {
		t.Errorf("strategy ids mismatch: %v", got)
	}
}

func TestFetchErrorIncludesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil)
	_, err := c.FetchPositions(context.Background())
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "session expired") {
		t.Errorf("error lacks context: %v", err)
	}
}

func TestFetchDecodeError(t *testing.T) {
	srv := apiServer(t, map[string]string{"/api/positions": `{"positions": "nope"}`})

	c := NewClient(srv.URL, nil)
	if _, err := c.FetchPositions(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	srv := apiServer(t, map[string]string{"/api/portfolios": `{"portfolios":[]}`})

	c := NewClient(srv.URL+"/", nil)
	snap, err := c.FetchPortfolios(context.Background())
	if err != nil {
		t.Fatalf("FetchPortfolios: %v", err)
	}
	if len(snap.Portfolios) != 0 {
		t.Fatalf("got %d portfolios", len(snap.Portfolios))
	}
}
