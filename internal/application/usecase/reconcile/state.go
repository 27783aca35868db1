package reconcile

import (
	"time"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

// state is the loop-owned mutable state of the engine: the latest
// completed baseline per collection plus the latest stream record per
// key. Only the Run goroutine touches it; readers get copies via View.
type state struct {
	loaded      bool
	positions   []domain.Position
	strategies  []domain.Strategy
	portfolios  []domain.Portfolio
	account     domain.AccountSummary
	serverPos   domain.Totals
	serverStrat domain.Totals

	quotes          map[int64]domain.StreamQuote
	strategyRollups map[string]domain.StreamRollup
	portfolioRollup map[string]domain.StreamRollup

	connected   bool
	stale       bool
	lastUpdated time.Time
}

func newState() *state {
	return &state{
		quotes:          make(map[int64]domain.StreamQuote),
		strategyRollups: make(map[string]domain.StreamRollup),
		portfolioRollup: make(map[string]domain.StreamRollup),
	}
}

// applyBaseline replaces the baseline wholesale. Stream records survive
// a baseline swap: a quote for an instrument the old snapshot did not
// know about becomes visible once the new one includes it.
func (s *state) applyBaseline(snap *domain.Snapshot) {
	s.positions = snap.Positions
	s.strategies = snap.Strategies
	s.portfolios = snap.Portfolios
	s.account = snap.Account
	s.serverPos = snap.PositionTotals
	s.serverStrat = snap.StrategyTotals
	s.loaded = true
	s.stale = false
	s.lastUpdated = snap.FetchedAt
}

// applyInitial replaces the whole per-key stream state with the message
// contents. Absent collections clear to empty, which makes reapplying
// the same initial_state a no-op.
func (s *state) applyInitial(p *port.StreamPayload) {
	s.quotes = make(map[int64]domain.StreamQuote)
	s.strategyRollups = make(map[string]domain.StreamRollup)
	s.portfolioRollup = make(map[string]domain.StreamRollup)
	if p == nil {
		return
	}
	s.mergePayload(p)
}

// applyUpdate merges only the collections present in the message;
// absent ones keep their prior stream state.
func (s *state) applyUpdate(p *port.StreamPayload) {
	if p == nil {
		return
	}
	s.mergePayload(p)
}

func (s *state) mergePayload(p *port.StreamPayload) {
	if p.Positions != nil {
		for _, q := range *p.Positions {
			s.quotes[q.InstrumentKey] = q
		}
	}
	if p.Strategies != nil {
		for _, r := range *p.Strategies {
			s.strategyRollups[r.ID] = r
		}
	}
	if p.Portfolios != nil {
		for _, r := range *p.Portfolios {
			s.portfolioRollup[r.ID] = r
		}
	}
}

// clearStream drops all stream contributions. Called on disconnect so
// stale live values never survive a drop.
func (s *state) clearStream() {
	s.quotes = make(map[int64]domain.StreamQuote)
	s.strategyRollups = make(map[string]domain.StreamRollup)
	s.portfolioRollup = make(map[string]domain.StreamRollup)
}

// buildView computes the merged view and aggregates from the inputs
// captured at call time. Merge before any baseline has loaded is a
// no-op: the view stays empty.
func (s *state) buildView() View {
	v := View{
		Connected:            s.connected,
		Loaded:               s.loaded,
		Stale:                s.stale,
		LastUpdated:          s.lastUpdated,
		Account:              s.account,
		ServerPositionTotals: s.serverPos,
		ServerStrategyTotals: s.serverStrat,
	}
	if !s.loaded {
		return v
	}

	v.Positions = domain.MergePositions(s.positions, s.quotes, s.connected)
	v.Strategies = domain.MergeStrategies(s.strategies, v.Positions, s.strategyRollups, s.connected)
	v.Portfolios = domain.MergePortfolios(s.portfolios, v.Strategies, s.portfolioRollup, s.connected)

	v.PositionTotals = domain.Aggregate(v.Positions)
	v.StrategyTotals = domain.AggregateStrategies(v.Strategies)
	v.PortfolioTotals = domain.AggregatePortfolios(v.Portfolios)
	return v
}
