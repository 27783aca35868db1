package reconcile

import (
	"time"

	"livedesk/internal/domain"
)

// View is the read contract exposed to consumers: merged record lists,
// aggregates recomputed from them, and connection health. It is a value
// snapshot; the engine's internal maps are never exposed.
type View struct {
	Positions  []domain.Position
	Strategies []domain.Strategy
	Portfolios []domain.Portfolio

	Account domain.AccountSummary

	PositionTotals  domain.Totals
	StrategyTotals  domain.Totals
	PortfolioTotals domain.Totals

	// Server-side pre-aggregated totals from the last snapshot, kept
	// for cross-checking against the client recomputation.
	ServerPositionTotals domain.Totals
	ServerStrategyTotals domain.Totals

	Connected   bool
	Loaded      bool
	Stale       bool
	LastUpdated time.Time
}
