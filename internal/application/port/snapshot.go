package port

import (
	"context"

	"livedesk/internal/domain"
)

// PositionsSnapshot is the authoritative positions baseline plus the
// account summary and server-side totals bundled with it.
type PositionsSnapshot struct {
	Positions []domain.Position
	Account   domain.AccountSummary
	Totals    domain.Totals
}

// StrategiesSnapshot is the strategies baseline with its account and
// totals objects.
type StrategiesSnapshot struct {
	Strategies []domain.Strategy
	Account    domain.AccountSummary
	Totals     domain.Totals
}

// PortfoliosSnapshot is the portfolios baseline.
type PortfoliosSnapshot struct {
	Portfolios []domain.Portfolio
}

// SnapshotSource fetches baseline records over request/response. A
// failed fetch returns an error and the caller keeps its previous
// baseline; implementations never cache.
type SnapshotSource interface {
	FetchPositions(ctx context.Context) (*PositionsSnapshot, error)
	FetchStrategies(ctx context.Context) (*StrategiesSnapshot, error)
	FetchPortfolios(ctx context.Context) (*PortfoliosSnapshot, error)
}
