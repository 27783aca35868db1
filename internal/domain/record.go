package domain

import (
	"strings"
	"time"
)

// Source identifies which account a record belongs to.
type Source string

const (
	SourceLive  Source = "LIVE"
	SourcePaper Source = "PAPER"
)

// ParseSource normalizes the source spellings seen on the wire.
// Unknown values pass through uppercased so they remain filterable.
func ParseSource(s string) Source {
	return Source(strings.ToUpper(strings.TrimSpace(s)))
}

// AccountSummary holds the top-level margin figures bundled with
// positions/strategies snapshots.
type AccountSummary struct {
	TotalMargin     float64
	UsedMargin      float64
	AvailableMargin float64
	Cash            float64
}

// Position is a baseline record from the snapshot API. The stream only
// carries the fast-moving fields (last price, P&L); everything else is
// authoritative here until the next snapshot replaces it wholesale.
type Position struct {
	ID            string // backend record id, stable for UI identity
	InstrumentKey int64  // exchange token correlating snapshot and stream
	Symbol        string
	Exchange      string
	Product       string
	Source        Source
	Label         string
	Status        string

	Quantity float64
	AvgPrice float64

	LastPrice      float64
	PnL            float64
	PnLPct         float64
	MarginUsed     float64
	MarginPct      float64
	PnLOnMarginPct float64
}

// StrategyLeg references one constituent trade of a strategy by its
// instrument key.
type StrategyLeg struct {
	InstrumentKey int64
	Symbol        string
}

// Strategy groups positions. Its unrealized totals are derived from the
// merged values of its legs, not streamed directly.
type Strategy struct {
	ID     string
	Name   string
	Status string
	Source Source
	Legs   []StrategyLeg

	RealizedPnL    float64
	PnL            float64 // realized + unrealized, recomputed from legs
	MarginUsed     float64
	PnLOnMarginPct float64
}

// Portfolio groups strategies.
type Portfolio struct {
	ID          string
	Name        string
	Status      string
	StrategyIDs []string

	PnL            float64
	MarginUsed     float64
	PnLOnMarginPct float64
}

// StreamQuote is a partial per-instrument record from the push stream.
// Pointer fields distinguish "absent" from zero: an absent field must
// never clobber a present baseline value.
type StreamQuote struct {
	InstrumentKey  int64
	LastPrice      *float64
	PnL            *float64
	PnLPct         *float64
	PnLOnMarginPct *float64
}

// StreamRollup is a pushed strategy/portfolio-level entry, keyed by
// record id.
type StreamRollup struct {
	ID             string
	PnL            *float64
	PnLOnMarginPct *float64
}

// Snapshot bundles one completed baseline fetch across all collections.
type Snapshot struct {
	Positions  []Position
	Strategies []Strategy
	Portfolios []Portfolio
	Account    AccountSummary

	// Pre-aggregated server-side totals, kept as the initial values
	// before any client-side recomputation.
	PositionTotals Totals
	StrategyTotals Totals

	FetchedAt time.Time
}
