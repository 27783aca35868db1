package domain

// Totals are collection-level sums derived from the current merged set.
// They are always recomputed fresh from a record list; nothing in this
// package memoizes a running total.
type Totals struct {
	PnL            float64
	MarginUsed     float64
	PnLOnMarginPct float64
	Count          int
}

// PnLOnMargin returns pnl over margin as a percentage, 0 when no margin
// is deployed.
func PnLOnMargin(pnl, margin float64) float64 {
	if margin <= 0 {
		return 0
	}
	return pnl / margin * 100
}

// Aggregate sums a merged position list.
func Aggregate(list []Position) Totals {
	var t Totals
	for _, p := range list {
		t.PnL += p.PnL
		t.MarginUsed += p.MarginUsed
	}
	t.PnLOnMarginPct = PnLOnMargin(t.PnL, t.MarginUsed)
	t.Count = len(list)
	return t
}

// AggregateStrategies sums a merged strategy list.
func AggregateStrategies(list []Strategy) Totals {
	var t Totals
	for _, s := range list {
		t.PnL += s.PnL
		t.MarginUsed += s.MarginUsed
	}
	t.PnLOnMarginPct = PnLOnMargin(t.PnL, t.MarginUsed)
	t.Count = len(list)
	return t
}

// AggregatePortfolios sums a merged portfolio list.
func AggregatePortfolios(list []Portfolio) Totals {
	var t Totals
	for _, p := range list {
		t.PnL += p.PnL
		t.MarginUsed += p.MarginUsed
	}
	t.PnLOnMarginPct = PnLOnMargin(t.PnL, t.MarginUsed)
	t.Count = len(list)
	return t
}

// FilterPositionsBySource returns the subset of positions for one
// account source. Consumers re-aggregate the filtered subset with
// Aggregate so displayed totals always match the displayed rows.
func FilterPositionsBySource(list []Position, src Source) []Position {
	out := make([]Position, 0, len(list))
	for _, p := range list {
		if p.Source == src {
			out = append(out, p)
		}
	}
	return out
}
