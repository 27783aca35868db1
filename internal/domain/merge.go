package domain

// OverlayPosition copies stream-sourced fields onto a baseline position.
// Only non-nil quote fields win; margin, product, source and identity
// always pass through from the baseline. The P&L-on-margin ratio is
// recomputed from the merged P&L unless the stream pushed one.
func OverlayPosition(base Position, q StreamQuote) Position {
	out := base
	if q.LastPrice != nil {
		out.LastPrice = *q.LastPrice
	}
	if q.PnL != nil {
		out.PnL = *q.PnL
	}
	if q.PnLPct != nil {
		out.PnLPct = *q.PnLPct
	}
	if q.PnLOnMarginPct != nil {
		out.PnLOnMarginPct = *q.PnLOnMarginPct
	} else if q.PnL != nil {
		out.PnLOnMarginPct = PnLOnMargin(out.PnL, out.MarginUsed)
	}
	return out
}

// MergePositions produces the merged view for the positions collection.
// While disconnected the baseline passes through untouched, so stale
// stream values never outlive a drop. Quotes with no matching baseline
// entry are simply not visited; they stay held in the stream map until
// a later snapshot includes the instrument. Duplicate instrument keys
// across baseline entries all receive the same overlay.
func MergePositions(base []Position, quotes map[int64]StreamQuote, connected bool) []Position {
	out := make([]Position, len(base))
	copy(out, base)
	if !connected || len(quotes) == 0 {
		return out
	}
	for i := range out {
		if q, ok := quotes[out[i].InstrumentKey]; ok {
			out[i] = OverlayPosition(out[i], q)
		}
	}
	return out
}

// MergeStrategies recomputes strategy totals from the merged values of
// their legs. A strategy with recorded legs always derives its P&L as
// sum(leg merged pnl) + realized; one without legs keeps the pushed
// rollup value when connected, else the baseline.
func MergeStrategies(base []Strategy, merged []Position, rollups map[string]StreamRollup, connected bool) []Strategy {
	keyPnL := make(map[int64]float64, len(merged))
	for _, p := range merged {
		keyPnL[p.InstrumentKey] += p.PnL
	}

	out := make([]Strategy, len(base))
	copy(out, base)
	for i := range out {
		s := &out[i]
		if len(s.Legs) > 0 {
			sum := s.RealizedPnL
			for _, leg := range s.Legs {
				sum += keyPnL[leg.InstrumentKey]
			}
			s.PnL = sum
		} else if connected {
			if r, ok := rollups[s.ID]; ok && r.PnL != nil {
				s.PnL = *r.PnL
			}
		}
		s.PnLOnMarginPct = PnLOnMargin(s.PnL, s.MarginUsed)
	}
	return out
}

// MergePortfolios rolls merged strategy totals up into portfolios.
func MergePortfolios(base []Portfolio, strategies []Strategy, rollups map[string]StreamRollup, connected bool) []Portfolio {
	byID := make(map[string]*Strategy, len(strategies))
	for i := range strategies {
		byID[strategies[i].ID] = &strategies[i]
	}

	out := make([]Portfolio, len(base))
	copy(out, base)
	for i := range out {
		p := &out[i]
		if len(p.StrategyIDs) > 0 {
			var pnl, margin float64
			for _, id := range p.StrategyIDs {
				if s, ok := byID[id]; ok {
					pnl += s.PnL
					margin += s.MarginUsed
				}
			}
			p.PnL = pnl
			p.MarginUsed = margin
		} else if connected {
			if r, ok := rollups[p.ID]; ok && r.PnL != nil {
				p.PnL = *r.PnL
			}
		}
		p.PnLOnMarginPct = PnLOnMargin(p.PnL, p.MarginUsed)
	}
	return out
}
