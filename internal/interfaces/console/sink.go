package console

import (
	"fmt"
	"time"

	"livedesk/internal/application/port"
	"livedesk/internal/application/usecase/reconcile"
)

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

func (s *Sink) WriteLive(line string) error {
	fmt.Print(line) // no newline, redrawn in place
	return nil
}

func (s *Sink) WriteStatus(ts time.Time, line string) error {
	fmt.Print("\n")
	fmt.Printf("%s %s\n", ts.Format("2006-01-02 15:04:05"), line)
	fmt.Print("\n")
	return nil
}

func (s *Sink) NewLine() error {
	fmt.Print("\n")
	return nil
}

// RenderLive formats the one-line live view: connectivity plus
// per-collection totals.
func RenderLive(v reconcile.View) string {
	conn := "OFFLINE/polling"
	if v.Connected {
		conn = "LIVE"
	}
	if !v.Loaded {
		return fmt.Sprintf("\r[%s] loading...", conn)
	}
	stale := ""
	if v.Stale {
		stale = " (stale)"
	}
	return fmt.Sprintf("\r[%s]%s pos %d pnl %.2f | strat %d pnl %.2f | port %d pnl %.2f | margin %.0f (%.2f%%)",
		conn, stale,
		v.PositionTotals.Count, v.PositionTotals.PnL,
		v.StrategyTotals.Count, v.StrategyTotals.PnL,
		v.PortfolioTotals.Count, v.PortfolioTotals.PnL,
		v.PositionTotals.MarginUsed, v.PositionTotals.PnLOnMarginPct)
}

// RenderStatus formats the periodic status line with account figures
// and data age.
func RenderStatus(v reconcile.View) string {
	age := "-"
	if !v.LastUpdated.IsZero() {
		age = time.Since(v.LastUpdated).Truncate(time.Second).String()
	}
	return fmt.Sprintf("account total %.0f used %.0f avail %.0f | pnl %.2f on margin %.2f%% | baseline age %s",
		v.Account.TotalMargin, v.Account.UsedMargin, v.Account.AvailableMargin,
		v.PositionTotals.PnL, v.PositionTotals.PnLOnMarginPct, age)
}
