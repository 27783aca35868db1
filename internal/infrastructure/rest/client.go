package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
	"livedesk/internal/infrastructure/metrics"
)

// Client fetches baseline snapshots from the dashboard REST API. It
// keeps no cache; every call returns the backend's current truth or an
// error, and the caller decides what to do with its previous baseline.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Set
}

func NewClient(baseURL string, m *metrics.Set) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		metrics: m,
	}
}

type wireAccount struct {
	TotalMargin     float64 `json:"total_margin"`
	UsedMargin      float64 `json:"used_margin"`
	AvailableMargin float64 `json:"available_margin"`
	Cash            float64 `json:"cash"`
}

type wireTotals struct {
	PnL            float64 `json:"pnl"`
	MarginUsed     float64 `json:"margin_used"`
	PnLOnMarginPct float64 `json:"pnl_on_margin_pct"`
	Count          int     `json:"count"`
}

type wirePosition struct {
	ID             string  `json:"id"`
	InstrumentKey  int64   `json:"instrument_key"`
	Symbol         string  `json:"symbol"`
	Exchange       string  `json:"exchange"`
	Product        string  `json:"product"`
	Source         string  `json:"source"`
	Label          string  `json:"label"`
	Status         string  `json:"status"`
	Quantity       float64 `json:"quantity"`
	AvgPrice       float64 `json:"avg_price"`
	LastPrice      float64 `json:"last_price"`
	PnL            float64 `json:"pnl"`
	PnLPct         float64 `json:"pnl_pct"`
	MarginUsed     float64 `json:"margin_used"`
	MarginPct      float64 `json:"margin_pct"`
	PnLOnMarginPct float64 `json:"pnl_on_margin_pct"`
}

type wireLeg struct {
	InstrumentKey int64  `json:"instrument_key"`
	Symbol        string `json:"symbol"`
}

type wireStrategy struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	Legs           []wireLeg `json:"trades"`
	RealizedPnL    float64   `json:"realized_pnl"`
	PnL            float64   `json:"pnl"`
	MarginUsed     float64   `json:"margin_used"`
	PnLOnMarginPct float64   `json:"pnl_on_margin_pct"`
}

type wirePortfolio struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	StrategyIDs    []string `json:"strategy_ids"`
	PnL            float64  `json:"pnl"`
	MarginUsed     float64  `json:"margin_used"`
	PnLOnMarginPct float64  `json:"pnl_on_margin_pct"`
}

type positionsResponse struct {
	Positions []wirePosition `json:"positions"`
	Account   wireAccount    `json:"account"`
	Totals    wireTotals     `json:"totals"`
}

type strategiesResponse struct {
	Strategies []wireStrategy `json:"strategies"`
	Account    wireAccount    `json:"account"`
	Totals     wireTotals     `json:"totals"`
}

type portfoliosResponse struct {
	Portfolios []wirePortfolio `json:"portfolios"`
}

func (c *Client) FetchPositions(ctx context.Context) (*port.PositionsSnapshot, error) {
	var resp positionsResponse
	if err := c.get(ctx, "/api/positions", &resp); err != nil {
		return nil, err
	}
	out := &port.PositionsSnapshot{
		Positions: make([]domain.Position, 0, len(resp.Positions)),
		Account:   toAccount(resp.Account),
		Totals:    toTotals(resp.Totals),
	}
	for _, w := range resp.Positions {
		out.Positions = append(out.Positions, domain.Position{
			ID:             w.ID,
			InstrumentKey:  w.InstrumentKey,
			Symbol:         w.Symbol,
			Exchange:       w.Exchange,
			Product:        w.Product,
			Source:         domain.ParseSource(w.Source),
			Label:          w.Label,
			Status:         w.Status,
			Quantity:       w.Quantity,
			AvgPrice:       w.AvgPrice,
			LastPrice:      w.LastPrice,
			PnL:            w.PnL,
			PnLPct:         w.PnLPct,
			MarginUsed:     w.MarginUsed,
			MarginPct:      w.MarginPct,
			PnLOnMarginPct: w.PnLOnMarginPct,
		})
	}
	return out, nil
}

func (c *Client) FetchStrategies(ctx context.Context) (*port.StrategiesSnapshot, error) {
	var resp strategiesResponse
	if err := c.get(ctx, "/api/strategies", &resp); err != nil {
		return nil, err
	}
	out := &port.StrategiesSnapshot{
		Strategies: make([]domain.Strategy, 0, len(resp.Strategies)),
		Account:    toAccount(resp.Account),
		Totals:     toTotals(resp.Totals),
	}
	for _, w := range resp.Strategies {
		legs := make([]domain.StrategyLeg, 0, len(w.Legs))
		for _, l := range w.Legs {
			legs = append(legs, domain.StrategyLeg{InstrumentKey: l.InstrumentKey, Symbol: l.Symbol})
		}
		out.Strategies = append(out.Strategies, domain.Strategy{
			ID:             w.ID,
			Name:           w.Name,
			Status:         w.Status,
			Source:         domain.ParseSource(w.Source),
			Legs:           legs,
			RealizedPnL:    w.RealizedPnL,
			PnL:            w.PnL,
			MarginUsed:     w.MarginUsed,
			PnLOnMarginPct: w.PnLOnMarginPct,
		})
	}
	return out, nil
}

func (c *Client) FetchPortfolios(ctx context.Context) (*port.PortfoliosSnapshot, error) {
	var resp portfoliosResponse
	if err := c.get(ctx, "/api/portfolios", &resp); err != nil {
		return nil, err
	}
	out := &port.PortfoliosSnapshot{
		Portfolios: make([]domain.Portfolio, 0, len(resp.Portfolios)),
	}
	for _, w := range resp.Portfolios {
		out.Portfolios = append(out.Portfolios, domain.Portfolio{
			ID:             w.ID,
			Name:           w.Name,
			Status:         w.Status,
			StrategyIDs:    w.StrategyIDs,
			PnL:            w.PnL,
			MarginUsed:     w.MarginUsed,
			PnLOnMarginPct: w.PnLOnMarginPct,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	started := time.Now()
	err := c.doGet(ctx, path, dst)
	if c.metrics != nil {
		c.metrics.SnapshotFetchDur.Observe(time.Since(started).Seconds())
		if err != nil {
			c.metrics.SnapshotFailures.Inc()
		}
	}
	return err
}

func (c *Client) doGet(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dashboard api error: %s %d %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func toAccount(w wireAccount) domain.AccountSummary {
	return domain.AccountSummary{
		TotalMargin:     w.TotalMargin,
		UsedMargin:      w.UsedMargin,
		AvailableMargin: w.AvailableMargin,
		Cash:            w.Cash,
	}
}

func toTotals(w wireTotals) domain.Totals {
	return domain.Totals{
		PnL:            w.PnL,
		MarginUsed:     w.MarginUsed,
		PnLOnMarginPct: w.PnLOnMarginPct,
		Count:          w.Count,
	}
}
