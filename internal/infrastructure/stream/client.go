package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
	"livedesk/internal/infrastructure/metrics"
)

// Config tunes the connection lifecycle. Zero values fall back to the
// production intervals.
type Config struct {
	URL string

	// HeartbeatEvery is how often an outbound {"type":"ping"} is sent
	// while the transport is open.
	HeartbeatEvery time.Duration
	// ReconnectWait is the delay before redialing after an abrupt
	// close. DialRetryWait is the longer delay used when the dial
	// itself fails.
	ReconnectWait time.Duration
	DialRetryWait time.Duration
	// ReadTimeout bounds silence on the socket before the read loop
	// gives up and the reconnect path takes over.
	ReadTimeout time.Duration
	DialTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.HeartbeatEvery <= 0 {
		c.HeartbeatEvery = 25 * time.Second
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 3 * time.Second
	}
	if c.DialRetryWait <= 0 {
		c.DialRetryWait = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

// Client owns one logical push connection to the dashboard stream
// endpoint and manages its whole lifecycle: dial, heartbeat, reconnect
// after an abrupt close, clean shutdown on context cancellation. It
// carries no business semantics; frames are narrowed to typed events at
// this boundary.
type Client struct {
	cfg     Config
	metrics *metrics.Set

	mu      sync.Mutex
	started bool
}

var errAlreadyStarted = errors.New("stream client already started")

func NewClient(cfg Config, m *metrics.Set) *Client {
	cfg.applyDefaults()
	cfg.URL = strings.TrimSpace(cfg.URL)
	return &Client{cfg: cfg, metrics: m}
}

func (c *Client) Name() string { return "dashboard" }

// Events opens the connection loop and returns the typed event channel.
// A second call is rejected: there is exactly one logical connection
// per client, and one in-flight connect attempt at a time.
func (c *Client) Events(ctx context.Context) (<-chan port.StreamEvent, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("stream url empty")
	}
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil, errAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	out := make(chan port.StreamEvent, 256)
	go c.run(ctx, out)
	return out, nil
}

func (c *Client) run(ctx context.Context, out chan<- port.StreamEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Info().Str("url", c.cfg.URL).Msg("stream connecting")
		dctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
		conn, _, err := websocket.DefaultDialer.DialContext(dctx, c.cfg.URL, nil)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("stream dial failed")
			if !sleep(ctx, c.cfg.DialRetryWait) {
				return
			}
			continue
		}

		log.Info().Msg("stream connected")
		c.setConnectedGauge(1)
		emit(ctx, out, port.StreamEvent{Kind: port.StreamConnected})

		err = c.readLoop(ctx, conn, out)

		_ = conn.Close()
		c.setConnectedGauge(0)
		emit(ctx, out, port.StreamEvent{Kind: port.StreamDisconnected})

		if ctx.Err() != nil {
			// Intentional shutdown: no reconnect.
			return
		}

		c.countReconnect()
		log.Warn().Err(err).Msg("stream disconnected, reconnecting")
		if !sleep(ctx, c.cfg.ReconnectWait) {
			return
		}
	}
}

// readLoop pumps frames until the connection breaks or ctx ends. The
// heartbeat ticker and the read deadline live and die together with the
// loop, so teardown leaks no timers.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- port.StreamEvent) error {
	_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	heartbeat := time.NewTicker(c.cfg.HeartbeatEvery)
	defer heartbeat.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
			if ev, ok := c.parse(b); ok {
				emit(ctx, out, ev)
			}
		}
	}()

	// Every exit path joins the reader goroutine first, so a frame
	// parsed mid-shutdown can never be emitted after the caller has
	// announced the disconnect.
	joinReader := func() {
		_ = conn.Close()
		for range errCh {
		}
	}

	for {
		select {
		case <-ctx.Done():
			joinReader()
			return ctx.Err()
		case err := <-errCh:
			joinReader()
			return err
		case <-heartbeat.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, pingFrame); err != nil {
				joinReader()
				return err
			}
		}
	}
}

var pingFrame = []byte(`{"type":"ping"}`)

// wire shapes. Pointer slices distinguish an absent collection from an
// empty one, and pointer fields distinguish null from zero.
type wireFrame struct {
	Type       string        `json:"type"`
	Positions  *[]wireQuote  `json:"positions"`
	Strategies *[]wireRollup `json:"strategies"`
	Portfolios *[]wireRollup `json:"portfolios"`
}

type wireQuote struct {
	InstrumentKey  int64    `json:"instrument_key"`
	LastPrice      *float64 `json:"last_price"`
	PnL            *float64 `json:"pnl"`
	PnLPct         *float64 `json:"pnl_pct"`
	PnLOnMarginPct *float64 `json:"pnl_on_margin_pct"`
}

type wireRollup struct {
	ID             string   `json:"id"`
	PnL            *float64 `json:"pnl"`
	PnLOnMarginPct *float64 `json:"pnl_on_margin_pct"`
}

// parse narrows one inbound frame to a typed event. A malformed frame
// is logged and dropped; it never takes the connection down.
func (c *Client) parse(b []byte) (port.StreamEvent, bool) {
	var f wireFrame
	if err := json.Unmarshal(b, &f); err != nil {
		c.countDropped()
		log.Error().Err(err).Msg("malformed stream frame dropped")
		return port.StreamEvent{}, false
	}
	c.countMessage()

	switch f.Type {
	case "initial_state":
		return port.StreamEvent{Kind: port.StreamInitialState, Payload: toPayload(&f)}, true
	case "update":
		return port.StreamEvent{Kind: port.StreamUpdate, Payload: toPayload(&f)}, true
	case "heartbeat", "heartbeat_ack", "ping", "pong":
		// Keep-alive only; no data effect.
		return port.StreamEvent{}, false
	default:
		c.countDropped()
		log.Warn().Str("type", f.Type).Msg("unknown stream frame type dropped")
		return port.StreamEvent{}, false
	}
}

func toPayload(f *wireFrame) *port.StreamPayload {
	p := &port.StreamPayload{}
	if f.Positions != nil {
		qs := make([]domain.StreamQuote, 0, len(*f.Positions))
		for _, w := range *f.Positions {
			qs = append(qs, domain.StreamQuote{
				InstrumentKey:  w.InstrumentKey,
				LastPrice:      w.LastPrice,
				PnL:            w.PnL,
				PnLPct:         w.PnLPct,
				PnLOnMarginPct: w.PnLOnMarginPct,
			})
		}
		p.Positions = &qs
	}
	if f.Strategies != nil {
		p.Strategies = toRollups(*f.Strategies)
	}
	if f.Portfolios != nil {
		p.Portfolios = toRollups(*f.Portfolios)
	}
	return p
}

func toRollups(ws []wireRollup) *[]domain.StreamRollup {
	rs := make([]domain.StreamRollup, 0, len(ws))
	for _, w := range ws {
		rs = append(rs, domain.StreamRollup{ID: w.ID, PnL: w.PnL, PnLOnMarginPct: w.PnLOnMarginPct})
	}
	return &rs
}

func emit(ctx context.Context, out chan<- port.StreamEvent, ev port.StreamEvent) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Client) setConnectedGauge(v float64) {
	if c.metrics != nil {
		c.metrics.StreamConnected.Set(v)
	}
}

func (c *Client) countMessage() {
	if c.metrics != nil {
		c.metrics.StreamMessages.Inc()
	}
}

func (c *Client) countDropped() {
	if c.metrics != nil {
		c.metrics.StreamDropped.Inc()
	}
}

func (c *Client) countReconnect() {
	if c.metrics != nil {
		c.metrics.StreamReconnects.Inc()
	}
}
