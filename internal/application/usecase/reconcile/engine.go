package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"livedesk/internal/application/port"
	"livedesk/internal/domain"
)

// Deps are the injected collaborators of an Engine. Repo may be nil.
type Deps struct {
	Stream    port.Stream
	Snapshots port.SnapshotSource
	Repo      port.HistoryRepository

	// RefreshEvery is the snapshot interval while the stream is up and
	// push covers per-instrument freshness. PollEvery is the short
	// interval used while disconnected, when polling is the only
	// freshness mechanism.
	RefreshEvery time.Duration
	PollEvery    time.Duration
}

func (d *Deps) applyDefaults() {
	if d.RefreshEvery <= 0 {
		d.RefreshEvery = 60 * time.Second
	}
	if d.PollEvery <= 0 {
		d.PollEvery = 5 * time.Second
	}
}

// Engine keeps the merged view of positions, strategies and portfolios
// consistent under the snapshot and stream inputs. All mutation happens
// on the single Run goroutine; each merge computation works from the
// inputs captured when it starts. Readers get value copies via View.
type Engine struct {
	deps Deps
	st   *state // owned by the Run goroutine

	mu   sync.RWMutex
	view View

	refreshCh chan struct{}
	limiter   *rate.Limiter
}

type fetchResult struct {
	seq  uint64
	snap *domain.Snapshot
	err  error
}

// New builds an engine instance. Instances are independent; nothing is
// shared at package level.
func New(deps Deps) *Engine {
	deps.applyDefaults()
	return &Engine{
		deps:      deps,
		st:        newState(),
		refreshCh: make(chan struct{}, 1),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// View returns a copy of the current merged view. Safe from any
// goroutine.
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Refresh requests a snapshot refetch (manual refresh, post-mutation).
// Bursts are coalesced and rate-limited so user actions cannot stampede
// the REST API.
func (e *Engine) Refresh() {
	if !e.limiter.Allow() {
		return
	}
	select {
	case e.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the engine until ctx is cancelled. It owns the event loop:
// stream events, snapshot completions, refresh requests and the
// mode-dependent snapshot timer are all serialized here.
func (e *Engine) Run(ctx context.Context) error {
	events, err := e.deps.Stream.Events(ctx)
	if err != nil {
		return err
	}

	results := make(chan fetchResult, 4)
	var issued, applied uint64

	startFetch := func() {
		issued++
		go e.fetch(ctx, issued, results)
	}
	startFetch()

	timer := time.NewTimer(e.interval())
	defer timer.Stop()

	rearm := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(e.interval())
	}

	for {
		select {
		case <-ctx.Done():
			// Outstanding fetches resolve into a buffered channel and
			// are abandoned, not cancelled mid-flight.
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if e.handleStreamEvent(ctx, ev) {
				rearm()
			}
			e.publish()

		case r := <-results:
			if r.seq <= applied {
				// An older in-flight fetch resolved after a newer one.
				log.Debug().Uint64("seq", r.seq).Msg("stale snapshot result discarded")
				continue
			}
			if r.err != nil {
				// Keep the last good baseline; just flag staleness.
				e.st.stale = true
				log.Warn().Err(r.err).Uint64("seq", r.seq).Msg("snapshot fetch failed, keeping previous baseline")
				e.publish()
				continue
			}
			applied = r.seq
			e.st.applyBaseline(r.snap)
			e.publish()
			e.persistBaseline(ctx)

		case <-timer.C:
			startFetch()
			timer.Reset(e.interval())

		case <-e.refreshCh:
			startFetch()
		}
	}
}

func (e *Engine) interval() time.Duration {
	if e.st.connected {
		return e.deps.RefreshEvery
	}
	return e.deps.PollEvery
}

// handleStreamEvent applies one typed stream event to the loop-owned
// state. Returns true when connectivity flipped, so the caller can
// rearm the snapshot timer for the new mode.
func (e *Engine) handleStreamEvent(ctx context.Context, ev port.StreamEvent) bool {
	st := e.st
	switch ev.Kind {
	case port.StreamConnected:
		if st.connected {
			return false
		}
		st.connected = true
		log.Info().Msg("stream up, switching to push mode")
		e.recordConnectivity(ctx, true)
		return true

	case port.StreamDisconnected:
		if !st.connected {
			return false
		}
		st.connected = false
		st.clearStream()
		log.Warn().Msg("stream down, degrading to polling mode")
		e.recordConnectivity(ctx, false)
		return true

	case port.StreamInitialState:
		// Data events belong to a live session. One arriving while
		// disconnected is a leftover from a dead connection and must
		// not repopulate the maps clearStream just emptied.
		if !st.connected {
			return false
		}
		st.applyInitial(ev.Payload)

	case port.StreamUpdate:
		if !st.connected {
			return false
		}
		st.applyUpdate(ev.Payload)
	}
	return false
}

// publish recomputes the merged view from the state captured now and
// swaps it in atomically for readers.
func (e *Engine) publish() {
	v := e.st.buildView()
	e.mu.Lock()
	e.view = v
	e.mu.Unlock()
}

func (e *Engine) persistBaseline(ctx context.Context) {
	if e.deps.Repo == nil {
		return
	}
	v := e.View()
	ts := time.Now().UnixMilli()

	// Best-effort: persistence never blocks the merge path, but a
	// failing backend must still be visible in the logs.
	var firstErr error
	for _, p := range v.Positions {
		if err := e.deps.Repo.UpsertLatestPosition(ctx, p, ts); err != nil {
			firstErr = err
			break
		}
	}
	record := func(collection string, t domain.Totals) {
		if err := e.deps.Repo.InsertTotals(ctx, ts, collection, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record("positions", v.PositionTotals)
	record("strategies", v.StrategyTotals)
	record("portfolios", v.PortfolioTotals)

	if firstErr != nil {
		log.Warn().Err(firstErr).Msg("history write failed")
	}
}

func (e *Engine) recordConnectivity(ctx context.Context, connected bool) {
	if e.deps.Repo == nil {
		return
	}
	if err := e.deps.Repo.InsertConnectivityEvent(ctx, time.Now().UnixMilli(), connected); err != nil {
		log.Warn().Err(err).Bool("connected", connected).Msg("connectivity write failed")
	}
}

func (e *Engine) fetch(ctx context.Context, seq uint64, out chan<- fetchResult) {
	fid := uuid.NewString()
	started := time.Now()

	snap, err := e.fetchAll(ctx)
	if err == nil {
		log.Debug().
			Str("fetch_id", fid).
			Uint64("seq", seq).
			Int("positions", len(snap.Positions)).
			Int("strategies", len(snap.Strategies)).
			Int("portfolios", len(snap.Portfolios)).
			Dur("took", time.Since(started)).
			Msg("snapshot fetched")
	} else {
		log.Debug().Str("fetch_id", fid).Uint64("seq", seq).Err(err).Msg("snapshot fetch error")
	}

	select {
	case out <- fetchResult{seq: seq, snap: snap, err: err}:
	case <-ctx.Done():
		// Late result after teardown is a no-op.
	}
}

func (e *Engine) fetchAll(ctx context.Context) (*domain.Snapshot, error) {
	pos, err := e.deps.Snapshots.FetchPositions(ctx)
	if err != nil {
		return nil, err
	}
	strat, err := e.deps.Snapshots.FetchStrategies(ctx)
	if err != nil {
		return nil, err
	}
	ports, err := e.deps.Snapshots.FetchPortfolios(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		Positions:      pos.Positions,
		Strategies:     strat.Strategies,
		Portfolios:     ports.Portfolios,
		Account:        pos.Account,
		PositionTotals: pos.Totals,
		StrategyTotals: strat.Totals,
		FetchedAt:      time.Now(),
	}, nil
}
