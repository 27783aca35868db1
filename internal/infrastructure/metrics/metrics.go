package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Set holds the engine's Prometheus instruments.
type Set struct {
	StreamConnected  prometheus.Gauge
	StreamMessages   prometheus.Counter
	StreamDropped    prometheus.Counter
	StreamReconnects prometheus.Counter

	SnapshotFetchDur prometheus.Histogram
	SnapshotFailures prometheus.Counter

	registry *prometheus.Registry
}

// New registers all instruments on a private registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	s := &Set{
		StreamConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livedesk_stream_connected",
			Help: "1 while the push stream is connected, 0 otherwise.",
		}),
		StreamMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livedesk_stream_messages_total",
			Help: "Inbound stream frames parsed.",
		}),
		StreamDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livedesk_stream_dropped_total",
			Help: "Inbound stream frames dropped as malformed or unknown.",
		}),
		StreamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livedesk_stream_reconnects_total",
			Help: "Reconnect attempts after abrupt closes.",
		}),
		SnapshotFetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livedesk_snapshot_fetch_seconds",
			Help:    "Duration of full snapshot fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livedesk_snapshot_failures_total",
			Help: "Snapshot fetches that returned an error.",
		}),
		registry: reg,
	}
	reg.MustRegister(
		s.StreamConnected,
		s.StreamMessages,
		s.StreamDropped,
		s.StreamReconnects,
		s.SnapshotFetchDur,
		s.SnapshotFailures,
	)
	return s
}

// Serve exposes /metrics until ctx is cancelled.
func (s *Set) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
