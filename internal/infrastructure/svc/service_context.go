package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"livedesk/internal/application/port"
	"livedesk/internal/application/usecase/reconcile"
	"livedesk/internal/infrastructure/config"
	"livedesk/internal/infrastructure/metrics"
	"livedesk/internal/infrastructure/rest"
	"livedesk/internal/infrastructure/storage"
	"livedesk/internal/infrastructure/storage/composite"
	pgrepo "livedesk/internal/infrastructure/storage/postgres"
	redisrepo "livedesk/internal/infrastructure/storage/redis"
	sqliterepo "livedesk/internal/infrastructure/storage/sqlite"
	"livedesk/internal/infrastructure/stream"
)

// ServiceContext wires config into the engine and its collaborators.
// It is the single startup entry point; everything initialized here is
// released in reverse order by Close.
type ServiceContext struct {
	Config *config.Config

	Engine  *reconcile.Engine
	Metrics *metrics.Set

	closerChain []func() error
}

// New builds the full dependency graph from config.
func New(cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Config:  cfg,
		Metrics: metrics.New(),
	}

	repo, err := sc.buildRepo(cfg)
	if err != nil {
		_ = sc.Close()
		return nil, err
	}

	streamClient := stream.NewClient(stream.Config{
		URL:            cfg.Stream.WsURL,
		HeartbeatEvery: time.Duration(cfg.Stream.HeartbeatSec) * time.Second,
		ReconnectWait:  time.Duration(cfg.Stream.ReconnectSec) * time.Second,
		DialRetryWait:  time.Duration(cfg.Stream.DialRetrySec) * time.Second,
		ReadTimeout:    time.Duration(cfg.Stream.ReadTimeoutSec) * time.Second,
	}, sc.Metrics)

	restClient := rest.NewClient(cfg.API.BaseURL, sc.Metrics)

	sc.Engine = reconcile.New(reconcile.Deps{
		Stream:       streamClient,
		Snapshots:    restClient,
		Repo:         repo,
		RefreshEvery: time.Duration(cfg.Engine.RefreshEverySec) * time.Second,
		PollEvery:    time.Duration(cfg.Engine.PollEverySec) * time.Second,
	})
	return sc, nil
}

func (sc *ServiceContext) buildRepo(cfg *config.Config) (port.HistoryRepository, error) {
	repos := []port.HistoryRepository{storage.NewMemoryRepo()}

	if cfg.Storage.SQLite.Enabled {
		r, err := sqliterepo.New(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: sqlite: %v", ErrStorageInitFailed, err)
		}
		sc.closerChain = append(sc.closerChain, r.Close)
		repos = append(repos, r)
		log.Info().Str("path", cfg.Storage.SQLite.Path).Msg("sqlite history enabled")
	}

	if cfg.Storage.Postgres.Enabled {
		r, err := pgrepo.New(cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres: %v", ErrStorageInitFailed, err)
		}
		sc.closerChain = append(sc.closerChain, r.Close)
		repos = append(repos, r)
		log.Info().Msg("postgres history enabled")
	}

	if cfg.Storage.Redis.Enabled {
		rdb := redisclient.NewClient(&redisclient.Options{Addr: cfg.Storage.Redis.Addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("%w: redis: %v", ErrStorageInitFailed, err)
		}
		r := redisrepo.New(rdb, cfg.Storage.Redis.Prefix, 24*time.Hour)
		sc.closerChain = append(sc.closerChain, r.Close)
		repos = append(repos, r)
		log.Info().Str("addr", cfg.Storage.Redis.Addr).Msg("redis history enabled")
	}

	return composite.New(repos...), nil
}

// Close releases resources in reverse initialization order.
func (sc *ServiceContext) Close() error {
	var firstErr error
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
