package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"livedesk/internal/infrastructure/config"
	"livedesk/internal/infrastructure/logger"
	"livedesk/internal/infrastructure/svc"
	"livedesk/internal/interfaces/console"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.SetLevel(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service initialization failed")
	}
	defer func() {
		if err := sc.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown cleanup failed")
		}
	}()

	if cfg.Metrics.Enabled {
		go func() {
			if err := sc.Metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
				log.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- sc.Engine.Run(ctx)
	}()

	log.Info().
		Str("config", *configPath).
		Str("api", cfg.API.BaseURL).
		Str("stream", cfg.Stream.WsURL).
		Msg("livedesk started")

	sink := console.NewSink()
	live := time.NewTicker(time.Second)
	defer live.Stop()
	status := time.NewTicker(time.Duration(cfg.App.StatusEveryMin) * time.Minute)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = sink.NewLine()
			if err := <-engineDone; err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("engine exited")
			}
			return

		case err := <-engineDone:
			if err != nil && err != context.Canceled {
				log.Fatal().Err(err).Msg("engine exited")
			}
			return

		case <-live.C:
			_ = sink.WriteLive(console.RenderLive(sc.Engine.View()))

		case now := <-status.C:
			_ = sink.WriteStatus(now, console.RenderStatus(sc.Engine.View()))
		}
	}
}
