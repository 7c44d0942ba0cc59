package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/snendev/cricket-pong/internal/domain"
	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/internal/infrastructure/storage"
	"github.com/snendev/cricket-pong/internal/server"
	"github.com/snendev/cricket-pong/internal/version"
	"github.com/snendev/cricket-pong/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Конфигурация: .env и CP_*, флаги поверх
	cfg, err := engine.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	var replayPath string
	flag.StringVar(&replayPath, "replay", "", "Path to .cprp replay file to re-simulate")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	flag.StringVar(&cfg.ReplayDir, "replays", cfg.ReplayDir, "Directory for match recordings (empty - disabled)")
	flag.IntVar(&cfg.MaxInstances, "max-instances", cfg.MaxInstances, "Concurrent match limit (0 - unlimited)")
	flag.Parse()

	logger.Log.Info("Starting Cricket Pong host...")
	logger.Log.Info(version.String())

	// РЕЖИМ РЕПЛЕЯ
	if replayPath != "" {
		if err := playback(replayPath); err != nil {
			logger.Log.WithError(err).Fatal("Replay failed")
		}
		return
	}

	// 2. Ядро
	service, err := engine.NewService(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to create service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Цикл игры и HTTP живут и умирают вместе
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		service.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return server.New(service, cfg.Port).Run(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
	}
	logger.Log.Info("Done.")
}

func playback(path string) error {
	session, err := storage.Load(path)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"instance": session.Instance,
		"ticks":    session.Duration,
		"actions":  len(session.Actions),
	}).Info("Mode: Replay Simulation")

	result, err := engine.Playback(session)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"phase":      result.Phase.String(),
		"deliveries": result.Scoreboard.Len(),
		"score_one":  result.Scoreboard.PlayerScore(domain.IdentityOne),
		"score_two":  result.Scoreboard.PlayerScore(domain.IdentityTwo),
	}).Info("Replay finished")
	return nil
}
