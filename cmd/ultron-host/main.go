package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/host"
	"github.com/admitra/ultron-host/internal/infrastructure/config"
	"github.com/admitra/ultron-host/internal/infrastructure/logging"
	"github.com/admitra/ultron-host/internal/infrastructure/monitoring"
	"github.com/admitra/ultron-host/internal/state"
	"github.com/admitra/ultron-host/internal/statesync"
	"github.com/admitra/ultron-host/internal/supervisor"
)

func main() {
	mode := flag.String("mode", "", "deployment mode (dev|packaged)")
	backendURL := flag.String("backend", "", "backend base URL")
	manifest := flag.String("manifest", "", "launch manifest path (TOML)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *mode != "" {
		cfg.Launch.Mode = *mode
	}
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *manifest != "" {
		cfg.Launch.ManifestPath = *manifest
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	spec, err := supervisor.ResolveLaunchSpec(supervisor.Mode(cfg.Launch.Mode), cfg.Launch.ManifestPath)
	if err != nil {
		logger.Fatal("unresolvable launch spec", zap.Error(err))
	}

	logger.Info("ultron host starting",
		zap.String("mode", cfg.Launch.Mode),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	metrics := monitoring.NewMetrics()
	store := state.NewStore()
	conv := state.NewLog()

	sup := supervisor.New(spec, logger.Named("supervisor")).WithMetrics(metrics)
	sync := statesync.New(cfg.Backend, store, conv, logger.Named("sync"), metrics)
	presenter := host.NewLogPresenter(logger.Named("ui"))

	h := host.New(sup, sync, store, conv, presenter, cfg.Launch.PresentDelay, logger.Named("host"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := h.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("host exited with error", zap.Error(err))
	}
	logger.Info("ultron host stopped")
}
