package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/silogos/Antree-sub001/internal/config"
	"github.com/silogos/Antree-sub001/internal/daemon"
	"github.com/silogos/Antree-sub001/internal/lifecycle"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/metrics"
	"github.com/silogos/Antree-sub001/internal/sse"
	"github.com/silogos/Antree-sub001/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	hub := sse.NewHub(logger, cfg.Hub.ClientBuffer)
	collector := metrics.NewCollector(time.Duration(cfg.Metrics.WindowSeconds)*time.Second, cfg.Metrics.MaxSamples)
	manager := lifecycle.NewManager(st, hub, logger)

	d, err := daemon.New(cfg, st, hub, collector, manager, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("antreed shutting down")
}
