package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/silogos/Antree-sub001/internal/config"
	"github.com/silogos/Antree-sub001/internal/lifecycle"
	"github.com/silogos/Antree-sub001/internal/logging"
	"github.com/silogos/Antree-sub001/internal/metrics"
	"github.com/silogos/Antree-sub001/internal/sse"
	"github.com/silogos/Antree-sub001/internal/store"
)

// Daemon coordinates the API server, the SSE hub's maintenance loops, and
// enforces single-instance execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	hub     *sse.Hub
	metrics *metrics.Collector
	manager *lifecycle.Manager

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, hub *sse.Hub, collector *metrics.Collector, manager *lifecycle.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || hub == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, hub, and lifecycle manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "antreed.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		hub:      hub,
		metrics:  collector,
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and launches the
// hub's keep-alive and idle-sweep loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another antree daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.wg.Add(2)
	go d.keepAliveLoop(d.ctx)
	go d.idleSweepLoop(d.ctx)

	d.running.Store(true)
	d.logger.Info("antree daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server, closes the hub, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	d.hub.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("antree daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the API listener address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

func (d *Daemon) keepAliveLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Hub.KeepAliveSeconds) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.hub.KeepAlive()
		}
	}
}

func (d *Daemon) idleSweepLoop(ctx context.Context) {
	defer d.wg.Done()
	interval := time.Duration(d.cfg.Hub.SweepIntervalSeconds) * time.Second
	maxIdle := time.Duration(d.cfg.Hub.IdleTimeoutSeconds) * time.Second
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := d.hub.CleanupIdle(maxIdle); removed > 0 {
				d.logger.Info("idle subscribers removed", logging.Int("count", removed))
			}
		}
	}
}
