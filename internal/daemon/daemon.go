package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lmbridge/internal/api"
	"lmbridge/internal/config"
	"lmbridge/internal/logging"
	"lmbridge/internal/preflight"
	"lmbridge/internal/reconcile"
	"lmbridge/internal/store"
)

// ErrAlreadyRunning reports that another process holds the state lock.
var ErrAlreadyRunning = errors.New("another lmbridge instance is already running")

// Daemon owns the state lock, serializes event delivery, and serves the API.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	engine  *reconcile.Engine
	service *api.Service

	lockPath string
	lock     *flock.Flock

	eventMu sync.Mutex
	api     *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, engine *reconcile.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || engine == nil {
		return nil, errors.New("daemon requires config, store, and reconcile engine")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		engine:   engine,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.service = api.NewService(st, d, logger)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Handle delivers one lifecycle event to the engine. Deliveries never overlap.
func (d *Daemon) Handle(ctx context.Context, event reconcile.Event) {
	d.eventMu.Lock()
	defer d.eventMu.Unlock()
	d.engine.Handle(ctx, event)
}

// Start acquires the lock, runs the startup reconciliation, and starts the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.Handle(d.ctx, reconcile.Event{Kind: reconcile.EventProcessStarted})

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("lmbridge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no lmbridge process is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("lmbridge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Service exposes the provider operations backed by this daemon.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Addr returns the address the API listens on, once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (api.Status, error) {
	status, err := d.service.Status(ctx)
	if err != nil {
		return status, err
	}
	status.Running = d.running.Load()
	status.PID = os.Getpid()
	status.DatabasePath = d.store.Path()
	status.LockPath = d.lockPath
	status.MarkerPath = d.cfg.MarkerPath()
	d.eventMu.Lock()
	last := d.engine.LastDispatched()
	d.eventMu.Unlock()
	if last != "" {
		status.LastReleaseFilter = []byte(last)
	}
	status.Checks = preflight.RunAll(ctx, d.cfg, status.ActiveProvider.SourceURL())
	return status, nil
}
