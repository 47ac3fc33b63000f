package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"lmbridge/internal/api"
	"lmbridge/internal/config"
	"lmbridge/internal/daemonrun"
	"lmbridge/internal/logging"
	"lmbridge/internal/preflight"
	"lmbridge/internal/reconcile"
	"lmbridge/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withHost runs fn against the running daemon when one holds the state lock,
// or against an in-process service guarded by the same lock otherwise.
func (c *commandContext) withHost(cmd *cobra.Command, fn func(ctx context.Context, host api.Host) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		client := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken, 0)
		if err := fn(ctx, client); err != nil {
			return wrapDaemonError(err, cfg.Paths.APIBind)
		}
		return nil
	}
	defer lock.Unlock()

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	engine := daemonrun.NewEngine(cfg, st, logger, version)
	host := &localHost{
		Service: api.NewService(st, engine, logger),
		cfg:     cfg,
		store:   st,
		engine:  engine,
	}
	return fn(ctx, host)
}

// localHost is the in-process Host used when no daemon is running.
type localHost struct {
	*api.Service
	cfg    *config.Config
	store  *store.Store
	engine *reconcile.Engine
}

// Status adds the paths and checks a daemon would report.
func (h *localHost) Status(ctx context.Context) (api.Status, error) {
	status, err := h.Service.Status(ctx)
	if err != nil {
		return status, err
	}
	status.DatabasePath = h.store.Path()
	status.LockPath = h.cfg.LockPath()
	status.MarkerPath = h.cfg.MarkerPath()
	if last := h.engine.LastDispatched(); last != "" {
		status.LastReleaseFilter = []byte(last)
	}
	status.Checks = preflight.RunAll(ctx, h.cfg, status.ActiveProvider.SourceURL())
	return status, nil
}

func wrapDaemonError(err error, bind string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; check paths.api_bind matches the running daemon", bind)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
