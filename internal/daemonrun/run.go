package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"lmbridge/internal/config"
	"lmbridge/internal/daemon"
	"lmbridge/internal/logging"
	"lmbridge/internal/marker"
	"lmbridge/internal/reconcile"
	"lmbridge/internal/releasefilter"
	"lmbridge/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel      string
	Development   bool
	PluginVersion string
}

// NewEngine wires a reconcile engine against st using the configured bridge
// timeout, marker location, and host version.
func NewEngine(cfg *config.Config, st *store.Store, logger *slog.Logger, pluginVersion string) *reconcile.Engine {
	timeout := time.Duration(cfg.Bridge.RequestTimeout) * time.Second
	return reconcile.New(reconcile.Deps{
		Definitions:   st,
		Slot:          st,
		Markers:       marker.NewFileStore(),
		MarkerPath:    cfg.MarkerPath(),
		Poster:        releasefilter.NewClient(timeout, userAgent(pluginVersion)),
		Albums:        st,
		Commands:      st,
		HostVersion:   cfg.Host.Version,
		PluginVersion: pluginVersion,
		Logger:        logger,
	})
}

// Run starts the lmbridge daemon and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("lmbridge-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update lmbridge.log link: %v\n", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}

	engine := NewEngine(cfg, st, logger, opts.PluginVersion)
	d, err := daemon.New(cfg, st, engine, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		logging.WarnWithContext(logger, "failed to write pid file", "pid_file_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on "+cfg.Paths.StateDir),
			logging.String(logging.FieldImpact, "status cannot report the daemon pid"),
		)
	}
	defer os.Remove(pidPath)

	logger.Info("lmbridge daemon listening",
		logging.String(logging.FieldEventType, "daemon_listening"),
		logging.String("addr", d.Addr()),
		logging.String("log_path", logPath),
	)

	<-signalCtx.Done()
	logger.Info("lmbridge daemon shutting down")
	return nil
}

// PIDPath returns the pid file written while the daemon runs.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "lmbridge.pid")
}

func userAgent(pluginVersion string) string {
	if pluginVersion == "" {
		return "lmbridge"
	}
	return "lmbridge/" + pluginVersion
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "lmbridge.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
