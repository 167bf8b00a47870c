// Package daemonrun hosts the long-running server process: logging setup,
// the single-instance lock, startup checks and the HTTP listener.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"readalong/internal/app"
	"readalong/internal/config"
	"readalong/internal/logging"
	"readalong/internal/preflight"
	"readalong/internal/server"
)

// ErrAlreadyRunning is returned when another process holds the server lock.
var ErrAlreadyRunning = errors.New("readalong server already running")

// Options configures server process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Runtime is a started server process.
type Runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *flock.Flock
	pidPath string
	app     *app.App
	server  *server.Server
	once    sync.Once
}

// Run starts the server and blocks until cmdCtx ends or SIGINT/SIGTERM
// arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("readalong-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update readalong.log link: %v\n", err)
	}

	rt, err := Start(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	<-signalCtx.Done()
	logger.Info("readalong server shutting down", logging.String(logging.FieldEventType, "server_stopping"))
	return nil
}

// Start acquires the single-instance lock, verifies directories and the
// database, and begins serving HTTP. The server stops when ctx ends; Close
// releases the lock and the store.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	for _, check := range []preflight.Result{
		preflight.CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		preflight.CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
	} {
		if !check.Passed {
			return nil, fmt.Errorf("%s: %s", check.Name, check.Detail)
		}
	}

	rt := &Runtime{
		cfg:     cfg,
		logger:  logger,
		lock:    flock.New(filepath.Join(cfg.Paths.DataDir, "readalong.lock")),
		pidPath: filepath.Join(cfg.Paths.DataDir, "readalong.pid"),
	}
	ok, err := rt.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}

	started := false
	defer func() {
		if !started {
			rt.Close()
		}
	}()

	if err := writePIDFile(rt.pidPath); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	rt.app, err = app.Open(cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "open store failed", "server_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database permissions and run 'readalong check'"),
		)
		return nil, err
	}
	rt.server = server.New(cfg, rt.app, logger)
	if err := rt.server.Start(ctx); err != nil {
		return nil, err
	}
	started = true

	logger.Info("readalong server started",
		logging.String(logging.FieldEventType, "server_started"),
		logging.String("session_id", uuid.NewString()),
		logging.String("address", rt.server.Addr()),
		logging.String("database", cfg.DatabasePath()),
		logging.Float64("segment_duration", cfg.Timing.SegmentDurationSeconds),
		logging.Int("workers", rt.app.Pool.Size()),
	)
	return rt, nil
}

// Addr reports the address the server listens on.
func (rt *Runtime) Addr() string {
	if rt == nil || rt.server == nil {
		return ""
	}
	return rt.server.Addr()
}

// Close stops the server and releases the store, pid file and lock.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	rt.once.Do(func() {
		if rt.server != nil {
			rt.server.Stop()
		}
		if rt.app != nil {
			_ = rt.app.Close()
		}
		_ = os.Remove(rt.pidPath)
		_ = rt.lock.Unlock()
	})
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
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
