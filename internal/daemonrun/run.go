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
	"sync"
	"syscall"
	"time"

	"slib/internal/config"
	"slib/internal/daemon"
	"slib/internal/ipc"
	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/player"
	"slib/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Foreground mirrors log lines to stderr with the console handler.
	Foreground bool
	// ScanOnStart rescans the music directory once the socket is bound.
	ScanOnStart bool
}

// Run starts the slib daemon and serves the control socket until a Shutdown
// request is granted or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("slib-%s.log", runID))
	logger, err := newLogger(cfg, opts, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.DaemonLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update slib.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "slib-*.log", Exclude: []string{logPath}},
	)
	logPreflight(signalCtx, logger, cfg)

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open library store", logging.Error(err))
		return err
	}

	out, err := player.NewOutput(cfg)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create audio output: %w", err)
	}
	p := player.New(out, cfg.Player.DefaultVolume)

	d, err := daemon.New(cfg, store, p, logger)
	if err != nil {
		_ = p.Close(context.Background())
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	server, err := ipc.NewServer(cfg.Paths.SocketPath, d, logger,
		ipc.WithRequestTimeout(cfg.RequestTimeout()),
	)
	if err != nil {
		logging.ErrorWithContext(logger, "bind control socket", "socket_bind_failed",
			logging.Error(err),
			logging.String(logging.FieldSocket, cfg.Paths.SocketPath),
			logging.String(logging.FieldErrorHint, "run slib daemon status to check for a running instance"),
		)
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer server.Close()

	// Background work must finish before the deferred d.Close closes the
	// library under it.
	workCtx, stopWork := context.WithCancel(signalCtx)
	var work sync.WaitGroup
	defer func() {
		stopWork()
		work.Wait()
	}()
	work.Go(func() { d.FollowPlayback(workCtx) })
	if opts.ScanOnStart {
		work.Go(func() { d.Scan(workCtx) })
	}

	logger.Info("slib daemon listening",
		logging.String(logging.FieldEventType, "daemon_listening"),
		logging.String(logging.FieldSocket, server.Path()),
		logging.Int("pid", os.Getpid()),
		logging.String("log_path", logPath),
	)

	err = server.Serve(signalCtx)
	switch {
	case err == nil:
		logger.Info("slib daemon shutting down", logging.String("reason", "shutdown request"))
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, ipc.ErrServerClosed):
		logger.Info("slib daemon shutting down", logging.String("reason", "signal"))
		return nil
	default:
		logging.ErrorWithContext(logger, "serve loop failed", "serve_failed", logging.Error(err))
		return err
	}
}

func newLogger(cfg *config.Config, opts Options, logPath string) (*slog.Logger, error) {
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{logPath},
		Development: opts.Development,
	})
	if err != nil {
		return nil, err
	}
	if !opts.Foreground {
		return logger, nil
	}
	console, err := logging.NewHandler(os.Stderr, "console", level)
	if err != nil {
		return nil, err
	}
	return logging.TeeLogger(logger, console), nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_passed"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "related commands may fail"),
			logging.String(logging.FieldErrorHint, "fix the path or service and restart the daemon"),
		)
	}
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
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
