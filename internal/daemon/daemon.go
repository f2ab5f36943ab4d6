package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"slib/internal/config"
	"slib/internal/ipc"
	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/player"
)

var _ ipc.Daemon = (*Daemon)(nil)

// Daemon serves protocol commands from the library and player and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	library *library.Store
	player  *player.Player
	probe   library.DurationProbe

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	scanMu  sync.Mutex
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, p *player.Player, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || p == nil {
		return nil, errors.New("daemon requires config, library and player")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		library:  store,
		player:   p,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if probe, ok := p.Output().(library.DurationProbe); ok {
		d.probe = probe
	}
	return d, nil
}

// Start acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slib daemon instance is already running")
	}

	d.running.Store(true)
	d.logger.Info("slib daemon started",
		logging.String("lock", d.lockPath),
		logging.String("output", d.player.Output().Name()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Release halts playback and releases the daemon lock.
func (d *Daemon) Release(ctx context.Context) {
	if !d.running.Load() {
		return
	}

	if err := d.player.Stop(ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to stop playback", "daemon_stop_playback_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the audio output may keep playing"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("slib daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	ctx := context.Background()
	d.Release(ctx)
	return errors.Join(d.player.Close(ctx), d.library.Close())
}

// Running reports whether Start succeeded and Release has not run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Shutdown answers a remote shutdown request. When the configuration allows
// it, playback stops and true is returned, which ends the serve loop.
func (d *Daemon) Shutdown(ctx context.Context) bool {
	if !d.cfg.Daemon.AllowRemoteShutdown {
		logging.WarnWithContext(d.logger, "remote shutdown refused", "shutdown_refused",
			logging.String(logging.FieldImpact, "daemon keeps running"),
			logging.String(logging.FieldErrorHint, "set daemon.allow_remote_shutdown = true or send SIGTERM"),
		)
		return false
	}
	if err := d.player.Stop(ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to stop playback before shutdown", "shutdown_playback_failed",
			logging.Error(err),
		)
	}
	d.logger.Info("remote shutdown accepted", logging.String(logging.FieldEventType, "shutdown_accepted"))
	return true
}

// fail logs a command failure and returns false for the reply. Unknown ids
// are the caller's mistake and logged at info.
func (d *Daemon) fail(op string, err error, attrs ...logging.Attr) bool {
	attrs = append(attrs, logging.Command(op), logging.Error(err))
	if errors.Is(err, library.ErrNotFound) || errors.Is(err, player.ErrEmptyQueue) ||
		errors.Is(err, player.ErrNothingPlaying) || errors.Is(err, player.ErrNotQueued) ||
		errors.Is(err, player.ErrVolumeRange) || errors.Is(err, library.ErrDuplicateName) {
		d.logger.Info(op+" rejected", logging.Args(attrs...)...)
		return false
	}
	logging.WarnWithContext(d.logger, op+" failed", "command_failed", attrs...)
	return false
}
