package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"slib/internal/config"
	"slib/internal/ipc"
	"slib/internal/preflight"
	"slib/internal/protocol"
)

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath  string
	ConfigPath  string
	ScanOnStart bool
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	Identity protocol.BuildIdentity
}

// Launch starts a detached slib daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.ScanOnStart {
		args = append(args, "--scan")
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for the socket to answer the Verify handshake and
// returns a connected client.
func WaitForClient(ctx context.Context, socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(ctx, socketPath)
		if err == nil {
			return client, nil
		}
		if errors.Is(err, ipc.ErrIdentityMismatch) {
			return nil, err
		}
		lastErr = err
		if err := sleep(ctx, pollInterval); err != nil {
			return nil, err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one already answers on the socket.
// A daemon built from a different protocol revision is reported, not replaced.
func EnsureStarted(ctx context.Context, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(ctx, opts.SocketPath)
	if err == nil {
		return StartResult{State: StartStateAlreadyRunning, Identity: client.RemoteIdentity()}, nil
	}
	if !isDaemonUnavailable(err) {
		return StartResult{}, err
	}

	if launchErr := Launch(executablePath, opts); launchErr != nil {
		return StartResult{}, launchErr
	}
	client, err = WaitForClient(ctx, opts.SocketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, Identity: client.RemoteIdentity()}, nil
}

// WaitForShutdown waits until nothing accepts connections on the socket.
func WaitForShutdown(ctx context.Context, socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		_, err := ipc.Dial(ctx, socketPath)
		if err != nil && isDaemonUnavailable(err) {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("daemon still running")
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessInfo reports whether a daemon answers on the configured socket and
// the pid recorded in its pid file when that process is alive.
func ProcessInfo(ctx context.Context, cfg *config.Config) (bool, int, error) {
	pid, _ := ReadPID(cfg.PIDPath())
	if !processAlive(pid) {
		pid = 0
	}
	_, err := ipc.Dial(ctx, cfg.Paths.SocketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, pid, nil
		}
		return pid != 0, pid, err
	}
	return true, pid, nil
}

// ReadPID parses the pid file written by the daemon runner.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q: invalid contents", pidPath)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ForceKillProcess sends SIGKILL to daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	if parsed, err := ReadPID(pidPath); err == nil {
		pid = parsed
	} else if !errors.Is(err, os.ErrNotExist) && pid <= 0 {
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	// StopAcknowledged is the daemon's answer to the Shutdown request.
	StopAcknowledged bool
	Terminated       bool
	ForcedKill       bool
	PID              int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// StopAndTerminate asks the daemon to shut down. A daemon that refuses or
// lingers past gracePeriod receives SIGTERM, then SIGKILL.
func StopAndTerminate(ctx context.Context, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	socketPath := cfg.Paths.SocketPath
	client, err := ipc.Dial(ctx, socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid, _ := ReadPID(cfg.PIDPath())

	ack, err := client.Shutdown(ctx)
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{StopAcknowledged: ack, PID: pid}
	if ack {
		if WaitForShutdown(ctx, socketPath, gracePeriod) == nil {
			return result, nil
		}
	}

	if !processAlive(pid) {
		if ack {
			return result, fmt.Errorf("daemon acknowledged shutdown but still answers on %s", socketPath)
		}
		return result, fmt.Errorf("daemon refused shutdown and no live pid found in %s", cfg.PIDPath())
	}
	if pid == os.Getpid() {
		return result, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	if err := unix.Kill(pid, unix.SIGTERM); err == nil {
		result.Terminated = true
		if WaitForShutdown(ctx, socketPath, gracePeriod) == nil {
			return result, nil
		}
	}

	killedPID, killErr := ForceKillProcess(cfg.PIDPath(), cfg.LockPath(), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(ctx, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	if opts.SocketPath == "" {
		opts.SocketPath = cfg.Paths.SocketPath
	}
	startResult, err := EnsureStarted(ctx, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// StatusSnapshot describes the daemon as seen from the CLI.
type StatusSnapshot struct {
	Running  bool
	PID      int
	Socket   string
	Identity string
	Mismatch bool
	Playback *protocol.Status
	Checks   []preflight.Result
}

// BuildStatusSnapshot collects daemon reachability, playback state and
// local path checks.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &StatusSnapshot{Socket: cfg.Paths.SocketPath}
	if pid, err := ReadPID(cfg.PIDPath()); err == nil && processAlive(pid) {
		snap.PID = pid
	}

	client, err := ipc.Dial(ctx, cfg.Paths.SocketPath)
	switch {
	case err == nil:
		snap.Running = true
		snap.Identity = client.RemoteIdentity().String()
		if status, statusErr := client.Status(ctx); statusErr == nil {
			snap.Playback = &status
		}
	case errors.Is(err, ipc.ErrIdentityMismatch):
		snap.Running = true
		snap.Mismatch = true
		var mismatch *ipc.IdentityMismatchError
		if errors.As(err, &mismatch) {
			snap.Identity = mismatch.Remote.String()
		}
	case !isDaemonUnavailable(err):
		return nil, err
	}

	snap.Checks = []preflight.Result{
		preflight.CheckReadableDirectory("Music", cfg.Paths.MusicDir),
		preflight.CheckDirectoryAccess("Offline", cfg.Paths.OfflineDir),
		preflight.CheckDirectoryAccess("Playlists", cfg.Paths.PlaylistDir),
	}
	return snap, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, unix.ENOENT) ||
		errors.Is(err, unix.ECONNREFUSED)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
