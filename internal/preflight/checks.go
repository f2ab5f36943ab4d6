package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"slib/internal/config"
	"slib/internal/ipc"
	"slib/internal/player"
)

const checkTimeout = 3 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckSocket reports whether a daemon answers the Verify handshake at path.
func CheckSocket(ctx context.Context, path string) Result {
	const name = "Daemon socket"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client, err := ipc.Dial(checkCtx, path, ipc.WithDialTimeout(checkTimeout))
	if err != nil {
		switch {
		case errors.Is(err, ipc.ErrIdentityMismatch):
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: daemon built from a different protocol revision)", path)}
		case errors.Is(err, os.ErrNotExist), errors.Is(err, unix.ECONNREFUSED), errors.Is(err, unix.ENOENT):
			return Result{Name: name, Detail: fmt.Sprintf("%s (not running)", path)}
		default:
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (identity %.12s)", path, client.RemoteIdentity())}
}

// CheckMPD verifies MPD connectivity and authentication.
func CheckMPD(ctx context.Context, cfg config.Player) Result {
	const name = "MPD"

	if cfg.MPDAddress == "" {
		return Result{Name: name, Detail: "missing address"}
	}
	out := player.NewMPDOutput(cfg, checkTimeout)
	if err := out.Ping(ctx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s %s (error: %v)", cfg.MPDNetwork, cfg.MPDAddress, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s %s (reachable)", cfg.MPDNetwork, cfg.MPDAddress)}
}
