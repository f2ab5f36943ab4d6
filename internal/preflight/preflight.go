package preflight

import (
	"context"
	"path/filepath"

	"slib/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Socket directory", filepath.Dir(cfg.Paths.SocketPath)),
		CheckReadableDirectory("Music directory", cfg.Paths.MusicDir),
		CheckDirectoryAccess("Offline directory", cfg.Paths.OfflineDir),
		CheckDirectoryAccess("Playlist directory", cfg.Paths.PlaylistDir),
	}

	if cfg.Player.Output == config.OutputMPD {
		results = append(results, CheckMPD(ctx, cfg.Player))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
