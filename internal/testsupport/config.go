package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"slib/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The socket lives under a short os.MkdirTemp directory because t.TempDir
// paths can exceed the unix socket path limit.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	sockDir, err := os.MkdirTemp("", "slib")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(sockDir) })

	cfgVal := config.Default()
	cfgVal.Paths.SocketPath = filepath.Join(sockDir, "slib.sock")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MusicDir = filepath.Join(base, "music")
	cfgVal.Paths.OfflineDir = filepath.Join(base, "offline")
	cfgVal.Paths.PlaylistDir = filepath.Join(base, "playlists")
	cfgVal.Player.Output = config.OutputNull
	cfgVal.Player.MPDMusicDir = cfgVal.Paths.MusicDir
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemoteShutdown sets the daemon's answer to Shutdown requests.
func WithRemoteShutdown(allow bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.AllowRemoteShutdown = allow
	}
}

// WithMusicFiles creates empty audio files under the music directory. Paths
// are relative, e.g. "Miles Davis/Kind of Blue/01 So What.flac".
func WithMusicFiles(paths ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, rel := range paths {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.MusicDir, filepath.FromSlash(rel)), 64)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
