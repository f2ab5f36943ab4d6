package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"slib/internal/config"
	"slib/internal/daemon"
	"slib/internal/ipc"
	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/player"
	"slib/internal/testsupport"
)

var cliMusicFiles = []string{
	"Miles Davis/Kind of Blue/01 - So What.flac",
	"Miles Davis/Kind of Blue/02 - Freddie Freeloader.flac",
	"Miles Davis/Kind of Blue/cover.jpg",
	"John Coltrane/Blue Train/01 - Blue Train.flac",
}

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	socketPath string
	configPath string
	stopped    chan struct{}
	serveErr   error
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv(config.SocketEnv, "")
	opts = append([]testsupport.ConfigOption{testsupport.WithMusicFiles(cliMusicFiles...)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenLibrary(t, cfg)
	d, err := daemon.New(cfg, store, player.New(player.NullOutput{}, cfg.Player.DefaultVolume), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if !d.Scan(context.Background()) {
		t.Fatal("initial scan failed")
	}

	srv, err := ipc.NewServer(cfg.Paths.SocketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		stopped:    make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		env.serveErr = srv.Serve(ctx)
		close(env.stopped)
	}()

	t.Cleanup(func() {
		cancel()
		if err := env.wait(5 * time.Second); err != nil {
			t.Error(err)
		}
	})
	return env
}

// wait blocks until the serve loop exits and returns its error for anything
// other than a clean shutdown or cancellation.
func (e *cliTestEnv) wait(timeout time.Duration) error {
	select {
	case <-e.stopped:
	case <-time.After(timeout):
		return errors.New("serve loop did not exit")
	}
	if e.serveErr != nil && !errors.Is(e.serveErr, context.Canceled) {
		return e.serveErr
	}
	return nil
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.socketPath, e.configPath)
	return out, err
}

func (e *cliTestEnv) songID(rel string) string {
	return library.SongID(filepath.Join(e.cfg.Paths.MusicDir, filepath.FromSlash(rel)))
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
