package player

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"slib/internal/config"
)

const defaultMPDTimeout = 3 * time.Second

// MPDOutput drives a Music Player Daemon. Each command uses a short-lived
// connection so a restarted MPD needs no reconnect logic.
type MPDOutput struct {
	network  string
	address  string
	password string
	musicDir string
	timeout  time.Duration

	mu sync.Mutex
	// songID is the MPD queue id of the song slib last started; zero when
	// nothing it started is expected to be playing.
	songID int
}

// NewMPDOutput configures an MPD output. A timeout of zero uses three
// seconds per command.
func NewMPDOutput(cfg config.Player, timeout time.Duration) *MPDOutput {
	if timeout <= 0 {
		timeout = defaultMPDTimeout
	}
	return &MPDOutput{
		network:  cfg.MPDNetwork,
		address:  cfg.MPDAddress,
		password: cfg.MPDPassword,
		musicDir: cfg.MPDMusicDir,
		timeout:  timeout,
	}
}

var _ EndWatcher = (*MPDOutput)(nil)

func (o *MPDOutput) Name() string { return config.OutputMPD }

func (o *MPDOutput) dial() (*mpd.Client, error) {
	if o.password != "" {
		return mpd.DialAuthenticated(o.network, o.address, o.password)
	}
	return mpd.Dial(o.network, o.address)
}

// do runs fn against a fresh client, bounded by the output timeout and ctx.
func (o *MPDOutput) do(ctx context.Context, op string, fn func(*mpd.Client) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		client, err := o.dial()
		if err != nil {
			done <- fmt.Errorf("connect %s %s: %w", o.network, o.address, err)
			return
		}
		defer client.Close()
		done <- fn(client)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mpd %s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mpd %s: %w", op, ctx.Err())
	}
}

// URI maps a library path to the path MPD knows it by.
func (o *MPDOutput) URI(path string) (string, error) {
	if o.musicDir == "" {
		return "", errors.New("mpd music directory is not configured")
	}
	rel, err := filepath.Rel(o.musicDir, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the mpd music directory %s", path, o.musicDir)
	}
	return rel, nil
}

func (o *MPDOutput) Start(ctx context.Context, path string) error {
	uri, err := o.URI(path)
	if err != nil {
		return err
	}
	o.setSongID(0)
	var id int
	err = o.do(ctx, "start", func(c *mpd.Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		added, err := c.AddID(uri, -1)
		if err != nil {
			return err
		}
		id = added
		return c.PlayID(added)
	})
	if err != nil {
		return err
	}
	o.setSongID(id)
	return nil
}

func (o *MPDOutput) setSongID(id int) {
	o.mu.Lock()
	o.songID = id
	o.mu.Unlock()
}

// Watch follows MPD's player subsystem and calls ended when the song slib
// started stops on its own or MPD moves off it.
func (o *MPDOutput) Watch(ctx context.Context, ended func()) error {
	w, err := mpd.NewWatcher(o.network, o.address, o.password, "player")
	if err != nil {
		return fmt.Errorf("mpd watch: %w", err)
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Error:
			if !ok {
				return errors.New("mpd watch: connection closed")
			}
			return fmt.Errorf("mpd watch: %w", err)
		case _, ok := <-w.Event:
			if !ok {
				return errors.New("mpd watch: connection closed")
			}
			if o.songEnded(ctx) {
				ended()
			}
		}
	}
}

// songEnded reports, at most once per started song, that MPD is no longer
// playing it.
func (o *MPDOutput) songEnded(ctx context.Context) bool {
	o.mu.Lock()
	expected := o.songID
	o.mu.Unlock()
	if expected == 0 {
		return false
	}

	var state, current string
	err := o.do(ctx, "status", func(c *mpd.Client) error {
		attrs, err := c.Status()
		if err != nil {
			return err
		}
		state, current = attrs["state"], attrs["songid"]
		return nil
	})
	if err != nil {
		return false
	}
	if !songFinished(state, current, expected) {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.songID != expected {
		return false
	}
	o.songID = 0
	return true
}

func songFinished(state, currentID string, expected int) bool {
	if state == "stop" {
		return true
	}
	return currentID != strconv.Itoa(expected)
}

func (o *MPDOutput) Pause(ctx context.Context) error {
	return o.do(ctx, "pause", func(c *mpd.Client) error { return c.Pause(true) })
}

func (o *MPDOutput) Resume(ctx context.Context) error {
	return o.do(ctx, "resume", func(c *mpd.Client) error { return c.Pause(false) })
}

func (o *MPDOutput) Stop(ctx context.Context) error {
	o.setSongID(0)
	return o.do(ctx, "stop", func(c *mpd.Client) error { return c.Stop() })
}

func (o *MPDOutput) SetVolume(ctx context.Context, percent int) error {
	return o.do(ctx, "volume", func(c *mpd.Client) error { return c.SetVolume(percent) })
}

// Ping checks that MPD is reachable and accepts the configured password.
func (o *MPDOutput) Ping(ctx context.Context) error {
	return o.do(ctx, "ping", func(c *mpd.Client) error { return c.Ping() })
}

// Duration reads the length MPD has indexed for path, in seconds.
func (o *MPDOutput) Duration(ctx context.Context, path string) (float64, error) {
	uri, err := o.URI(path)
	if err != nil {
		return 0, err
	}
	var seconds float64
	err = o.do(ctx, "listinfo", func(c *mpd.Client) error {
		infos, err := c.ListInfo(uri)
		if err != nil {
			return err
		}
		for _, attrs := range infos {
			if attrs["file"] != uri {
				continue
			}
			if value, ok := parseDuration(attrs); ok {
				seconds = value
				return nil
			}
		}
		return fmt.Errorf("no duration for %s", uri)
	})
	return seconds, err
}

func parseDuration(attrs mpd.Attrs) (float64, bool) {
	for _, key := range []string{"duration", "Time"} {
		if raw, ok := attrs[key]; ok {
			if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
				return value, true
			}
		}
	}
	return 0, false
}

func (o *MPDOutput) Close() error { return nil }
