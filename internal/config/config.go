package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem locations.
type Paths struct {
	SocketPath  string `toml:"socket_path"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
	MusicDir    string `toml:"music_dir"`
	OfflineDir  string `toml:"offline_dir"`
	PlaylistDir string `toml:"playlist_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Daemon contains IPC and lifecycle settings.
type Daemon struct {
	// AllowRemoteShutdown is the daemon's answer to a Shutdown request.
	AllowRemoteShutdown   bool `toml:"allow_remote_shutdown"`
	DialTimeoutSeconds    int  `toml:"dial_timeout_seconds"`
	RequestTimeoutSeconds int  `toml:"request_timeout_seconds"`
}

// Player selects and configures the audio output.
type Player struct {
	Output        string `toml:"output"`
	DefaultVolume int    `toml:"default_volume"`
	MPDNetwork    string `toml:"mpd_network"`
	MPDAddress    string `toml:"mpd_address"`
	MPDPassword   string `toml:"mpd_password"`
	// MPDMusicDir is the music directory as MPD sees it; song paths are made
	// relative to it before being queued. Defaults to paths.music_dir.
	MPDMusicDir string `toml:"mpd_music_dir"`
}

// Library contains scanner settings.
type Library struct {
	AudioExtensions []string `toml:"audio_extensions"`
}

// Config encapsulates all configuration values for slib.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Daemon  Daemon  `toml:"daemon"`
	Player  Player  `toml:"player"`
	Library Library `toml:"library"`
}

// Load locates, parses and validates a configuration file. A missing file is
// not an error: defaults are returned with exists=false. The returned config
// has every path expanded to an absolute path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath := DefaultConfigPath()
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	projectPath, err := filepath.Abs(projectConfig)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	if value, ok := os.LookupEnv(SocketEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.SocketPath = value
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"paths.socket_path", &c.Paths.SocketPath},
		{"paths.state_dir", &c.Paths.StateDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.music_dir", &c.Paths.MusicDir},
		{"paths.offline_dir", &c.Paths.OfflineDir},
		{"paths.playlist_dir", &c.Paths.PlaylistDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	c.Player.Output = strings.ToLower(strings.TrimSpace(c.Player.Output))
	if c.Player.Output == "" {
		c.Player.Output = defaultPlayerOutput
	}
	c.Player.MPDNetwork = strings.ToLower(strings.TrimSpace(c.Player.MPDNetwork))
	if c.Player.MPDNetwork == "" {
		c.Player.MPDNetwork = defaultMPDNetwork
	}
	c.Player.MPDAddress = strings.TrimSpace(c.Player.MPDAddress)
	if c.Player.MPDNetwork == "unix" {
		expanded, err := expandPath(c.Player.MPDAddress)
		if err != nil {
			return fmt.Errorf("player.mpd_address: %w", err)
		}
		c.Player.MPDAddress = expanded
	}
	if strings.TrimSpace(c.Player.MPDMusicDir) == "" {
		c.Player.MPDMusicDir = c.Paths.MusicDir
	} else {
		expanded, err := expandPath(c.Player.MPDMusicDir)
		if err != nil {
			return fmt.Errorf("player.mpd_music_dir: %w", err)
		}
		c.Player.MPDMusicDir = expanded
	}

	extensions := make([]string, 0, len(c.Library.AudioExtensions))
	seen := make(map[string]struct{}, len(c.Library.AudioExtensions))
	for _, ext := range c.Library.AudioExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		extensions = append(extensions, ext)
	}
	c.Library.AudioExtensions = extensions
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.SocketPath == "" {
		return errors.New("paths.socket_path must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	if c.Daemon.DialTimeoutSeconds <= 0 {
		return errors.New("daemon.dial_timeout_seconds must be positive")
	}
	if c.Daemon.RequestTimeoutSeconds < 0 {
		return errors.New("daemon.request_timeout_seconds must be zero or positive")
	}
	switch c.Player.Output {
	case OutputNull:
	case OutputMPD:
		switch c.Player.MPDNetwork {
		case "tcp", "unix":
		default:
			return fmt.Errorf("player.mpd_network: unsupported value %q (want tcp or unix)", c.Player.MPDNetwork)
		}
		if c.Player.MPDAddress == "" {
			return errors.New("player.mpd_address must be set when player.output is mpd")
		}
	default:
		return fmt.Errorf("player.output: unsupported value %q (want null or mpd)", c.Player.Output)
	}
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 100 {
		return errors.New("player.default_volume must be between 0 and 100")
	}
	if len(c.Library.AudioExtensions) == 0 {
		return errors.New("library.audio_extensions must list at least one extension")
	}
	return nil
}

// DatabasePath is the SQLite library catalogue.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "library.db")
}

// LockPath is the single-instance lock held by a running daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "slibd.lock")
}

// PIDPath records the running daemon's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "slibd.pid")
}

// DaemonLogPath is the stable pointer to the current daemon log.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, "slib.log")
}

// DialTimeout bounds each CLI connection attempt.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Daemon.DialTimeoutSeconds) * time.Second
}

// RequestTimeout bounds how long the daemon waits for a request record.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Daemon.RequestTimeoutSeconds) * time.Second
}

// EnsureDirectories creates the directories the daemon writes to. The
// music directory is left alone; it belongs to the user.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StateDir,
		c.Paths.LogDir,
		c.Paths.OfflineDir,
		c.Paths.PlaylistDir,
		filepath.Dir(c.Paths.SocketPath),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
