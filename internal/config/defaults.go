package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName = "slib"

	socketFileName = "slib.sock"
	configFileName = "config.toml"
	projectConfig  = "slib.toml"

	// SocketEnv overrides paths.socket_path when set.
	SocketEnv = "SLIB_SOCKET"

	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultDialTimeoutSeconds = 2
	defaultRequestTimeout     = 10
	defaultPlayerOutput       = OutputNull
	defaultVolume             = 50
	defaultMPDNetwork         = "tcp"
	defaultMPDAddress         = "localhost:6600"
)

// Player output backends.
const (
	OutputNull = "null"
	OutputMPD  = "mpd"
)

var defaultAudioExtensions = []string{".flac", ".mp3", ".ogg", ".opus", ".m4a", ".wav"}

// runtimeDir mirrors the socket placement used by other XDG daemons: the
// runtime dir when the session has one, otherwise a run dir under the cache.
func runtimeDir() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(xdg.CacheHome, appName, "run")
}

func defaultSocketPath() string {
	return filepath.Join(runtimeDir(), socketFileName)
}

func defaultStateDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

func defaultMusicDir() string {
	if xdg.UserDirs.Music != "" {
		return xdg.UserDirs.Music
	}
	return filepath.Join(xdg.Home, "Music")
}

// DefaultConfigPath returns where Load looks for the config file when no
// explicit path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	stateDir := defaultStateDir()
	return Config{
		Paths: Paths{
			SocketPath:  defaultSocketPath(),
			StateDir:    stateDir,
			LogDir:      defaultLogDir(),
			MusicDir:    defaultMusicDir(),
			OfflineDir:  filepath.Join(stateDir, "offline"),
			PlaylistDir: filepath.Join(stateDir, "playlists"),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Daemon: Daemon{
			AllowRemoteShutdown:   true,
			DialTimeoutSeconds:    defaultDialTimeoutSeconds,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Player: Player{
			Output:        defaultPlayerOutput,
			DefaultVolume: defaultVolume,
			MPDNetwork:    defaultMPDNetwork,
			MPDAddress:    defaultMPDAddress,
		},
		Library: Library{
			AudioExtensions: append([]string(nil), defaultAudioExtensions...),
		},
	}
}
