// Package config loads, normalizes and validates slib configuration.
//
// Defaults follow the XDG base directory layout: the config file lives under
// $XDG_CONFIG_HOME/slib, the library database and offline copies under
// $XDG_DATA_HOME/slib and the daemon socket under $XDG_RUNTIME_DIR/slib. A
// TOML file overrides any of them, and SLIB_SOCKET overrides the socket path
// for both the daemon and the CLI.
//
// Always obtain settings through Load so callers receive expanded absolute
// paths and clear validation errors.
package config
