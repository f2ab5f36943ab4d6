// Package daemon implements the capability set behind the slib control
// socket.
//
// It wires configuration, the SQLite library and the player into a single
// value with flock-based locking to prevent multiple instances. Every
// protocol command lands on one Daemon method; failures are logged here and
// reported to the client as false, an empty list or null.
//
// Keep orchestration logic here: catalogue queries live in internal/library
// and playback state in internal/player.
package daemon
