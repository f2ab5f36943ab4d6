// Command slib is the command-line client for the slib music daemon.
//
// Daemon lifecycle commands (start, stop, restart, status, verify) sit at the
// root. Playback, queue, library and playlist commands each send one request
// over the control socket and print the answer as text or, with --json, as
// JSON. The hidden "daemon" command runs the daemon process itself.
package main
