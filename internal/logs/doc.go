// Package logs reads the daemon log for `slib logs`.
//
// Tail prints the last N lines of a file and, in follow mode, keeps polling
// for appended lines. The daemon's slib.log is a pointer that moves to a new
// file on every start, so the follower reopens the path when the file it is
// reading is replaced or truncated. Only complete lines are emitted.
package logs
