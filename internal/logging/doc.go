// Package logging assembles the slog loggers used by the slib daemon and CLI.
//
// New builds either a console handler (human-oriented, one header line per
// record followed by indented fields) or a JSON handler, writing to any mix of
// stdout, stderr and files. The attribute helpers and field constants keep
// keys consistent across packages, and WarnWithContext makes every warning
// carry an event type, a hint and an impact. NewNop is the logger for tests
// and wiring code that has nothing to report to.
package logging
