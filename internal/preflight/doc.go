// Package preflight provides readiness checks for the filesystem paths and
// services slib depends on.
//
// These checks run in two contexts:
//   - The daemon runner logs RunAll results at startup so a misconfigured
//     music directory or unreachable MPD shows up in the daemon log.
//   - The CLI "slib status" command uses individual check functions
//     (CheckSocket, CheckDirectoryAccess) to display daemon health.
//
// Checks for optional backends are skipped unless the backend is selected.
package preflight
