// Package ipc carries protocol records between the slib CLI and the playback
// daemon over a Unix domain socket.
//
// The server side accepts one connection at a time, reads exactly one request
// record, dispatches it to a Daemon capability and writes exactly one reply
// record before closing the connection. Malformed requests are logged and the
// connection is dropped without a reply; the loop keeps serving. The loop only
// ends when a Shutdown request is answered with true, when its context is
// cancelled or when Close is called.
//
// Clients open a fresh connection per call. Dial performs the Verify handshake
// by default so a CLI built from a different protocol revision than the
// running daemon fails fast with an *IdentityMismatchError instead of talking
// past it.
package ipc
