// Package protocol defines the messages exchanged between the slib CLI and
// the playback daemon, and the line-oriented codec that carries them.
//
// Every exchange is one request record followed by one reply record. A record
// is a single JSON document terminated by a newline; the newline is framing,
// never payload. Requests are Commands, a closed set of request types encoded
// as externally tagged JSON: unit variants are bare strings ("Play"), the
// others are one-key objects ({"Search":"jazz"}). Replies are plain JSON
// values (booleans, Items, Status, SongInfo, AlbumInfo, BuildIdentity).
//
// Decoding is strict and fallible. A malformed or truncated record yields a
// *DecodeError so the daemon can drop the connection and keep serving.
//
// The BuildIdentity returned by Identity is a digest of this package's
// defining source, embedded at build time. Client and daemon compare it
// during the Verify handshake so binaries built from protocol-incompatible
// revisions refuse to talk to each other.
package protocol
