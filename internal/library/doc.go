// Package library persists the music catalogue in SQLite.
//
// Artists, albums and songs are discovered by Scan walking the configured
// music directory; their identifiers are derived from the file path so a
// rescan keeps ids stable. Playlists are created by users and carry a dirty
// flag until they have been written out as M3U8 files.
package library
