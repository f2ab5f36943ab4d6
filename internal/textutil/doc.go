// Package textutil provides the text helpers behind library search and file
// naming: Unicode case folding, display-name cleanup, token fingerprints with
// cosine similarity for ranking search hits, and filename sanitizing for the
// offline cache and exported playlists.
package textutil
