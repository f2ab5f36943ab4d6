package main

import (
	"encoding/json"
	"testing"

	"slib/internal/library"
	"slib/internal/protocol"
)

func TestLibraryListings(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "library", "artists")
	if err != nil {
		t.Fatalf("library artists: %v", err)
	}
	requireContains(t, out, "Miles Davis")
	requireContains(t, out, "John Coltrane")

	out, err = env.run(t, "library", "playlists")
	if err != nil {
		t.Fatalf("library playlists: %v", err)
	}
	requireContains(t, out, "No playlists")

	out, err = env.run(t, "--json", "library", "songs")
	if err != nil {
		t.Fatalf("library songs --json: %v", err)
	}
	var songs []protocol.Item
	if err := json.Unmarshal([]byte(out), &songs); err != nil {
		t.Fatalf("decode songs: %v\n%s", err, out)
	}
	if len(songs) != 3 {
		t.Fatalf("expected 3 songs, got %d", len(songs))
	}
}

func TestLibrarySearch(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "--json", "library", "search", "blue")
	if err != nil {
		t.Fatalf("library search: %v", err)
	}
	var results []protocol.Item
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode results: %v\n%s", err, out)
	}
	if len(results) == 0 || results[0].Name != "Blue Train" {
		t.Fatalf("unexpected results: %+v", results)
	}

	out, err = env.run(t, "library", "search", "nothing", "matches")
	if err != nil {
		t.Fatalf("library search: %v", err)
	}
	requireContains(t, out, `No results for "nothing matches"`)
}

func TestLibrarySongAndAlbum(t *testing.T) {
	env := setupCLITestEnv(t)
	songID := env.songID("Miles Davis/Kind of Blue/01 - So What.flac")

	out, err := env.run(t, "library", "song", songID)
	if err != nil {
		t.Fatalf("library song: %v", err)
	}
	requireContains(t, out, "Artist:   Miles Davis")
	requireContains(t, out, "Kind of Blue")

	if _, err := env.run(t, "library", "song", "missing"); err == nil {
		t.Fatal("expected error for unknown song")
	}
	out, err = env.run(t, "--json", "library", "song", "missing")
	if err != nil {
		t.Fatalf("library song --json: %v", err)
	}
	requireContains(t, out, "null")

	out, err = env.run(t, "library", "album", library.AlbumID("Miles Davis", "Kind of Blue"))
	if err != nil {
		t.Fatalf("library album: %v", err)
	}
	requireContains(t, out, "So What")
	requireContains(t, out, "Freddie Freeloader")
}

func TestLibraryDownloadStarDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	songID := env.songID("John Coltrane/Blue Train/01 - Blue Train.flac")

	out, err := env.run(t, "library", "download", songID)
	if err != nil {
		t.Fatalf("library download: %v", err)
	}
	requireContains(t, out, "Downloaded")

	if _, err := env.run(t, "library", "star", songID); err != nil {
		t.Fatalf("library star: %v", err)
	}
	if _, err := env.run(t, "library", "delete", songID); err != nil {
		t.Fatalf("library delete: %v", err)
	}

	out, err = env.run(t, "--json", "library", "star", "missing")
	if err == nil {
		t.Fatal("expected error when the daemon answers false")
	}
	requireContains(t, out, `"ok": false`)
}
