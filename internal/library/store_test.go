package library_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slib/internal/config"
	"slib/internal/library"
	"slib/internal/testsupport"
)

var fixtureFiles = []string{
	"Miles Davis/Kind of Blue/01 - So What.flac",
	"Miles Davis/Kind of Blue/02 - Freddie Freeloader.flac",
	"Miles Davis/Kind of Blue/cover.jpg",
	"Miles Davis/Kind of Blue/notes.txt",
	"john_coltrane/blue_train/01_blue_train.mp3",
	"loose.flac",
}

func newScannedStore(t *testing.T) (*library.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithMusicFiles(fixtureFiles...))
	store := testsupport.MustOpenLibrary(t, cfg)
	testsupport.MustScan(t, store, cfg)
	return store, cfg
}

func musicPath(cfg *config.Config, rel string) string {
	return filepath.Join(cfg.Paths.MusicDir, filepath.FromSlash(rel))
}

func entryNames(entries []library.Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScanBuildsCatalogue(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMusicFiles(fixtureFiles...))
	store := testsupport.MustOpenLibrary(t, cfg)

	result := testsupport.MustScan(t, store, cfg)
	if result.Songs != 3 || result.Skipped != 1 || result.Removed != 0 {
		t.Fatalf("unexpected scan result: %+v", result)
	}

	ctx := context.Background()
	artists, err := store.Artists(ctx)
	if err != nil {
		t.Fatalf("Artists: %v", err)
	}
	if got := entryNames(artists); !equalStrings(got, []string{"John Coltrane", "Miles Davis"}) {
		t.Fatalf("artists = %v", got)
	}

	albums, err := store.Albums(ctx)
	if err != nil {
		t.Fatalf("Albums: %v", err)
	}
	if got := entryNames(albums); !equalStrings(got, []string{"Blue Train", "Kind of Blue"}) {
		t.Fatalf("albums = %v", got)
	}
	wantCover := musicPath(cfg, "Miles Davis/Kind of Blue/cover.jpg")
	if albums[1].ImagePath != wantCover {
		t.Fatalf("album artwork = %q, want %q", albums[1].ImagePath, wantCover)
	}
	if albums[0].ImagePath != "" {
		t.Fatalf("expected no artwork for Blue Train, got %q", albums[0].ImagePath)
	}

	songs, err := store.Songs(ctx)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if got := entryNames(songs); !equalStrings(got, []string{"Blue Train", "Freddie Freeloader", "So What"}) {
		t.Fatalf("songs = %v", got)
	}
}

func TestAlbumSongsInTrackOrder(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()

	albumID := library.AlbumID("Miles Davis", "Kind of Blue")
	album, err := store.Album(ctx, albumID)
	if err != nil {
		t.Fatalf("Album: %v", err)
	}
	if album.ArtistName != "Miles Davis" {
		t.Fatalf("album artist = %q", album.ArtistName)
	}

	songs, err := store.AlbumSongs(ctx, albumID)
	if err != nil {
		t.Fatalf("AlbumSongs: %v", err)
	}
	if len(songs) != 2 || songs[0].Name != "So What" || songs[1].Name != "Freddie Freeloader" {
		t.Fatalf("unexpected album songs: %+v", songs)
	}
	if songs[0].Track != 1 || songs[1].Track != 2 {
		t.Fatalf("unexpected track numbers: %d %d", songs[0].Track, songs[1].Track)
	}

	path := musicPath(cfg, "Miles Davis/Kind of Blue/01 - So What.flac")
	song, err := store.Song(ctx, library.SongID(path))
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if song.Path != path || song.AlbumID != albumID || song.ArtistName != "Miles Davis" {
		t.Fatalf("unexpected song: %+v", song)
	}

	if _, err := store.Song(ctx, albumID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for album id as song, got %v", err)
	}
	if _, err := store.Album(ctx, "missing"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown album, got %v", err)
	}
}

func TestRescanKeepsIDsAndUserState(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()

	soWhat := library.SongID(musicPath(cfg, "Miles Davis/Kind of Blue/01 - So What.flac"))
	if starred, err := store.ToggleStar(ctx, soWhat); err != nil || !starred {
		t.Fatalf("ToggleStar = %v, %v", starred, err)
	}
	if err := store.SetOffline(ctx, soWhat, "/offline/so-what.flac"); err != nil {
		t.Fatalf("SetOffline: %v", err)
	}

	result := testsupport.MustScan(t, store, cfg)
	if result.Songs != 3 || result.Removed != 0 {
		t.Fatalf("unexpected rescan result: %+v", result)
	}

	song, err := store.Song(ctx, soWhat)
	if err != nil {
		t.Fatalf("Song after rescan: %v", err)
	}
	if !song.Starred || song.OfflinePath != "/offline/so-what.flac" {
		t.Fatalf("user state lost on rescan: %+v", song)
	}
}

func TestRescanPrunesMissingFiles(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()

	if err := os.Remove(musicPath(cfg, "john_coltrane/blue_train/01_blue_train.mp3")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	result := testsupport.MustScan(t, store, cfg)
	if result.Songs != 2 || result.Removed != 1 {
		t.Fatalf("unexpected rescan result: %+v", result)
	}

	artists, err := store.Artists(ctx)
	if err != nil {
		t.Fatalf("Artists: %v", err)
	}
	if got := entryNames(artists); !equalStrings(got, []string{"Miles Davis"}) {
		t.Fatalf("artists after prune = %v", got)
	}
	if _, err := store.Album(ctx, library.AlbumID("John Coltrane", "Blue Train")); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected pruned album, got %v", err)
	}
}

func TestScanRejectsMissingRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)

	_, err := store.Scan(context.Background(), library.ScanOptions{
		Root:       filepath.Join(testsupport.BaseDir(cfg), "nowhere"),
		Extensions: cfg.Library.AudioExtensions,
	})
	if err == nil {
		t.Fatal("expected error for missing music directory")
	}
}

type fixedProbe float64

func (p fixedProbe) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

func TestScanUsesDurationProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMusicFiles(fixtureFiles...))
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	if _, err := store.Scan(ctx, library.ScanOptions{
		Root:       cfg.Paths.MusicDir,
		Extensions: cfg.Library.AudioExtensions,
		Probe:      fixedProbe(545.5),
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	song, err := store.Song(ctx, library.SongID(musicPath(cfg, "Miles Davis/Kind of Blue/01 - So What.flac")))
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if song.Duration != 545.5 {
		t.Fatalf("duration = %v, want 545.5", song.Duration)
	}

	// A later scan without a probe keeps the known duration.
	testsupport.MustScan(t, store, cfg)
	song, err = store.Song(ctx, song.ID)
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if song.Duration != 545.5 {
		t.Fatalf("duration after probe-less scan = %v", song.Duration)
	}
}

func TestSearchRanksBySimilarity(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()

	results, err := store.Search(ctx, "BLUE", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %v", entryNames(results))
	}
	wantIDs := []string{
		library.AlbumID("John Coltrane", "Blue Train"),
		library.SongID(musicPath(cfg, "john_coltrane/blue_train/01_blue_train.mp3")),
		library.AlbumID("Miles Davis", "Kind of Blue"),
	}
	for i, want := range wantIDs {
		if results[i].ID != want {
			t.Fatalf("result %d = %+v, want id %s", i, results[i], want)
		}
	}

	limited, err := store.Search(ctx, "blue", 1)
	if err != nil {
		t.Fatalf("Search limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	for _, query := range []string{"zzz", "   ", "!!"} {
		none, err := store.Search(ctx, query, 0)
		if err != nil {
			t.Fatalf("Search %q: %v", query, err)
		}
		if len(none) != 0 {
			t.Fatalf("Search %q returned %v", query, entryNames(none))
		}
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()

	playlist, err := store.CreatePlaylist(ctx, "  Late Night ")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if playlist.Name != "Late Night" || playlist.ID == "" {
		t.Fatalf("unexpected playlist: %+v", playlist)
	}
	if _, err := store.CreatePlaylist(ctx, "Late Night"); !errors.Is(err, library.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := store.CreatePlaylist(ctx, " "); err == nil {
		t.Fatal("expected error for empty name")
	}

	if kind, err := store.KindOf(ctx, playlist.ID); err != nil || kind != library.KindPlaylist {
		t.Fatalf("KindOf = %v, %v", kind, err)
	}

	added, err := store.AddToPlaylist(ctx, playlist.ID, library.AlbumID("Miles Davis", "Kind of Blue"))
	if err != nil || added != 2 {
		t.Fatalf("AddToPlaylist album = %d, %v", added, err)
	}
	blueTrain := library.SongID(musicPath(cfg, "john_coltrane/blue_train/01_blue_train.mp3"))
	if added, err := store.AddToPlaylist(ctx, playlist.ID, blueTrain); err != nil || added != 1 {
		t.Fatalf("AddToPlaylist song = %d, %v", added, err)
	}
	if _, err := store.AddToPlaylist(ctx, playlist.ID, "missing"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown song, got %v", err)
	}

	songs, err := store.PlaylistSongs(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("PlaylistSongs: %v", err)
	}
	if len(songs) != 3 || songs[0].Name != "So What" || songs[2].ID != blueTrain {
		t.Fatalf("unexpected playlist songs: %+v", songs)
	}

	if err := store.MarkPlaylistClean(ctx, playlist.ID); err != nil {
		t.Fatalf("MarkPlaylistClean: %v", err)
	}
	fetched, err := store.Playlist(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if fetched.Dirty || fetched.SongCount != 3 {
		t.Fatalf("unexpected playlist after clean: %+v", fetched)
	}

	if err := store.RemoveFromPlaylist(ctx, playlist.ID, songs[0].ID); err != nil {
		t.Fatalf("RemoveFromPlaylist: %v", err)
	}
	if err := store.RemoveFromPlaylist(ctx, playlist.ID, songs[0].ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
	fetched, err = store.Playlist(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if !fetched.Dirty || fetched.SongCount != 2 {
		t.Fatalf("expected dirty playlist with 2 songs, got %+v", fetched)
	}

	listed, err := store.Playlists(ctx)
	if err != nil {
		t.Fatalf("Playlists: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != playlist.ID || listed[0].ImagePath != "" {
		t.Fatalf("unexpected playlists: %+v", listed)
	}

	if err := store.DeletePlaylist(ctx, playlist.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if _, err := store.Playlist(ctx, playlist.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeletePlaylist(ctx, playlist.ID); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTracksExpandsArtist(t *testing.T) {
	store, _ := newScannedStore(t)

	songs, err := store.Tracks(context.Background(), library.ArtistID("Miles Davis"))
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs for artist, got %d", len(songs))
	}
	if _, err := store.Tracks(context.Background(), "missing"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleStar(t *testing.T) {
	store, cfg := newScannedStore(t)
	ctx := context.Background()
	id := library.SongID(musicPath(cfg, "Miles Davis/Kind of Blue/02 - Freddie Freeloader.flac"))

	for _, want := range []bool{true, false} {
		got, err := store.ToggleStar(ctx, id)
		if err != nil {
			t.Fatalf("ToggleStar: %v", err)
		}
		if got != want {
			t.Fatalf("ToggleStar = %v, want %v", got, want)
		}
	}
	if _, err := store.ToggleStar(ctx, "missing"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.SetOffline(ctx, "missing", "/x"); !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from SetOffline, got %v", err)
	}
}

func TestOpenDetectsSchemaMismatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")
	store, err := library.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := library.OpenPath(dbPath); !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
