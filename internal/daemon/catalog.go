package daemon

import (
	"context"
	"errors"
	"time"

	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/protocol"
)

func (d *Daemon) FetchArtists(ctx context.Context) []protocol.Item {
	entries, err := d.library.Artists(ctx)
	if err != nil {
		d.fail("fetch_artists", err)
		return nil
	}
	return itemsFromEntries(entries)
}

func (d *Daemon) FetchAlbums(ctx context.Context) []protocol.Item {
	entries, err := d.library.Albums(ctx)
	if err != nil {
		d.fail("fetch_albums", err)
		return nil
	}
	return itemsFromEntries(entries)
}

func (d *Daemon) FetchPlaylists(ctx context.Context) []protocol.Item {
	entries, err := d.library.Playlists(ctx)
	if err != nil {
		d.fail("fetch_playlists", err)
		return nil
	}
	return itemsFromEntries(entries)
}

func (d *Daemon) FetchSongs(ctx context.Context) []protocol.Item {
	entries, err := d.library.Songs(ctx)
	if err != nil {
		d.fail("fetch_songs", err)
		return nil
	}
	return itemsFromEntries(entries)
}

// Scan rescans the music directory. Only one scan runs at a time; a request
// arriving during a scan is answered false.
func (d *Daemon) Scan(ctx context.Context) bool {
	if !d.scanMu.TryLock() {
		logging.WarnWithContext(d.logger, "scan already in progress", "scan_busy",
			logging.String(logging.FieldImpact, "request ignored"),
			logging.String(logging.FieldErrorHint, "retry after the running scan finishes"),
		)
		return false
	}
	defer d.scanMu.Unlock()

	started := time.Now()
	result, err := d.library.Scan(ctx, library.ScanOptions{
		Root:       d.cfg.Paths.MusicDir,
		Extensions: d.cfg.Library.AudioExtensions,
		Probe:      d.probe,
	})
	if err != nil {
		return d.fail("scan", err, logging.String("music_dir", d.cfg.Paths.MusicDir))
	}
	d.logger.Info("library scan complete",
		logging.Int("songs", result.Songs),
		logging.Int("removed", result.Removed),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "scan_complete"),
	)
	return true
}

// Search returns catalogue entries similar to query, best match first.
func (d *Daemon) Search(ctx context.Context, query string) []protocol.Item {
	entries, err := d.library.Search(ctx, query, 0)
	if err != nil {
		d.fail("search", err, logging.String("query", query))
		return nil
	}
	return itemsFromEntries(entries)
}

// Star toggles a song's starred flag.
func (d *Daemon) Star(ctx context.Context, id protocol.Item) bool {
	starred, err := d.library.ToggleStar(ctx, id.ID)
	if err != nil {
		return d.fail("star", err, logging.ItemID(id.ID))
	}
	d.logger.Info("song star toggled",
		logging.ItemID(id.ID),
		logging.Bool("starred", starred),
	)
	return true
}

// SongInfo describes a song, or returns nil when id is not a known song.
func (d *Daemon) SongInfo(ctx context.Context, id protocol.Item) *protocol.SongInfo {
	song, err := d.library.Song(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, library.ErrNotFound) {
			d.fail("song_info", err, logging.ItemID(id.ID))
		}
		return nil
	}
	return &protocol.SongInfo{
		Duration: float32(song.Duration),
		Album:    protocol.Item{ID: song.AlbumID, Name: song.AlbumName, ImagePath: song.AlbumImage},
		Artist:   song.ArtistName,
	}
}

// AlbumInfo lists an album's songs in track order, or returns nil when id is
// not a known album.
func (d *Daemon) AlbumInfo(ctx context.Context, id protocol.Item) *protocol.AlbumInfo {
	album, err := d.library.Album(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, library.ErrNotFound) {
			d.fail("album_info", err, logging.ItemID(id.ID))
		}
		return nil
	}
	songs, err := d.library.AlbumSongs(ctx, album.ID)
	if err != nil {
		d.fail("album_info", err, logging.ItemID(id.ID))
		return nil
	}
	return &protocol.AlbumInfo{Songs: itemsFromSongs(songs), Artist: album.ArtistName}
}
