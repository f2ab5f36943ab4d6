package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"slib/internal/fileutil"
	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/protocol"
	"slib/internal/textutil"
)

func (d *Daemon) PlaylistNew(ctx context.Context, name string) bool {
	playlist, err := d.library.CreatePlaylist(ctx, name)
	if err != nil {
		return d.fail("playlist_new", err, logging.String("name", name))
	}
	d.logger.Info("playlist created",
		logging.ItemID(playlist.ID),
		logging.String("name", playlist.Name),
	)
	return true
}

// PlaylistAddTo appends the songs id stands for to a playlist.
func (d *Daemon) PlaylistAddTo(ctx context.Context, playlist, id protocol.Item) bool {
	if _, err := d.library.AddToPlaylist(ctx, playlist.ID, id.ID); err != nil {
		return d.fail("playlist_add_to", err,
			logging.String("playlist", playlist.ID),
			logging.ItemID(id.ID),
		)
	}
	return true
}

func (d *Daemon) PlaylistRemoveFrom(ctx context.Context, playlist, id protocol.Item) bool {
	if err := d.library.RemoveFromPlaylist(ctx, playlist.ID, id.ID); err != nil {
		return d.fail("playlist_remove_from", err,
			logging.String("playlist", playlist.ID),
			logging.ItemID(id.ID),
		)
	}
	return true
}

// PlaylistDelete removes a playlist and its uploaded M3U8 file.
func (d *Daemon) PlaylistDelete(ctx context.Context, id protocol.Item) bool {
	playlist, err := d.library.Playlist(ctx, id.ID)
	if err != nil {
		return d.fail("playlist_delete", err, logging.ItemID(id.ID))
	}
	if err := d.library.DeletePlaylist(ctx, playlist.ID); err != nil {
		return d.fail("playlist_delete", err, logging.ItemID(id.ID))
	}
	if err := os.Remove(d.playlistFile(playlist.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(d.logger, "failed to remove uploaded playlist file", "playlist_file_remove_failed",
			logging.ItemID(id.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale M3U8 file remains in the playlist directory"),
		)
	}
	return true
}

// PlaylistUpload writes the playlist as an extended M3U8 file into the
// playlist directory and clears its dirty flag.
func (d *Daemon) PlaylistUpload(ctx context.Context, id protocol.Item) bool {
	playlist, err := d.library.Playlist(ctx, id.ID)
	if err != nil {
		return d.fail("playlist_upload", err, logging.ItemID(id.ID))
	}
	songs, err := d.library.PlaylistSongs(ctx, playlist.ID)
	if err != nil {
		return d.fail("playlist_upload", err, logging.ItemID(id.ID))
	}

	target := d.playlistFile(playlist.Name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return d.fail("playlist_upload", fmt.Errorf("create playlist directory: %w", err))
	}
	if err := fileutil.WriteFileAtomic(target, []byte(renderM3U8(playlist.Name, songs)), 0o644); err != nil {
		return d.fail("playlist_upload", err, logging.String("path", target))
	}
	if err := d.library.MarkPlaylistClean(ctx, playlist.ID); err != nil {
		return d.fail("playlist_upload", err, logging.ItemID(id.ID))
	}
	d.logger.Info("playlist uploaded",
		logging.ItemID(playlist.ID),
		logging.String("path", target),
		logging.Int("songs", len(songs)),
	)
	return true
}

func (d *Daemon) playlistFile(name string) string {
	return filepath.Join(d.cfg.Paths.PlaylistDir, textutil.SanitizeFileName(name)+".m3u8")
}

// renderM3U8 prefers each song's offline copy so uploaded playlists keep
// working away from the music directory.
func renderM3U8(name string, songs []library.Song) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "#PLAYLIST:%s\n", name)
	for _, song := range songs {
		seconds := -1
		if song.Duration > 0 {
			seconds = int(math.Round(song.Duration))
		}
		fmt.Fprintf(&b, "#EXTINF:%d,%s - %s\n", seconds, song.ArtistName, song.Name)
		path := song.Path
		if song.OfflinePath != "" {
			path = song.OfflinePath
		}
		b.WriteString(path)
		b.WriteByte('\n')
	}
	return b.String()
}
