package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"slib/internal/fileutil"
	"slib/internal/library"
	"slib/internal/logging"
	"slib/internal/protocol"
	"slib/internal/textutil"
)

// offlinePath is where the offline copy of song is stored:
// <offline_dir>/<artist>/<album>/<track> - <title><ext>.
func (d *Daemon) offlinePath(song library.Song) string {
	name := textutil.SanitizeFileName(song.Name)
	if name == "" {
		name = song.ID
	}
	if song.Track > 0 {
		name = fmt.Sprintf("%02d - %s", song.Track, name)
	}
	return filepath.Join(
		d.cfg.Paths.OfflineDir,
		textutil.SanitizeFileName(song.ArtistName),
		textutil.SanitizeFileName(song.AlbumName),
		name+filepath.Ext(song.Path),
	)
}

func (d *Daemon) downloadSong(ctx context.Context, song library.Song) error {
	if song.OfflinePath != "" {
		if info, err := os.Stat(song.OfflinePath); err == nil && info.Mode().IsRegular() {
			return nil
		}
	}
	target := d.offlinePath(song)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create offline directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(song.Path, target); err != nil {
		return fmt.Errorf("copy %s: %w", song.Path, err)
	}
	return d.library.SetOffline(ctx, song.ID, target)
}

func (d *Daemon) downloadSongs(ctx context.Context, op string, id string, songs []library.Song) bool {
	var errs []error
	copied := 0
	for _, song := range songs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.downloadSong(ctx, song); err != nil {
			errs = append(errs, err)
			continue
		}
		copied++
	}
	if err := errors.Join(errs...); err != nil {
		return d.fail(op, err,
			logging.ItemID(id),
			logging.Int("copied", copied),
			logging.Int("failed", len(errs)),
		)
	}
	d.logger.Info("offline copies ready",
		logging.Command(op),
		logging.ItemID(id),
		logging.Int("songs", copied),
	)
	return true
}

// Download copies the songs id stands for into the offline directory.
func (d *Daemon) Download(ctx context.Context, id protocol.Item) bool {
	songs, err := d.library.Tracks(ctx, id.ID)
	if err != nil {
		return d.fail("download", err, logging.ItemID(id.ID))
	}
	return d.downloadSongs(ctx, "download", id.ID, songs)
}

// PlaylistDownload copies every song of a playlist into the offline
// directory.
func (d *Daemon) PlaylistDownload(ctx context.Context, id protocol.Item) bool {
	songs, err := d.library.PlaylistSongs(ctx, id.ID)
	if err != nil {
		return d.fail("playlist_download", err, logging.ItemID(id.ID))
	}
	return d.downloadSongs(ctx, "playlist_download", id.ID, songs)
}

// Delete removes the offline copies of the songs id stands for. Songs
// without a copy are skipped.
func (d *Daemon) Delete(ctx context.Context, id protocol.Item) bool {
	songs, err := d.library.Tracks(ctx, id.ID)
	if err != nil {
		return d.fail("delete", err, logging.ItemID(id.ID))
	}
	var errs []error
	removed := 0
	for _, song := range songs {
		if song.OfflinePath == "" {
			continue
		}
		if err := os.Remove(song.OfflinePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		if err := d.library.SetOffline(ctx, song.ID, ""); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if err := errors.Join(errs...); err != nil {
		return d.fail("delete", err, logging.ItemID(id.ID))
	}
	d.logger.Info("offline copies removed",
		logging.ItemID(id.ID),
		logging.Int("songs", removed),
	)
	return true
}
