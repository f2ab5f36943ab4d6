package library

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"slib/internal/textutil"
)

// idNamespace seeds the name-based ids of scanned entities.
var idNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9a55-3e2f0d6b7c41")

// ArtistID returns the stable id of an artist name.
func ArtistID(artist string) string {
	return uuid.NewSHA1(idNamespace, []byte("artist\x00"+textutil.Fold(artist))).String()
}

// AlbumID returns the stable id of an album under an artist.
func AlbumID(artist, album string) string {
	return uuid.NewSHA1(idNamespace, []byte("album\x00"+textutil.Fold(artist)+"\x00"+textutil.Fold(album))).String()
}

// SongID returns the stable id of the song stored at path.
func SongID(path string) string {
	return uuid.NewSHA1(idNamespace, []byte("song\x00"+path)).String()
}

// SongRecord is one scanned audio file.
type SongRecord struct {
	Path        string
	Name        string
	Track       int
	Duration    float64
	Album       string
	AlbumImage  string
	Artist      string
	ArtistImage string
}

// UpsertSong records a scanned song together with its album and artist. The
// starred flag and offline copy of an existing song are preserved, as is a
// known duration when the record carries none. scannedAt tags the row for
// PruneStale.
func (s *Store) UpsertSong(ctx context.Context, rec SongRecord, scannedAt string) (string, error) {
	if rec.Path == "" || rec.Name == "" || rec.Album == "" || rec.Artist == "" {
		return "", fmt.Errorf("upsert song: incomplete record for %q", rec.Path)
	}
	artistID := ArtistID(rec.Artist)
	albumID := AlbumID(rec.Artist, rec.Album)
	songID := SongID(rec.Path)
	if scannedAt == "" {
		scannedAt = nowStamp()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO artists (id, name, name_folded, image_path)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                name_folded = excluded.name_folded,
                image_path = CASE WHEN excluded.image_path <> '' THEN excluded.image_path ELSE artists.image_path END`,
			artistID, rec.Artist, textutil.Fold(rec.Artist), rec.ArtistImage); err != nil {
			return fmt.Errorf("artist: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO albums (id, artist_id, name, name_folded, image_path)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                name_folded = excluded.name_folded,
                image_path = excluded.image_path`,
			albumID, artistID, rec.Album, textutil.Fold(rec.Album), rec.AlbumImage); err != nil {
			return fmt.Errorf("album: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO songs (id, album_id, artist_id, name, name_folded, path, track, duration, scanned_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                album_id = excluded.album_id,
                artist_id = excluded.artist_id,
                name = excluded.name,
                name_folded = excluded.name_folded,
                track = excluded.track,
                duration = CASE WHEN excluded.duration > 0 THEN excluded.duration ELSE songs.duration END,
                scanned_at = excluded.scanned_at`,
			songID, albumID, artistID, rec.Name, textutil.Fold(rec.Name), rec.Path, rec.Track, rec.Duration, scannedAt); err != nil {
			return fmt.Errorf("song: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upsert song: %w", err)
	}
	return songID, nil
}

// PruneStale deletes songs whose last scan tag differs from scannedAt, then
// albums and artists left without songs. It returns the number of songs
// removed.
func (s *Store) PruneStale(ctx context.Context, scannedAt string) (int, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE scanned_at <> ?`, scannedAt)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id NOT IN (SELECT DISTINCT album_id FROM songs)`); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM artists WHERE id NOT IN (SELECT DISTINCT artist_id FROM songs)
            AND id NOT IN (SELECT DISTINCT artist_id FROM albums)`)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune stale: %w", err)
	}
	return int(removed), nil
}
