package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"slib/internal/textutil"
)

// CreatePlaylist adds an empty playlist. Names are unique after trimming.
func (s *Store) CreatePlaylist(ctx context.Context, name string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, errors.New("create playlist: name is empty")
	}
	playlist := Playlist{ID: uuid.NewString(), Name: name, Dirty: true}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var taken int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM playlists WHERE name = ?`, name).Scan(&taken); err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		stamp := nowStamp()
		_, err := tx.ExecContext(ctx, `INSERT INTO playlists (id, name, name_folded, dirty, created_at, updated_at)
            VALUES (?, ?, ?, 1, ?, ?)`, playlist.ID, name, textutil.Fold(name), stamp, stamp)
		return err
	})
	if err != nil {
		return Playlist{}, fmt.Errorf("create playlist: %w", err)
	}
	return playlist, nil
}

// Playlists lists playlists ordered by name. Playlists have no artwork.
func (s *Store) Playlists(ctx context.Context) ([]Entry, error) {
	entries, err := s.queryEntries(ctx, `SELECT id, name, '' FROM playlists ORDER BY name_folded, id`)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return entries, nil
}

// Playlist fetches a playlist with its song count.
func (s *Store) Playlist(ctx context.Context, id string) (Playlist, error) {
	var (
		playlist Playlist
		dirty    int
	)
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT p.id, p.name, p.dirty,
            (SELECT COUNT(1) FROM playlist_entries e WHERE e.playlist_id = p.id)
        FROM playlists p WHERE p.id = ?`, id).Scan(&playlist.ID, &playlist.Name, &dirty, &playlist.SongCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Playlist{}, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Playlist{}, fmt.Errorf("get playlist: %w", err)
	}
	playlist.Dirty = dirty != 0
	return playlist, nil
}

// PlaylistSongs lists a playlist's songs in insertion order. A song added
// twice appears twice.
func (s *Store) PlaylistSongs(ctx context.Context, id string) ([]Song, error) {
	if _, err := s.Playlist(ctx, id); err != nil {
		return nil, err
	}
	songs, err := s.querySongs(ctx, `JOIN playlist_entries e ON e.song_id = s.id
        WHERE e.playlist_id = ? ORDER BY e.entry_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list playlist songs: %w", err)
	}
	return songs, nil
}

// AddToPlaylist appends the songs id stands for (see Tracks) to a playlist
// and marks it dirty. It returns the number of songs appended.
func (s *Store) AddToPlaylist(ctx context.Context, playlistID, id string) (int, error) {
	if _, err := s.Playlist(ctx, playlistID); err != nil {
		return 0, err
	}
	if playlistID == id {
		return 0, errors.New("add to playlist: a playlist cannot contain itself")
	}
	songs, err := s.Tracks(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(songs) == 0 {
		return 0, nil
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, song := range songs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO playlist_entries (playlist_id, song_id) VALUES (?, ?)`,
				playlistID, song.ID); err != nil {
				return err
			}
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		return 0, fmt.Errorf("add to playlist: %w", err)
	}
	return len(songs), nil
}

// RemoveFromPlaylist drops every occurrence of a song from a playlist. It
// returns ErrNotFound when the song was not on the playlist.
func (s *Store) RemoveFromPlaylist(ctx context.Context, playlistID, songID string) error {
	if _, err := s.Playlist(ctx, playlistID); err != nil {
		return err
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries WHERE playlist_id = ? AND song_id = ?`,
			playlistID, songID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("song %s on playlist %s: %w", songID, playlistID, ErrNotFound)
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		return fmt.Errorf("remove from playlist: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist and its entries.
func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkPlaylistClean clears the dirty flag after the playlist was written out.
func (s *Store) MarkPlaylistClean(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `UPDATE playlists SET dirty = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark playlist clean: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	return nil
}

func touchPlaylist(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE playlists SET dirty = 1, updated_at = ? WHERE id = ?`, nowStamp(), id)
	return err
}
