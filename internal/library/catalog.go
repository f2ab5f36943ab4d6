package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"slib/internal/textutil"
)

const songColumns = `s.id, s.name, s.path, s.track, s.duration, s.starred, s.offline_path,
    al.id, al.name, al.image_path, ar.id, ar.name`

const songJoins = ` FROM songs s
    JOIN albums al ON al.id = s.album_id
    JOIN artists ar ON ar.id = s.artist_id`

// DefaultSearchLimit caps Search results when the caller passes no limit.
const DefaultSearchLimit = 50

func scanSong(scanner interface{ Scan(dest ...any) error }) (Song, error) {
	var (
		song    Song
		starred int
	)
	if err := scanner.Scan(
		&song.ID,
		&song.Name,
		&song.Path,
		&song.Track,
		&song.Duration,
		&starred,
		&song.OfflinePath,
		&song.AlbumID,
		&song.AlbumName,
		&song.AlbumImage,
		&song.ArtistID,
		&song.ArtistName,
	); err != nil {
		return Song{}, err
	}
	song.Starred = starred != 0
	return song, nil
}

func (s *Store) querySongs(ctx context.Context, where string, args ...any) ([]Song, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+songColumns+songJoins+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.ImagePath); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Artists lists every artist ordered by name.
func (s *Store) Artists(ctx context.Context) ([]Entry, error) {
	entries, err := s.queryEntries(ctx, `SELECT id, name, image_path FROM artists ORDER BY name_folded, id`)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	return entries, nil
}

// Albums lists every album ordered by name.
func (s *Store) Albums(ctx context.Context) ([]Entry, error) {
	entries, err := s.queryEntries(ctx, `SELECT id, name, image_path FROM albums ORDER BY name_folded, id`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return entries, nil
}

// Songs lists every song ordered by name. Songs carry their album artwork.
func (s *Store) Songs(ctx context.Context) ([]Entry, error) {
	entries, err := s.queryEntries(ctx, `SELECT s.id, s.name, al.image_path
        FROM songs s JOIN albums al ON al.id = s.album_id
        ORDER BY s.name_folded, s.id`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return entries, nil
}

// StarredSongs lists starred songs ordered by name.
func (s *Store) StarredSongs(ctx context.Context) ([]Song, error) {
	songs, err := s.querySongs(ctx, `WHERE s.starred = 1 ORDER BY s.name_folded, s.id`)
	if err != nil {
		return nil, fmt.Errorf("list starred songs: %w", err)
	}
	return songs, nil
}

// Song fetches a song by id.
func (s *Store) Song(ctx context.Context, id string) (Song, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+songColumns+songJoins+` WHERE s.id = ?`, id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// Album fetches an album by id.
func (s *Store) Album(ctx context.Context, id string) (Album, error) {
	var album Album
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT al.id, al.name, al.image_path, ar.id, ar.name
        FROM albums al JOIN artists ar ON ar.id = al.artist_id
        WHERE al.id = ?`, id).Scan(&album.ID, &album.Name, &album.ImagePath, &album.ArtistID, &album.ArtistName)
	if errors.Is(err, sql.ErrNoRows) {
		return Album{}, fmt.Errorf("album %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Album{}, fmt.Errorf("get album: %w", err)
	}
	return album, nil
}

// AlbumSongs lists an album's songs in track order.
func (s *Store) AlbumSongs(ctx context.Context, id string) ([]Song, error) {
	songs, err := s.querySongs(ctx, `WHERE s.album_id = ? ORDER BY s.track, s.name_folded, s.id`, id)
	if err != nil {
		return nil, fmt.Errorf("list album songs: %w", err)
	}
	return songs, nil
}

// ArtistSongs lists an artist's songs grouped by album in track order.
func (s *Store) ArtistSongs(ctx context.Context, id string) ([]Song, error) {
	songs, err := s.querySongs(ctx, `WHERE s.artist_id = ? ORDER BY al.name_folded, al.id, s.track, s.name_folded`, id)
	if err != nil {
		return nil, fmt.Errorf("list artist songs: %w", err)
	}
	return songs, nil
}

// KindOf reports which table an id belongs to.
func (s *Store) KindOf(ctx context.Context, id string) (Kind, error) {
	var kind string
	err := s.db.QueryRowContext(ensureContext(ctx), `
        SELECT 'song' FROM songs WHERE id = ?
        UNION ALL SELECT 'album' FROM albums WHERE id = ?
        UNION ALL SELECT 'artist' FROM artists WHERE id = ?
        UNION ALL SELECT 'playlist' FROM playlists WHERE id = ?
        LIMIT 1`, id, id, id, id).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	return Kind(kind), nil
}

// Tracks expands any catalogue id into the songs it stands for: a song
// yields itself, an album or playlist its songs in order, an artist every
// album's songs.
func (s *Store) Tracks(ctx context.Context, id string) ([]Song, error) {
	kind, err := s.KindOf(ctx, id)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindSong:
		song, err := s.Song(ctx, id)
		if err != nil {
			return nil, err
		}
		return []Song{song}, nil
	case KindAlbum:
		return s.AlbumSongs(ctx, id)
	case KindArtist:
		return s.ArtistSongs(ctx, id)
	case KindPlaylist:
		return s.PlaylistSongs(ctx, id)
	}
	return nil, fmt.Errorf("id %s: %w", id, ErrNotFound)
}

// ToggleStar flips a song's starred flag and returns the new value.
func (s *Store) ToggleStar(ctx context.Context, id string) (bool, error) {
	var starred bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx, `SELECT starred FROM songs WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("song %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		starred = current == 0
		_, err = tx.ExecContext(ctx, `UPDATE songs SET starred = ? WHERE id = ?`, boolToInt(starred), id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("toggle star: %w", err)
	}
	return starred, nil
}

// SetOffline records where the offline copy of a song lives. An empty path
// clears it.
func (s *Store) SetOffline(ctx context.Context, id, path string) error {
	res, err := s.execWithRetry(ctx, `UPDATE songs SET offline_path = ? WHERE id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("set offline path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return nil
}

type searchHit struct {
	entry Entry
	rank  int
	score float64
}

// Search finds artists, albums, songs and playlists whose names share words
// with query. Results are ordered by similarity; ties favour artists, then
// albums, songs and playlists. A limit of zero or less uses
// DefaultSearchLimit.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	tokens := textutil.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	folded := strings.TrimSpace(textutil.Fold(query))
	queryPrint := textutil.NewFingerprint(query)

	clauses := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, token := range tokens {
		clauses[i] = "name_folded LIKE ?"
		args[i] = "%" + token + "%"
	}
	filter := strings.Join(clauses, " OR ")

	sources := []struct {
		rank  int
		query string
	}{
		{0, `SELECT id, name, image_path, name_folded FROM artists WHERE ` + filter},
		{1, `SELECT id, name, image_path, name_folded FROM albums WHERE ` + filter},
		{2, `SELECT s.id, s.name, al.image_path, s.name_folded FROM songs s
            JOIN albums al ON al.id = s.album_id WHERE ` + strings.ReplaceAll(filter, "name_folded", "s.name_folded")},
		{3, `SELECT id, name, '', name_folded FROM playlists WHERE ` + filter},
	}

	var hits []searchHit
	for _, source := range sources {
		rows, err := s.db.QueryContext(ensureContext(ctx), source.query, args...)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		for rows.Next() {
			var (
				entry      Entry
				nameFolded string
			)
			if err := rows.Scan(&entry.ID, &entry.Name, &entry.ImagePath, &nameFolded); err != nil {
				rows.Close()
				return nil, fmt.Errorf("search: %w", err)
			}
			score := textutil.CosineSimilarity(queryPrint, textutil.NewFingerprint(entry.Name))
			if strings.Contains(nameFolded, folded) {
				score += 1
			}
			if score == 0 {
				continue
			}
			hits = append(hits, searchHit{entry: entry, rank: source.rank, score: score})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].entry.Name < hits[j].entry.Name
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]Entry, len(hits))
	for i, hit := range hits {
		results[i] = hit.entry
	}
	return results, nil
}
