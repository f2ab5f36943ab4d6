package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"slib/internal/textutil"
)

var (
	albumArtwork  = []string{"cover.jpg", "folder.jpg", "cover.png"}
	artistArtwork = []string{"artist.jpg", "folder.jpg", "artist.png"}

	trackPrefix = regexp.MustCompile(`^(\d{1,3})\s*[-._ ]\s*(.+)$`)
)

// DurationProbe reports the length of an audio file in seconds. Outputs that
// can read tags implement it; without one durations stay at zero.
type DurationProbe interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ScanOptions configures a library scan.
type ScanOptions struct {
	Root       string
	Extensions []string
	Probe      DurationProbe
}

// ScanResult summarises a completed scan.
type ScanResult struct {
	Songs   int
	Removed int
	// Skipped counts audio files outside the artist/album layout and
	// files that could not be recorded.
	Skipped int
}

// Scan walks opts.Root expecting <artist>/<album>/<track>.<ext>, records
// every audio file and removes songs whose files have disappeared. Files
// nested deeper than the album directory belong to that album.
func (s *Store) Scan(ctx context.Context, opts ScanOptions) (ScanResult, error) {
	ctx = ensureContext(ctx)
	var result ScanResult

	info, err := os.Stat(opts.Root)
	if err != nil {
		return result, fmt.Errorf("scan: %w", err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("scan: %s is not a directory", opts.Root)
	}

	extensions := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extensions[strings.ToLower(ext)] = struct{}{}
	}

	stamp := nowStamp()
	walkErr := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == opts.Root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != opts.Root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		rec, ok := songRecord(opts.Root, path)
		if !ok {
			result.Skipped++
			return nil
		}
		if opts.Probe != nil {
			if seconds, err := opts.Probe.Duration(ctx, path); err == nil {
				rec.Duration = seconds
			}
		}
		if _, err := s.UpsertSong(ctx, rec, stamp); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			result.Skipped++
			return nil
		}
		result.Songs++
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("scan: %w", walkErr)
	}

	removed, err := s.PruneStale(ctx, stamp)
	if err != nil {
		return result, err
	}
	result.Removed = removed
	return result, nil
}

func songRecord(root, path string) (SongRecord, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return SongRecord{}, false
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) < 3 {
		return SongRecord{}, false
	}
	artist := textutil.DisplayName(segments[0])
	album := textutil.DisplayName(segments[1])
	if artist == "" || album == "" {
		return SongRecord{}, false
	}
	track, name := splitTrackName(strings.TrimSuffix(segments[len(segments)-1], filepath.Ext(path)))
	if name == "" {
		return SongRecord{}, false
	}

	artistDir := filepath.Join(root, segments[0])
	albumDir := filepath.Join(artistDir, segments[1])
	return SongRecord{
		Path:        path,
		Name:        name,
		Track:       track,
		Album:       album,
		AlbumImage:  findArtwork(albumDir, albumArtwork),
		Artist:      artist,
		ArtistImage: findArtwork(artistDir, artistArtwork),
	}, true
}

// splitTrackName separates a leading track number such as "01 - " from the
// title.
func splitTrackName(base string) (int, string) {
	if m := trackPrefix.FindStringSubmatch(base); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if name := textutil.DisplayName(m[2]); name != "" {
				return n, name
			}
		}
	}
	return 0, textutil.DisplayName(base)
}

func findArtwork(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}
