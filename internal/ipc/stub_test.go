package ipc_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"slib/internal/protocol"
)

// stubDaemon records every capability call and answers with canned values.
type stubDaemon struct {
	mu    sync.Mutex
	calls []string

	shutdown bool
	items    []protocol.Item
	status   protocol.Status
	song     *protocol.SongInfo
	album    *protocol.AlbumInfo
	ok       bool
}

func (s *stubDaemon) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *stubDaemon) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *stubDaemon) Shutdown(context.Context) bool {
	s.record("Shutdown")
	return s.shutdown
}

func (s *stubDaemon) FetchArtists(context.Context) []protocol.Item {
	s.record("FetchArtists")
	return s.items
}

func (s *stubDaemon) FetchAlbums(context.Context) []protocol.Item {
	s.record("FetchAlbums")
	return s.items
}

func (s *stubDaemon) FetchPlaylists(context.Context) []protocol.Item {
	s.record("FetchPlaylists")
	return s.items
}

func (s *stubDaemon) FetchSongs(context.Context) []protocol.Item {
	s.record("FetchSongs")
	return s.items
}

func (s *stubDaemon) Scan(context.Context) bool { s.record("Scan"); return s.ok }

func (s *stubDaemon) Status(context.Context) protocol.Status {
	s.record("Status")
	return s.status
}

func (s *stubDaemon) Restart(context.Context) bool { s.record("Restart"); return s.ok }
func (s *stubDaemon) Play(context.Context) bool    { s.record("Play"); return s.ok }
func (s *stubDaemon) Stop(context.Context) bool    { s.record("Stop"); return s.ok }
func (s *stubDaemon) Pause(context.Context) bool   { s.record("Pause"); return s.ok }
func (s *stubDaemon) Skip(context.Context) bool    { s.record("Skip"); return s.ok }

func (s *stubDaemon) QueueAdd(_ context.Context, id protocol.Item, position uint8) bool {
	s.record("QueueAdd %s %d", id.ID, position)
	return s.ok
}

func (s *stubDaemon) QueueRemove(_ context.Context, id protocol.Item) bool {
	s.record("QueueRemove %s", id.ID)
	return s.ok
}

func (s *stubDaemon) VolumeAdjust(_ context.Context, amount uint8) bool {
	s.record("VolumeAdjust %d", amount)
	return s.ok
}

func (s *stubDaemon) VolumeSet(_ context.Context, amount uint8) bool {
	s.record("VolumeSet %d", amount)
	return s.ok
}

func (s *stubDaemon) Search(_ context.Context, query string) []protocol.Item {
	s.record("Search %s", query)
	return s.items
}

func (s *stubDaemon) Download(_ context.Context, id protocol.Item) bool {
	s.record("Download %s", id.ID)
	return s.ok
}

func (s *stubDaemon) Delete(_ context.Context, id protocol.Item) bool {
	s.record("Delete %s", id.ID)
	return s.ok
}

func (s *stubDaemon) Star(_ context.Context, id protocol.Item) bool {
	s.record("Star %s", id.ID)
	return s.ok
}

func (s *stubDaemon) PlaylistDownload(_ context.Context, id protocol.Item) bool {
	s.record("PlaylistDownload %s", id.ID)
	return s.ok
}

func (s *stubDaemon) PlaylistUpload(_ context.Context, id protocol.Item) bool {
	s.record("PlaylistUpload %s", id.ID)
	return s.ok
}

func (s *stubDaemon) PlaylistNew(_ context.Context, name string) bool {
	s.record("PlaylistNew %s", name)
	return s.ok
}

func (s *stubDaemon) PlaylistAddTo(_ context.Context, playlist, id protocol.Item) bool {
	s.record("PlaylistAddTo %s %s", playlist.ID, id.ID)
	return s.ok
}

func (s *stubDaemon) PlaylistRemoveFrom(_ context.Context, playlist, id protocol.Item) bool {
	s.record("PlaylistRemoveFrom %s %s", playlist.ID, id.ID)
	return s.ok
}

func (s *stubDaemon) PlaylistDelete(_ context.Context, id protocol.Item) bool {
	s.record("PlaylistDelete %s", id.ID)
	return s.ok
}

func (s *stubDaemon) SongInfo(_ context.Context, id protocol.Item) *protocol.SongInfo {
	s.record("SongInfo %s", id.ID)
	return s.song
}

func (s *stubDaemon) AlbumInfo(_ context.Context, id protocol.Item) *protocol.AlbumInfo {
	s.record("AlbumInfo %s", id.ID)
	return s.album
}

// socketPath returns a short socket path; t.TempDir paths can exceed the
// sun_path limit on some systems.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "slib-ipc")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir + "/s.sock"
}
