package ipc

import (
	"context"

	"slib/internal/protocol"
)

// Daemon is the capability set the dispatcher drives. There is one method per
// protocol command except Verify, which the dispatcher answers itself.
//
// Methods report failure through their result (false, an empty slice or nil)
// rather than an error; implementations log their own faults. A true result
// from Shutdown is the only thing that ends a Server's loop.
type Daemon interface {
	Shutdown(ctx context.Context) bool

	FetchArtists(ctx context.Context) []protocol.Item
	FetchAlbums(ctx context.Context) []protocol.Item
	FetchPlaylists(ctx context.Context) []protocol.Item
	FetchSongs(ctx context.Context) []protocol.Item
	Scan(ctx context.Context) bool
	Status(ctx context.Context) protocol.Status

	Restart(ctx context.Context) bool
	Play(ctx context.Context) bool
	Stop(ctx context.Context) bool
	Pause(ctx context.Context) bool
	Skip(ctx context.Context) bool

	QueueAdd(ctx context.Context, id protocol.Item, position uint8) bool
	QueueRemove(ctx context.Context, id protocol.Item) bool
	VolumeAdjust(ctx context.Context, amount uint8) bool
	VolumeSet(ctx context.Context, amount uint8) bool

	Search(ctx context.Context, query string) []protocol.Item
	Download(ctx context.Context, id protocol.Item) bool
	Delete(ctx context.Context, id protocol.Item) bool
	Star(ctx context.Context, id protocol.Item) bool

	PlaylistDownload(ctx context.Context, id protocol.Item) bool
	PlaylistUpload(ctx context.Context, id protocol.Item) bool
	PlaylistNew(ctx context.Context, name string) bool
	PlaylistAddTo(ctx context.Context, playlist, id protocol.Item) bool
	PlaylistRemoveFrom(ctx context.Context, playlist, id protocol.Item) bool
	PlaylistDelete(ctx context.Context, id protocol.Item) bool

	SongInfo(ctx context.Context, id protocol.Item) *protocol.SongInfo
	AlbumInfo(ctx context.Context, id protocol.Item) *protocol.AlbumInfo
}
