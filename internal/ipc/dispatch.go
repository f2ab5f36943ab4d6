package ipc

import (
	"context"
	"errors"
	"fmt"

	"slib/internal/protocol"
)

var errNoDaemon = errors.New("no daemon capability configured")

// Dispatcher maps decoded commands onto a Daemon and encodes the result.
// It holds no per-request state.
type Dispatcher struct {
	daemon   Daemon
	identity protocol.BuildIdentity
}

// NewDispatcher returns a dispatcher answering Verify with identity. A nil
// identity means this process's protocol.Identity.
func NewDispatcher(d Daemon, identity protocol.BuildIdentity) *Dispatcher {
	if identity == nil {
		identity = protocol.Identity()
	}
	return &Dispatcher{daemon: d, identity: identity}
}

// Identity reports the identity returned for Verify.
func (d *Dispatcher) Identity() protocol.BuildIdentity {
	return d.identity
}

// Dispatch runs cmd and returns the encoded reply payload.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	if cmd == nil {
		return nil, errors.New("dispatch: nil command")
	}
	if _, ok := cmd.(protocol.VerifyRequest); ok {
		return protocol.EncodeResult(d.identity)
	}
	if d.daemon == nil {
		return nil, fmt.Errorf("dispatch %s: %w", cmd.Kind(), errNoDaemon)
	}

	var result any
	switch c := cmd.(type) {
	case protocol.ShutdownRequest:
		result = d.daemon.Shutdown(ctx)
	case protocol.FetchArtistsRequest:
		result = d.daemon.FetchArtists(ctx)
	case protocol.FetchAlbumsRequest:
		result = d.daemon.FetchAlbums(ctx)
	case protocol.FetchPlaylistsRequest:
		result = d.daemon.FetchPlaylists(ctx)
	case protocol.FetchSongsRequest:
		result = d.daemon.FetchSongs(ctx)
	case protocol.ScanRequest:
		result = d.daemon.Scan(ctx)
	case protocol.StatusRequest:
		result = d.daemon.Status(ctx)
	case protocol.RestartRequest:
		result = d.daemon.Restart(ctx)
	case protocol.PlayRequest:
		result = d.daemon.Play(ctx)
	case protocol.StopRequest:
		result = d.daemon.Stop(ctx)
	case protocol.PauseRequest:
		result = d.daemon.Pause(ctx)
	case protocol.SkipRequest:
		result = d.daemon.Skip(ctx)
	case protocol.QueueAddRequest:
		result = d.daemon.QueueAdd(ctx, c.ID, c.Position)
	case protocol.QueueRemoveRequest:
		result = d.daemon.QueueRemove(ctx, c.ID)
	case protocol.VolumeAdjustRequest:
		result = d.daemon.VolumeAdjust(ctx, c.Amount)
	case protocol.VolumeSetRequest:
		result = d.daemon.VolumeSet(ctx, c.Amount)
	case protocol.SearchRequest:
		result = d.daemon.Search(ctx, c.Query)
	case protocol.DownloadRequest:
		result = d.daemon.Download(ctx, c.ID)
	case protocol.DeleteRequest:
		result = d.daemon.Delete(ctx, c.ID)
	case protocol.StarRequest:
		result = d.daemon.Star(ctx, c.ID)
	case protocol.PlaylistDownloadRequest:
		result = d.daemon.PlaylistDownload(ctx, c.ID)
	case protocol.PlaylistUploadRequest:
		result = d.daemon.PlaylistUpload(ctx, c.ID)
	case protocol.PlaylistNewRequest:
		result = d.daemon.PlaylistNew(ctx, c.Name)
	case protocol.PlaylistAddToRequest:
		result = d.daemon.PlaylistAddTo(ctx, c.Playlist, c.ID)
	case protocol.PlaylistRemoveFromRequest:
		result = d.daemon.PlaylistRemoveFrom(ctx, c.Playlist, c.ID)
	case protocol.PlaylistDeleteRequest:
		result = d.daemon.PlaylistDelete(ctx, c.ID)
	case protocol.SongInfoRequest:
		result = d.daemon.SongInfo(ctx, c.ID)
	case protocol.AlbumInfoRequest:
		result = d.daemon.AlbumInfo(ctx, c.ID)
	default:
		return nil, fmt.Errorf("dispatch: unhandled command %s", cmd.Kind())
	}
	return protocol.EncodeResult(result)
}
