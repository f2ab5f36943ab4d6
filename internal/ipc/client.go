package ipc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"slib/internal/protocol"
)

const defaultDialTimeout = 2 * time.Second

// Client issues protocol commands to the daemon, one connection per call.
type Client struct {
	path        string
	dialTimeout time.Duration
	identity    protocol.BuildIdentity
	remote      protocol.BuildIdentity
}

type clientOptions struct {
	identity    protocol.BuildIdentity
	dialTimeout time.Duration
	skipVerify  bool
}

// ClientOption customises Dial.
type ClientOption func(*clientOptions)

// WithClientIdentity overrides the identity compared during the handshake.
func WithClientIdentity(id protocol.BuildIdentity) ClientOption {
	return func(o *clientOptions) { o.identity = id }
}

// WithDialTimeout bounds each connection attempt.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.dialTimeout = d }
}

// WithoutVerify skips the Verify handshake.
func WithoutVerify() ClientOption {
	return func(o *clientOptions) { o.skipVerify = true }
}

// Dial returns a client for the daemon listening at path. Unless
// WithoutVerify is given it first runs the Verify handshake and fails with an
// *IdentityMismatchError when the daemon was built from a different protocol
// revision.
func Dial(ctx context.Context, path string, opts ...ClientOption) (*Client, error) {
	options := clientOptions{dialTimeout: defaultDialTimeout}
	for _, opt := range opts {
		opt(&options)
	}
	if options.identity == nil {
		options.identity = protocol.Identity()
	}
	c := &Client{
		path:        path,
		dialTimeout: options.dialTimeout,
		identity:    options.identity,
	}
	if options.skipVerify {
		return c, nil
	}

	remote, err := c.Verify(ctx)
	if err != nil {
		return nil, err
	}
	if !c.identity.Equal(remote) {
		return nil, &IdentityMismatchError{Local: c.identity, Remote: remote}
	}
	c.remote = remote
	return c, nil
}

// Path returns the socket path the client dials.
func (c *Client) Path() string {
	return c.path
}

// RemoteIdentity returns the identity observed during the handshake, or nil
// when the client was built WithoutVerify.
func (c *Client) RemoteIdentity() protocol.BuildIdentity {
	return c.remote
}

// Call sends cmd on a new connection and returns the raw reply payload.
func (c *Client) Call(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	payload, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.path)
	if err != nil {
		return nil, &TransportError{Op: "dial", Path: c.path, Err: err}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := protocol.WriteRecord(conn, payload); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Op: "write", Path: c.path, Err: err}
	}
	reply, err := protocol.ReadRecord(bufio.NewReader(conn))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var decodeErr *protocol.DecodeError
		switch {
		case errors.Is(err, io.EOF):
			return nil, &TransportError{Op: "read", Path: c.path, Err: ErrNoReply}
		case errors.As(err, &decodeErr):
			return nil, err
		default:
			return nil, &TransportError{Op: "read", Path: c.path, Err: err}
		}
	}
	return reply, nil
}

func call[T any](ctx context.Context, c *Client, cmd protocol.Command) (T, error) {
	reply, err := c.Call(ctx, cmd)
	if err != nil {
		var zero T
		return zero, err
	}
	return protocol.Decode[T](reply)
}

func callOptional[T any](ctx context.Context, c *Client, cmd protocol.Command) (*T, error) {
	reply, err := c.Call(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeOptional[T](reply)
}

// Verify asks the daemon for its BuildIdentity.
func (c *Client) Verify(ctx context.Context) (protocol.BuildIdentity, error) {
	return call[protocol.BuildIdentity](ctx, c, protocol.VerifyRequest{})
}

// Shutdown asks the daemon to stop. A false result means it declined.
func (c *Client) Shutdown(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.ShutdownRequest{})
}

func (c *Client) FetchArtists(ctx context.Context) ([]protocol.Item, error) {
	return call[[]protocol.Item](ctx, c, protocol.FetchArtistsRequest{})
}

func (c *Client) FetchAlbums(ctx context.Context) ([]protocol.Item, error) {
	return call[[]protocol.Item](ctx, c, protocol.FetchAlbumsRequest{})
}

func (c *Client) FetchPlaylists(ctx context.Context) ([]protocol.Item, error) {
	return call[[]protocol.Item](ctx, c, protocol.FetchPlaylistsRequest{})
}

func (c *Client) FetchSongs(ctx context.Context) ([]protocol.Item, error) {
	return call[[]protocol.Item](ctx, c, protocol.FetchSongsRequest{})
}

// Scan asks the daemon to rescan its music directory.
func (c *Client) Scan(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.ScanRequest{})
}

// Status fetches the current playback snapshot.
func (c *Client) Status(ctx context.Context) (protocol.Status, error) {
	return call[protocol.Status](ctx, c, protocol.StatusRequest{})
}

func (c *Client) Restart(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.RestartRequest{})
}

func (c *Client) Play(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.PlayRequest{})
}

func (c *Client) Stop(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.StopRequest{})
}

func (c *Client) Pause(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.PauseRequest{})
}

func (c *Client) Skip(ctx context.Context) (bool, error) {
	return call[bool](ctx, c, protocol.SkipRequest{})
}

// QueueAdd inserts id into the play queue at position.
func (c *Client) QueueAdd(ctx context.Context, id protocol.Item, position uint8) (bool, error) {
	return call[bool](ctx, c, protocol.QueueAddRequest{ID: id, Position: position})
}

func (c *Client) QueueRemove(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.QueueRemoveRequest{ID: id})
}

// VolumeAdjust sends amount as a raw byte; the daemon reads it as a signed
// delta, so uint8(int8(-5)) lowers the volume by five.
func (c *Client) VolumeAdjust(ctx context.Context, amount uint8) (bool, error) {
	return call[bool](ctx, c, protocol.VolumeAdjustRequest{Amount: amount})
}

func (c *Client) VolumeSet(ctx context.Context, amount uint8) (bool, error) {
	return call[bool](ctx, c, protocol.VolumeSetRequest{Amount: amount})
}

// Search returns library items matching query in relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]protocol.Item, error) {
	return call[[]protocol.Item](ctx, c, protocol.SearchRequest{Query: query})
}

func (c *Client) Download(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.DownloadRequest{ID: id})
}

func (c *Client) Delete(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.DeleteRequest{ID: id})
}

func (c *Client) Star(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.StarRequest{ID: id})
}

func (c *Client) PlaylistDownload(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistDownloadRequest{ID: id})
}

func (c *Client) PlaylistUpload(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistUploadRequest{ID: id})
}

func (c *Client) PlaylistNew(ctx context.Context, name string) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistNewRequest{Name: name})
}

func (c *Client) PlaylistAddTo(ctx context.Context, playlist, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistAddToRequest{Playlist: playlist, ID: id})
}

func (c *Client) PlaylistRemoveFrom(ctx context.Context, playlist, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistRemoveFromRequest{Playlist: playlist, ID: id})
}

func (c *Client) PlaylistDelete(ctx context.Context, id protocol.Item) (bool, error) {
	return call[bool](ctx, c, protocol.PlaylistDeleteRequest{ID: id})
}

// SongInfo returns nil when the daemon does not know the song.
func (c *Client) SongInfo(ctx context.Context, id protocol.Item) (*protocol.SongInfo, error) {
	return callOptional[protocol.SongInfo](ctx, c, protocol.SongInfoRequest{ID: id})
}

// AlbumInfo returns nil when the daemon does not know the album.
func (c *Client) AlbumInfo(ctx context.Context, id protocol.Item) (*protocol.AlbumInfo, error) {
	return callOptional[protocol.AlbumInfo](ctx, c, protocol.AlbumInfoRequest{ID: id})
}
