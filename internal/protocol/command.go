package protocol

// Kind names a Command variant. It is also the variant's wire tag.
type Kind string

const (
	KindVerify             Kind = "Verify"
	KindShutdown           Kind = "Shutdown"
	KindFetchArtists       Kind = "FetchArtists"
	KindFetchAlbums        Kind = "FetchAlbums"
	KindFetchPlaylists     Kind = "FetchPlaylists"
	KindFetchSongs         Kind = "FetchSongs"
	KindScan               Kind = "Scan"
	KindStatus             Kind = "Status"
	KindRestart            Kind = "Restart"
	KindPlay               Kind = "Play"
	KindStop               Kind = "Stop"
	KindPause              Kind = "Pause"
	KindSkip               Kind = "Skip"
	KindQueueAdd           Kind = "QueueAdd"
	KindQueueRemove        Kind = "QueueRemove"
	KindVolumeAdjust       Kind = "VolumeAdjust"
	KindVolumeSet          Kind = "VolumeSet"
	KindSearch             Kind = "Search"
	KindDownload           Kind = "Download"
	KindDelete             Kind = "Delete"
	KindStar               Kind = "Star"
	KindPlaylistDownload   Kind = "PlaylistDownload"
	KindPlaylistUpload     Kind = "PlaylistUpload"
	KindPlaylistNew        Kind = "PlaylistNew"
	KindPlaylistAddTo      Kind = "PlaylistAddTo"
	KindPlaylistRemoveFrom Kind = "PlaylistRemoveFrom"
	KindPlaylistDelete     Kind = "PlaylistDelete"
	KindSongInfo           Kind = "SongInfo"
	KindAlbumInfo          Kind = "AlbumInfo"
)

var kinds = []Kind{
	KindVerify, KindShutdown,
	KindFetchArtists, KindFetchAlbums, KindFetchPlaylists, KindFetchSongs,
	KindScan, KindStatus,
	KindRestart, KindPlay, KindStop, KindPause, KindSkip,
	KindQueueAdd, KindQueueRemove,
	KindVolumeAdjust, KindVolumeSet,
	KindSearch, KindDownload, KindDelete, KindStar,
	KindPlaylistDownload, KindPlaylistUpload, KindPlaylistNew,
	KindPlaylistAddTo, KindPlaylistRemoveFrom, KindPlaylistDelete,
	KindSongInfo, KindAlbumInfo,
}

// Kinds returns every Command variant in catalogue order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Command is a request for one daemon operation. The set of implementations
// is closed: only the request types declared in this package satisfy it.
type Command interface {
	Kind() Kind
	// payload returns the value encoded under the variant tag, or nil for
	// unit variants.
	payload() any
}

// VerifyRequest asks the daemon for its BuildIdentity.
type VerifyRequest struct{}

// ShutdownRequest asks the daemon to stop serving.
type ShutdownRequest struct{}

// FetchArtistsRequest lists all artists.
type FetchArtistsRequest struct{}

// FetchAlbumsRequest lists all albums.
type FetchAlbumsRequest struct{}

// FetchPlaylistsRequest lists all playlists.
type FetchPlaylistsRequest struct{}

// FetchSongsRequest lists all songs.
type FetchSongsRequest struct{}

// ScanRequest asks the daemon to rescan its library.
type ScanRequest struct{}

// StatusRequest fetches a playback snapshot.
type StatusRequest struct{}

// RestartRequest restarts the current song from the beginning.
type RestartRequest struct{}

// PlayRequest starts or resumes playback.
type PlayRequest struct{}

// StopRequest stops playback and clears the queue.
type StopRequest struct{}

// PauseRequest pauses playback.
type PauseRequest struct{}

// SkipRequest skips the current song.
type SkipRequest struct{}

// QueueAddRequest inserts a song into the queue at Position.
type QueueAddRequest struct {
	ID       Item  `json:"id"`
	Position uint8 `json:"position"`
}

// QueueRemoveRequest removes a song from the queue.
type QueueRemoveRequest struct {
	ID Item
}

// VolumeAdjustRequest changes the volume by Amount percent.
type VolumeAdjustRequest struct {
	Amount uint8
}

// VolumeSetRequest sets the volume to Amount percent (0-100).
type VolumeSetRequest struct {
	Amount uint8
}

// SearchRequest searches the library.
type SearchRequest struct {
	Query string
}

// DownloadRequest keeps a song available for offline playback.
type DownloadRequest struct {
	ID Item
}

// DeleteRequest removes a song from offline storage.
type DeleteRequest struct {
	ID Item
}

// StarRequest marks a song as a favourite.
type StarRequest struct {
	ID Item
}

// PlaylistDownloadRequest downloads every song of a playlist.
type PlaylistDownloadRequest struct {
	ID Item
}

// PlaylistUploadRequest publishes local changes to a playlist.
type PlaylistUploadRequest struct {
	ID Item
}

// PlaylistNewRequest creates a local playlist.
type PlaylistNewRequest struct {
	Name string `json:"name"`
}

// PlaylistAddToRequest appends a song to a local playlist.
type PlaylistAddToRequest struct {
	Playlist Item `json:"playlist"`
	ID       Item `json:"id"`
}

// PlaylistRemoveFromRequest removes a song from a local playlist.
type PlaylistRemoveFromRequest struct {
	Playlist Item `json:"playlist"`
	ID       Item `json:"id"`
}

// PlaylistDeleteRequest deletes a local playlist.
type PlaylistDeleteRequest struct {
	ID Item
}

// SongInfoRequest fetches details for a song.
type SongInfoRequest struct {
	ID Item
}

// AlbumInfoRequest fetches the track list of an album.
type AlbumInfoRequest struct {
	ID Item
}

func (VerifyRequest) Kind() Kind             { return KindVerify }
func (ShutdownRequest) Kind() Kind           { return KindShutdown }
func (FetchArtistsRequest) Kind() Kind       { return KindFetchArtists }
func (FetchAlbumsRequest) Kind() Kind        { return KindFetchAlbums }
func (FetchPlaylistsRequest) Kind() Kind     { return KindFetchPlaylists }
func (FetchSongsRequest) Kind() Kind         { return KindFetchSongs }
func (ScanRequest) Kind() Kind               { return KindScan }
func (StatusRequest) Kind() Kind             { return KindStatus }
func (RestartRequest) Kind() Kind            { return KindRestart }
func (PlayRequest) Kind() Kind               { return KindPlay }
func (StopRequest) Kind() Kind               { return KindStop }
func (PauseRequest) Kind() Kind              { return KindPause }
func (SkipRequest) Kind() Kind               { return KindSkip }
func (QueueAddRequest) Kind() Kind           { return KindQueueAdd }
func (QueueRemoveRequest) Kind() Kind        { return KindQueueRemove }
func (VolumeAdjustRequest) Kind() Kind       { return KindVolumeAdjust }
func (VolumeSetRequest) Kind() Kind          { return KindVolumeSet }
func (SearchRequest) Kind() Kind             { return KindSearch }
func (DownloadRequest) Kind() Kind           { return KindDownload }
func (DeleteRequest) Kind() Kind             { return KindDelete }
func (StarRequest) Kind() Kind               { return KindStar }
func (PlaylistDownloadRequest) Kind() Kind   { return KindPlaylistDownload }
func (PlaylistUploadRequest) Kind() Kind     { return KindPlaylistUpload }
func (PlaylistNewRequest) Kind() Kind        { return KindPlaylistNew }
func (PlaylistAddToRequest) Kind() Kind      { return KindPlaylistAddTo }
func (PlaylistRemoveFromRequest) Kind() Kind { return KindPlaylistRemoveFrom }
func (PlaylistDeleteRequest) Kind() Kind     { return KindPlaylistDelete }
func (SongInfoRequest) Kind() Kind           { return KindSongInfo }
func (AlbumInfoRequest) Kind() Kind          { return KindAlbumInfo }

func (VerifyRequest) payload() any               { return nil }
func (ShutdownRequest) payload() any             { return nil }
func (FetchArtistsRequest) payload() any         { return nil }
func (FetchAlbumsRequest) payload() any          { return nil }
func (FetchPlaylistsRequest) payload() any       { return nil }
func (FetchSongsRequest) payload() any           { return nil }
func (ScanRequest) payload() any                 { return nil }
func (StatusRequest) payload() any               { return nil }
func (RestartRequest) payload() any              { return nil }
func (PlayRequest) payload() any                 { return nil }
func (StopRequest) payload() any                 { return nil }
func (PauseRequest) payload() any                { return nil }
func (SkipRequest) payload() any                 { return nil }
func (r QueueAddRequest) payload() any           { return r }
func (r QueueRemoveRequest) payload() any        { return r.ID }
func (r VolumeAdjustRequest) payload() any       { return r.Amount }
func (r VolumeSetRequest) payload() any          { return r.Amount }
func (r SearchRequest) payload() any             { return r.Query }
func (r DownloadRequest) payload() any           { return r.ID }
func (r DeleteRequest) payload() any             { return r.ID }
func (r StarRequest) payload() any               { return r.ID }
func (r PlaylistDownloadRequest) payload() any   { return r.ID }
func (r PlaylistUploadRequest) payload() any     { return r.ID }
func (r PlaylistNewRequest) payload() any        { return r }
func (r PlaylistAddToRequest) payload() any      { return r }
func (r PlaylistRemoveFromRequest) payload() any { return r }
func (r PlaylistDeleteRequest) payload() any     { return r.ID }
func (r SongInfoRequest) payload() any           { return r.ID }
func (r AlbumInfoRequest) payload() any          { return r.ID }
