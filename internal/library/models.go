package library

import "errors"

// ErrNotFound is returned when an id does not name an entity of the
// requested kind.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when a playlist name is already taken.
var ErrDuplicateName = errors.New("duplicate playlist name")

// Kind names the table an id belongs to.
type Kind string

const (
	KindArtist   Kind = "artist"
	KindAlbum    Kind = "album"
	KindSong     Kind = "song"
	KindPlaylist Kind = "playlist"
)

// Entry is the listing form of any catalogue entity.
type Entry struct {
	ID        string
	Name      string
	ImagePath string
}

// Song is a single audio file.
type Song struct {
	ID          string
	Name        string
	Path        string
	Track       int
	Duration    float64
	Starred     bool
	OfflinePath string
	AlbumID     string
	AlbumName   string
	AlbumImage  string
	ArtistID    string
	ArtistName  string
}

// Entry returns the listing form of the song. Songs show their album artwork.
func (s Song) Entry() Entry {
	return Entry{ID: s.ID, Name: s.Name, ImagePath: s.AlbumImage}
}

// Album is a directory of songs under an artist.
type Album struct {
	ID         string
	Name       string
	ImagePath  string
	ArtistID   string
	ArtistName string
}

// Entry returns the listing form of the album.
func (a Album) Entry() Entry {
	return Entry{ID: a.ID, Name: a.Name, ImagePath: a.ImagePath}
}

// Playlist is a user-curated ordered list of songs.
type Playlist struct {
	ID        string
	Name      string
	Dirty     bool
	SongCount int
}

// Entry returns the listing form of the playlist.
func (p Playlist) Entry() Entry {
	return Entry{ID: p.ID, Name: p.Name}
}
