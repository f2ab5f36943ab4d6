package protocol

import "encoding/json"

// Item identifies a library entity (artist, album, song or playlist).
type Item struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImagePath string `json:"image_path"` // empty when the entity has no artwork
}

// HasArtwork reports whether the item carries an artwork path.
func (i Item) HasArtwork() bool {
	return i.ImagePath != ""
}

func (i *Item) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Item", []string{"id", "name", "image_path"}); err != nil {
		return err
	}
	type plain Item
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return newDecodeError("Item", "field type mismatch", err)
	}
	*i = Item(out)
	return nil
}

// Status is a playback snapshot produced by the daemon on every request.
type Status struct {
	Playing     bool   `json:"playing"`
	CurrentSong *Item  `json:"current_song"`
	Queue       []Item `json:"queue"` // play order
}

func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	out := plain(s)
	if out.Queue == nil {
		out.Queue = []Item{}
	}
	return json.Marshal(out)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Status", []string{"playing", "current_song", "queue"}, "current_song"); err != nil {
		return err
	}
	type plain Status
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return newDecodeError("Status", "field type mismatch", err)
	}
	*s = Status(out)
	return nil
}

// SongInfo describes a single song.
type SongInfo struct {
	Duration float32 `json:"duration"` // seconds
	Album    Item    `json:"album"`
	Artist   string  `json:"artist"`
}

func (s *SongInfo) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "SongInfo", []string{"duration", "album", "artist"}); err != nil {
		return err
	}
	type plain SongInfo
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return newDecodeError("SongInfo", "field type mismatch", err)
	}
	*s = SongInfo(out)
	return nil
}

// AlbumInfo lists the tracks of an album in track order.
type AlbumInfo struct {
	Songs  []Item `json:"songs"`
	Artist string `json:"artist"`
}

func (a AlbumInfo) MarshalJSON() ([]byte, error) {
	type plain AlbumInfo
	out := plain(a)
	if out.Songs == nil {
		out.Songs = []Item{}
	}
	return json.Marshal(out)
}

func (a *AlbumInfo) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "AlbumInfo", []string{"songs", "artist"}); err != nil {
		return err
	}
	type plain AlbumInfo
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return newDecodeError("AlbumInfo", "field type mismatch", err)
	}
	*a = AlbumInfo(out)
	return nil
}
