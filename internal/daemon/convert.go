package daemon

import (
	"slib/internal/library"
	"slib/internal/player"
	"slib/internal/protocol"
)

func itemFromEntry(entry library.Entry) protocol.Item {
	return protocol.Item{ID: entry.ID, Name: entry.Name, ImagePath: entry.ImagePath}
}

func itemsFromEntries(entries []library.Entry) []protocol.Item {
	items := make([]protocol.Item, len(entries))
	for i, entry := range entries {
		items[i] = itemFromEntry(entry)
	}
	return items
}

func itemsFromSongs(songs []library.Song) []protocol.Item {
	items := make([]protocol.Item, len(songs))
	for i, song := range songs {
		items[i] = itemFromEntry(song.Entry())
	}
	return items
}

func itemFromTrack(track player.Track) protocol.Item {
	return protocol.Item{ID: track.ID, Name: track.Name, ImagePath: track.ImagePath}
}

func trackFromSong(song library.Song) player.Track {
	return player.Track{ID: song.ID, Name: song.Name, ImagePath: song.AlbumImage, Path: song.Path}
}
