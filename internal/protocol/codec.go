package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type commandDecoder func(raw json.RawMessage) (Command, error)

var commandDecoders = map[Kind]commandDecoder{
	KindVerify:             unitVariant(VerifyRequest{}),
	KindShutdown:           unitVariant(ShutdownRequest{}),
	KindFetchArtists:       unitVariant(FetchArtistsRequest{}),
	KindFetchAlbums:        unitVariant(FetchAlbumsRequest{}),
	KindFetchPlaylists:     unitVariant(FetchPlaylistsRequest{}),
	KindFetchSongs:         unitVariant(FetchSongsRequest{}),
	KindScan:               unitVariant(ScanRequest{}),
	KindStatus:             unitVariant(StatusRequest{}),
	KindRestart:            unitVariant(RestartRequest{}),
	KindPlay:               unitVariant(PlayRequest{}),
	KindStop:               unitVariant(StopRequest{}),
	KindPause:              unitVariant(PauseRequest{}),
	KindSkip:               unitVariant(SkipRequest{}),
	KindQueueAdd:           fieldsVariant[QueueAddRequest](KindQueueAdd, "id", "position"),
	KindQueueRemove:        singleVariant(KindQueueRemove, func(v Item) Command { return QueueRemoveRequest{ID: v} }),
	KindVolumeAdjust:       singleVariant(KindVolumeAdjust, func(v uint8) Command { return VolumeAdjustRequest{Amount: v} }),
	KindVolumeSet:          singleVariant(KindVolumeSet, func(v uint8) Command { return VolumeSetRequest{Amount: v} }),
	KindSearch:             singleVariant(KindSearch, func(v string) Command { return SearchRequest{Query: v} }),
	KindDownload:           singleVariant(KindDownload, func(v Item) Command { return DownloadRequest{ID: v} }),
	KindDelete:             singleVariant(KindDelete, func(v Item) Command { return DeleteRequest{ID: v} }),
	KindStar:               singleVariant(KindStar, func(v Item) Command { return StarRequest{ID: v} }),
	KindPlaylistDownload:   singleVariant(KindPlaylistDownload, func(v Item) Command { return PlaylistDownloadRequest{ID: v} }),
	KindPlaylistUpload:     singleVariant(KindPlaylistUpload, func(v Item) Command { return PlaylistUploadRequest{ID: v} }),
	KindPlaylistNew:        fieldsVariant[PlaylistNewRequest](KindPlaylistNew, "name"),
	KindPlaylistAddTo:      fieldsVariant[PlaylistAddToRequest](KindPlaylistAddTo, "playlist", "id"),
	KindPlaylistRemoveFrom: fieldsVariant[PlaylistRemoveFromRequest](KindPlaylistRemoveFrom, "playlist", "id"),
	KindPlaylistDelete:     singleVariant(KindPlaylistDelete, func(v Item) Command { return PlaylistDeleteRequest{ID: v} }),
	KindSongInfo:           singleVariant(KindSongInfo, func(v Item) Command { return SongInfoRequest{ID: v} }),
	KindAlbumInfo:          singleVariant(KindAlbumInfo, func(v Item) Command { return AlbumInfoRequest{ID: v} }),
}

func unitVariant(cmd Command) commandDecoder {
	return func(raw json.RawMessage) (Command, error) {
		if raw != nil {
			return nil, newDecodeError("Command", fmt.Sprintf("unit variant %s takes no payload", cmd.Kind()), nil)
		}
		return cmd, nil
	}
}

func singleVariant[T any](kind Kind, wrap func(T) Command) commandDecoder {
	return func(raw json.RawMessage) (Command, error) {
		if raw == nil {
			return nil, newDecodeError(string(kind), "missing payload", nil)
		}
		if isNull(raw) {
			return nil, newDecodeError(string(kind), "payload must not be null", nil)
		}
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, newDecodeError(string(kind), "invalid payload", err)
		}
		return wrap(value), nil
	}
}

func fieldsVariant[C Command](kind Kind, names ...string) commandDecoder {
	return func(raw json.RawMessage) (Command, error) {
		if raw == nil {
			return nil, newDecodeError(string(kind), "missing payload", nil)
		}
		if err := requireFields(raw, string(kind), names); err != nil {
			return nil, err
		}
		var cmd C
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return nil, newDecodeError(string(kind), "invalid payload", err)
		}
		return cmd, nil
	}
}

// EncodeCommand renders cmd as a record payload (without the terminator).
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, errors.New("encode command: nil command")
	}
	kind := cmd.Kind()
	if _, ok := commandDecoders[kind]; !ok {
		return nil, fmt.Errorf("encode command: unknown kind %q", kind)
	}
	var (
		data []byte
		err  error
	)
	if p := cmd.payload(); p == nil {
		data, err = json.Marshal(string(kind))
	} else {
		data, err = json.Marshal(map[string]any{string(kind): p})
	}
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", kind, err)
	}
	return data, nil
}

// DecodeCommand parses a record payload into a Command.
func DecodeCommand(record []byte) (Command, error) {
	trimmed := bytes.TrimSpace(record)
	if len(trimmed) == 0 {
		return nil, newDecodeError("Command", "empty record", nil)
	}

	switch trimmed[0] {
	case '"':
		var tag string
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return nil, newDecodeError("Command", "invalid variant tag", err)
		}
		decode, ok := commandDecoders[Kind(tag)]
		if !ok {
			return nil, newDecodeError("Command", fmt.Sprintf("unknown variant %q", tag), nil)
		}
		return decode(nil)
	case '{':
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &tagged); err != nil {
			return nil, newDecodeError("Command", "invalid object", err)
		}
		if len(tagged) != 1 {
			return nil, newDecodeError("Command", fmt.Sprintf("expected exactly one variant tag, got %d", len(tagged)), nil)
		}
		for tag, raw := range tagged {
			decode, ok := commandDecoders[Kind(tag)]
			if !ok {
				return nil, newDecodeError("Command", fmt.Sprintf("unknown variant %q", tag), nil)
			}
			return decode(raw)
		}
	}
	return nil, newDecodeError("Command", "expected variant string or object", nil)
}

// EncodeResult renders a reply value as a record payload. Nil item slices are
// encoded as empty arrays.
func EncodeResult(value any) ([]byte, error) {
	if items, ok := value.([]Item); ok && items == nil {
		value = []Item{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

// Decode parses a reply payload into T. A null payload is rejected; use
// DecodeOptional for replies that may be absent.
func Decode[T any](record []byte) (T, error) {
	var out T
	shape := fmt.Sprintf("%T", out)
	trimmed := bytes.TrimSpace(record)
	if len(trimmed) == 0 {
		return out, newDecodeError(shape, "empty record", nil)
	}
	if isNull(trimmed) {
		return out, newDecodeError(shape, "unexpected null", nil)
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		var zero T
		return zero, newDecodeError(shape, "invalid value", err)
	}
	return out, nil
}

// DecodeOptional parses a reply payload that may be null. A null payload
// yields a nil pointer and no error.
func DecodeOptional[T any](record []byte) (*T, error) {
	if isNull(record) {
		return nil, nil
	}
	value, err := Decode[T](record)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// IsTrue reports whether record is the literal boolean true.
func IsTrue(record []byte) bool {
	return bytes.Equal(bytes.TrimSpace(record), []byte("true"))
}
