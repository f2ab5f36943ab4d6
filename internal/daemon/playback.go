package daemon

import (
	"context"
	"time"

	"slib/internal/logging"
	"slib/internal/player"
	"slib/internal/protocol"
)

const followRetryDelay = 2 * time.Second

// FollowPlayback moves the queue on as songs finish, for outputs that report
// it. Lost output connections are retried until ctx is done.
func (d *Daemon) FollowPlayback(ctx context.Context) {
	onAdvanceError := func(err error) {
		logging.WarnWithContext(d.logger, "could not start next song", "playback_advance_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "playback stopped at the end of the previous song"),
			logging.String(logging.FieldErrorHint, "check the audio output, then run slib player play"),
		)
	}
	for {
		err := d.player.Follow(ctx, onAdvanceError)
		if err == nil || ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(d.logger, "lost track of playback", "playback_follow_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the queue does not advance until the output is back"),
			logging.String(logging.FieldErrorHint, "check that the audio output is running"),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(followRetryDelay):
		}
	}
}

// Status reports the player snapshot.
func (d *Daemon) Status(context.Context) protocol.Status {
	state := d.player.Snapshot()
	status := protocol.Status{
		Playing: state.Playing,
		Queue:   make([]protocol.Item, len(state.Queue)),
	}
	if state.Current != nil {
		current := itemFromTrack(*state.Current)
		status.CurrentSong = &current
	}
	for i, track := range state.Queue {
		status.Queue[i] = itemFromTrack(track)
	}
	return status
}

func (d *Daemon) Play(ctx context.Context) bool {
	if err := d.player.Play(ctx); err != nil {
		return d.fail("play", err)
	}
	return true
}

func (d *Daemon) Pause(ctx context.Context) bool {
	if err := d.player.Pause(ctx); err != nil {
		return d.fail("pause", err)
	}
	return true
}

// Stop halts playback and empties the queue.
func (d *Daemon) Stop(ctx context.Context) bool {
	if err := d.player.Stop(ctx); err != nil {
		return d.fail("stop", err)
	}
	return true
}

func (d *Daemon) Skip(ctx context.Context) bool {
	if err := d.player.Skip(ctx); err != nil {
		return d.fail("skip", err)
	}
	return true
}

// Restart plays the current song from the beginning.
func (d *Daemon) Restart(ctx context.Context) bool {
	if err := d.player.Restart(ctx); err != nil {
		return d.fail("restart", err)
	}
	return true
}

// QueueAdd inserts the songs id stands for at queue index position. Albums,
// artists and playlists expand to their songs.
func (d *Daemon) QueueAdd(ctx context.Context, id protocol.Item, position uint8) bool {
	songs, err := d.library.Tracks(ctx, id.ID)
	if err != nil {
		return d.fail("queue_add", err, logging.ItemID(id.ID))
	}
	if len(songs) == 0 {
		d.logger.Info("queue_add: nothing to queue", logging.ItemID(id.ID))
		return false
	}
	tracks := make([]player.Track, len(songs))
	for i, song := range songs {
		tracks[i] = trackFromSong(song)
	}
	if err := d.player.Enqueue(tracks, int(position)); err != nil {
		return d.fail("queue_add", err, logging.ItemID(id.ID))
	}
	return true
}

func (d *Daemon) QueueRemove(_ context.Context, id protocol.Item) bool {
	if err := d.player.Remove(id.ID); err != nil {
		return d.fail("queue_remove", err, logging.ItemID(id.ID))
	}
	return true
}

// VolumeAdjust reads amount as a two's-complement delta: 5 raises the volume
// by five, 251 lowers it by five.
func (d *Daemon) VolumeAdjust(ctx context.Context, amount uint8) bool {
	delta := int(int8(amount))
	if err := d.player.AdjustVolume(ctx, delta); err != nil {
		return d.fail("volume_adjust", err, logging.Int("delta", delta))
	}
	return true
}

// VolumeSet sets an absolute volume; values above 100 are rejected.
func (d *Daemon) VolumeSet(ctx context.Context, amount uint8) bool {
	if err := d.player.SetVolume(ctx, int(amount)); err != nil {
		return d.fail("volume_set", err, logging.Int("volume", int(amount)))
	}
	return true
}
