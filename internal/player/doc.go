// Package player owns playback state: the play queue, the current song, the
// paused/playing flag and the volume. Every transition is mirrored to an
// Output, which is either a no-op sink or a Music Player Daemon instance.
package player
