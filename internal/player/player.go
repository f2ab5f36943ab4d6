package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrEmptyQueue is returned when playback needs a queued song and there
	// is none.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrNothingPlaying is returned by transitions that need a current song.
	ErrNothingPlaying = errors.New("nothing is playing")
	// ErrNotQueued is returned when removing a song that is not queued.
	ErrNotQueued = errors.New("song is not queued")
	// ErrVolumeRange is returned for volumes outside 0-100.
	ErrVolumeRange = errors.New("volume must be between 0 and 100")
)

// MaxVolume is the loudest volume setting.
const MaxVolume = 100

// Track is a playable song.
type Track struct {
	ID        string
	Name      string
	ImagePath string
	Path      string
}

// State is a point-in-time copy of the player.
type State struct {
	Playing bool
	Current *Track
	Queue   []Track
	Volume  int
}

// Player is safe for concurrent use. Output failures leave the state
// unchanged.
type Player struct {
	mu      sync.Mutex
	out     Output
	queue   []Track
	current *Track
	playing bool
	volume  int
}

// New returns a stopped player with an empty queue.
func New(out Output, volume int) *Player {
	if out == nil {
		out = NullOutput{}
	}
	return &Player{out: out, volume: clampVolume(volume)}
}

// Output returns the output the player drives.
func (p *Player) Output() Output {
	return p.out
}

// Play resumes a paused song, or starts the next queued song when nothing
// is current. Playing while already playing is a no-op.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		if p.playing {
			return nil
		}
		if err := p.out.Resume(ctx); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		p.playing = true
		return nil
	}
	if len(p.queue) == 0 {
		return ErrEmptyQueue
	}
	return p.startNextLocked(ctx)
}

// Pause holds the current song. Pausing while paused is a no-op.
func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNothingPlaying
	}
	if !p.playing {
		return nil
	}
	if err := p.out.Pause(ctx); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	p.playing = false
	return nil
}

// Stop ends playback and clears the queue.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		if err := p.out.Stop(ctx); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
	}
	p.current = nil
	p.playing = false
	p.queue = nil
	return nil
}

// Skip moves to the next queued song. Skipping the last song stops
// playback.
func (p *Player) Skip(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil && len(p.queue) == 0 {
		return ErrNothingPlaying
	}
	if len(p.queue) == 0 {
		if err := p.out.Stop(ctx); err != nil {
			return fmt.Errorf("skip: %w", err)
		}
		p.current = nil
		p.playing = false
		return nil
	}
	return p.startNextLocked(ctx)
}

// Restart plays the current song again from the beginning.
func (p *Player) Restart(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNothingPlaying
	}
	if err := p.out.Start(ctx, p.current.Path); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	p.playing = true
	return nil
}

// Advance moves past a current song that finished on its own. The next
// queued song starts, or playback ends when the queue is empty.
func (p *Player) Advance(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil
	}
	if len(p.queue) == 0 {
		p.current = nil
		p.playing = false
		return nil
	}
	if err := p.startNextLocked(ctx); err != nil {
		p.current = nil
		p.playing = false
		return err
	}
	return nil
}

// Follow advances the queue each time the output reports a finished song.
// It returns nil at once for outputs that are not an EndWatcher. Advance
// failures go to onError and do not stop following.
func (p *Player) Follow(ctx context.Context, onError func(error)) error {
	watcher, ok := p.out.(EndWatcher)
	if !ok {
		return nil
	}
	return watcher.Watch(ctx, func() {
		if err := p.Advance(ctx); err != nil && onError != nil {
			onError(err)
		}
	})
}

func (p *Player) startNextLocked(ctx context.Context) error {
	next := p.queue[0]
	if err := p.out.Start(ctx, next.Path); err != nil {
		return fmt.Errorf("start %s: %w", next.Name, err)
	}
	p.queue = append([]Track(nil), p.queue[1:]...)
	p.current = &next
	p.playing = true
	return nil
}

// Enqueue inserts tracks, in order, before queue index position. Positions
// past the end append.
func (p *Player) Enqueue(tracks []Track, position int) error {
	if len(tracks) == 0 {
		return errors.New("enqueue: no tracks")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if position > len(p.queue) {
		position = len(p.queue)
	}
	queue := make([]Track, 0, len(p.queue)+len(tracks))
	queue = append(queue, p.queue[:position]...)
	queue = append(queue, tracks...)
	queue = append(queue, p.queue[position:]...)
	p.queue = queue
	return nil
}

// Remove drops every queued occurrence of id. The current song is not
// affected.
func (p *Player) Remove(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.queue[:0]
	removed := 0
	for _, track := range p.queue {
		if track.ID == id {
			removed++
			continue
		}
		kept = append(kept, track)
	}
	p.queue = kept
	if removed == 0 {
		return ErrNotQueued
	}
	return nil
}

// AdjustVolume changes the volume by delta, saturating at 0 and MaxVolume.
func (p *Player) AdjustVolume(ctx context.Context, delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setVolumeLocked(ctx, clampVolume(p.volume+delta))
}

// SetVolume sets an absolute volume.
func (p *Player) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > MaxVolume {
		return fmt.Errorf("%w: %d", ErrVolumeRange, percent)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setVolumeLocked(ctx, percent)
}

func (p *Player) setVolumeLocked(ctx context.Context, percent int) error {
	if err := p.out.SetVolume(ctx, percent); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	p.volume = percent
	return nil
}

// Snapshot copies the current state.
func (p *Player) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := State{
		Playing: p.playing,
		Queue:   append([]Track(nil), p.queue...),
		Volume:  p.volume,
	}
	if p.current != nil {
		current := *p.current
		state.Current = &current
	}
	return state
}

// Close stops the output and releases it.
func (p *Player) Close(ctx context.Context) error {
	stopErr := p.Stop(ctx)
	return errors.Join(stopErr, p.out.Close())
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
