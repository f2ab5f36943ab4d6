package player

import (
	"context"
	"fmt"

	"slib/internal/config"
)

// Output renders playback decisions.
type Output interface {
	Name() string
	// Start plays path from the beginning, replacing whatever was playing.
	Start(ctx context.Context, path string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
	Close() error
}

// EndWatcher is implemented by outputs that notice when a song started with
// Start plays to its end. Watch calls ended once per finished song, never for
// songs interrupted by Start or Stop, and returns when ctx is done or the
// output can no longer report.
type EndWatcher interface {
	Watch(ctx context.Context, ended func()) error
}

// NullOutput accepts every command and produces no sound. The daemon runs
// with it when no audio backend is configured.
type NullOutput struct{}

func (NullOutput) Name() string { return config.OutputNull }
func (NullOutput) Start(context.Context, string) error { return nil }
func (NullOutput) Pause(context.Context) error { return nil }
func (NullOutput) Resume(context.Context) error { return nil }
func (NullOutput) Stop(context.Context) error { return nil }
func (NullOutput) SetVolume(context.Context, int) error { return nil }
func (NullOutput) Close() error { return nil }

// NewOutput builds the output selected by cfg.Player.Output.
func NewOutput(cfg *config.Config) (Output, error) {
	switch cfg.Player.Output {
	case config.OutputNull, "":
		return NullOutput{}, nil
	case config.OutputMPD:
		return NewMPDOutput(cfg.Player, 0), nil
	default:
		return nil, fmt.Errorf("unsupported player output %q", cfg.Player.Output)
	}
}
