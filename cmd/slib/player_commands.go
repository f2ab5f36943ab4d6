package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"slib/internal/ipc"
	"slib/internal/protocol"
)

func newPlayerCommand(ctx *commandContext) *cobra.Command {
	playerCmd := &cobra.Command{
		Use:   "player",
		Short: "Control playback",
	}

	simple := []struct {
		use, short, success, failure string
		call                         func(*ipc.Client, context.Context) (bool, error)
	}{
		{"play", "Start or resume playback", "Playing", "daemon could not start playback", (*ipc.Client).Play},
		{"pause", "Pause playback", "Paused", "daemon could not pause playback", (*ipc.Client).Pause},
		{"stop", "Stop playback and clear the queue", "Stopped", "daemon could not stop playback", (*ipc.Client).Stop},
		{"skip", "Skip to the next queued song", "Skipped", "daemon could not skip", (*ipc.Client).Skip},
		{"restart", "Restart the current song", "Restarted current song", "daemon could not restart the current song", (*ipc.Client).Restart},
	}
	for _, entry := range simple {
		playerCmd.AddCommand(&cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
					ok, err := entry.call(client, c)
					if err != nil {
						return err
					}
					return reportAck(ctx, cmd, ok, entry.success, entry.failure)
				})
			},
		})
	}

	playerCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current song and queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				status, err := client.Status(c)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderPlayback(status))
				return nil
			})
		},
	})

	playerCmd.AddCommand(newVolumeCommand(ctx))
	return playerCmd
}

func newVolumeCommand(ctx *commandContext) *cobra.Command {
	var set int
	var adjust int
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Set or adjust the output volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setChanged := cmd.Flags().Changed("set")
			adjustChanged := cmd.Flags().Changed("adjust")
			if setChanged == adjustChanged {
				return errors.New("exactly one of --set or --adjust is required")
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				if setChanged {
					level, err := volumeLevel(set)
					if err != nil {
						return err
					}
					ok, err := client.VolumeSet(c, level)
					if err != nil {
						return err
					}
					return reportAck(ctx, cmd, ok, fmt.Sprintf("Volume set to %d", level), "daemon rejected the volume")
				}
				delta, err := volumeDelta(adjust)
				if err != nil {
					return err
				}
				ok, err := client.VolumeAdjust(c, delta)
				if err != nil {
					return err
				}
				return reportAck(ctx, cmd, ok, fmt.Sprintf("Volume adjusted by %+d", adjust), "daemon rejected the volume change")
			})
		},
	}
	cmd.Flags().IntVar(&set, "set", 0, "Absolute volume, 0 to 100")
	cmd.Flags().IntVar(&adjust, "adjust", 0, "Relative change, -128 to 127")
	return cmd
}

func volumeLevel(v int) (uint8, error) {
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("volume %d out of range 0-100", v)
	}
	return uint8(v), nil
}

// volumeDelta encodes a signed change as the two's-complement byte the
// daemon expects.
func volumeDelta(v int) (uint8, error) {
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, fmt.Errorf("volume change %d out of range %d to %d", v, math.MinInt8, math.MaxInt8)
	}
	return uint8(int8(v)), nil
}

func renderPlayback(status protocol.Status) string {
	var b strings.Builder
	state := "Stopped"
	switch {
	case status.Playing:
		state = "Playing"
	case status.CurrentSong != nil:
		state = "Paused"
	}
	fmt.Fprintf(&b, "State:   %s\n", state)
	if status.CurrentSong != nil {
		fmt.Fprintf(&b, "Current: %s (%s)\n", status.CurrentSong.Name, status.CurrentSong.ID)
	}
	if len(status.Queue) == 0 {
		b.WriteString("Queue is empty\n")
		return b.String()
	}
	b.WriteString(renderItems(status.Queue))
	return b.String()
}
