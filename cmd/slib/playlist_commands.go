package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slib/internal/ipc"
	"slib/internal/protocol"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Create and edit playlists",
	}

	playlistCmd.AddCommand(&cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("playlist name is required")
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				ok, err := client.PlaylistNew(c, name)
				if err != nil {
					return err
				}
				return reportAck(ctx, cmd, ok, fmt.Sprintf("Created playlist %q", name), fmt.Sprintf("could not create playlist %q", name))
			})
		},
	})

	pairs := []struct {
		use, short, success, failure string
		call                         func(*ipc.Client, context.Context, protocol.Item, protocol.Item) (bool, error)
	}{
		{"add <playlist> <id>", "Append a song, album or artist to a playlist", "Added to playlist", "could not add to playlist", (*ipc.Client).PlaylistAddTo},
		{"remove <playlist> <id>", "Remove a song from a playlist", "Removed from playlist", "could not remove from playlist", (*ipc.Client).PlaylistRemoveFrom},
	}
	for _, entry := range pairs {
		playlistCmd.AddCommand(&cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				playlist, err := itemArg(args[0])
				if err != nil {
					return err
				}
				item, err := itemArg(args[1])
				if err != nil {
					return err
				}
				return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
					ok, err := entry.call(client, c, playlist, item)
					if err != nil {
						return err
					}
					return reportAck(ctx, cmd, ok, entry.success, entry.failure)
				})
			},
		})
	}

	singles := []struct {
		use, short, success, failure string
		call                         func(*ipc.Client, context.Context, protocol.Item) (bool, error)
	}{
		{"delete <playlist>", "Delete a playlist", "Deleted playlist", "could not delete playlist", (*ipc.Client).PlaylistDelete},
		{"download <playlist>", "Copy every playlist song into the offline cache", "Downloaded playlist", "could not download playlist", (*ipc.Client).PlaylistDownload},
		{"upload <playlist>", "Write the playlist as an M3U8 file", "Uploaded playlist", "could not upload playlist", (*ipc.Client).PlaylistUpload},
	}
	for _, entry := range singles {
		playlistCmd.AddCommand(&cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				playlist, err := itemArg(args[0])
				if err != nil {
					return err
				}
				return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
					ok, err := entry.call(client, c, playlist)
					if err != nil {
						return err
					}
					return reportAck(ctx, cmd, ok, entry.success+" "+playlist.ID, entry.failure+" "+playlist.ID)
				})
			},
		})
	}

	return playlistCmd
}
