package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slib/internal/ipc"
	"slib/internal/protocol"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Browse and manage the music library",
	}

	listings := []struct {
		use, short, empty string
		fetch             func(*ipc.Client, context.Context) ([]protocol.Item, error)
	}{
		{"artists", "List artists", "No artists in the library", (*ipc.Client).FetchArtists},
		{"albums", "List albums", "No albums in the library", (*ipc.Client).FetchAlbums},
		{"songs", "List songs", "No songs in the library", (*ipc.Client).FetchSongs},
		{"playlists", "List playlists", "No playlists", (*ipc.Client).FetchPlaylists},
	}
	for _, entry := range listings {
		libraryCmd.AddCommand(&cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
					items, err := entry.fetch(client, c)
					if err != nil {
						return err
					}
					return reportItems(ctx, cmd, items, entry.empty)
				})
			},
		})
	}

	libraryCmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Rescan the music directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				ok, err := client.Scan(c)
				if err != nil {
					return err
				}
				return reportAck(ctx, cmd, ok, "Library scan complete", "library scan failed")
			})
		},
	})

	libraryCmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search artists, albums, songs and playlists",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				items, err := client.Search(c, query)
				if err != nil {
					return err
				}
				return reportItems(ctx, cmd, items, fmt.Sprintf("No results for %q", query))
			})
		},
	})

	actions := []struct {
		use, short, success, failure string
		call                         func(*ipc.Client, context.Context, protocol.Item) (bool, error)
	}{
		{"download <id>", "Copy a song, album or artist into the offline cache", "Downloaded", "download failed", (*ipc.Client).Download},
		{"delete <id>", "Remove offline copies", "Deleted offline copies", "delete failed", (*ipc.Client).Delete},
		{"star <id>", "Toggle the starred flag of a song", "Star toggled", "star failed", (*ipc.Client).Star},
	}
	for _, entry := range actions {
		libraryCmd.AddCommand(&cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, err := itemArg(args[0])
				if err != nil {
					return err
				}
				return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
					ok, err := entry.call(client, c, item)
					if err != nil {
						return err
					}
					return reportAck(ctx, cmd, ok, entry.success+" "+item.ID, entry.failure+" for "+item.ID)
				})
			},
		})
	}

	libraryCmd.AddCommand(&cobra.Command{
		Use:   "song <id>",
		Short: "Show song details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := itemArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				info, err := client.SongInfo(c, item)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				if info == nil {
					return fmt.Errorf("song %s not found", item.ID)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Artist:   %s\n", info.Artist)
				fmt.Fprintf(out, "Album:    %s (%s)\n", info.Album.Name, info.Album.ID)
				fmt.Fprintf(out, "Duration: %s\n", formatDuration(info.Duration))
				if info.Album.HasArtwork() {
					fmt.Fprintf(out, "Artwork:  %s\n", info.Album.ImagePath)
				}
				return nil
			})
		},
	})

	libraryCmd.AddCommand(&cobra.Command{
		Use:   "album <id>",
		Short: "Show album tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := itemArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				info, err := client.AlbumInfo(c, item)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, info)
				}
				if info == nil {
					return fmt.Errorf("album %s not found", item.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Artist: %s\n", info.Artist)
				return reportItems(ctx, cmd, info.Songs, "Album has no songs")
			})
		},
	})

	return libraryCmd
}
