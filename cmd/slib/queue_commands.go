package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"slib/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and edit the play queue",
	}

	var position int
	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Queue a song, album, artist or playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := itemArg(args[0])
			if err != nil {
				return err
			}
			if position < 0 || position > 255 {
				return fmt.Errorf("position %d out of range 0-255", position)
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				ok, err := client.QueueAdd(c, item, uint8(position))
				if err != nil {
					return err
				}
				return reportAck(ctx, cmd, ok, fmt.Sprintf("Queued %s", item.ID), "daemon could not queue "+item.ID)
			})
		},
	}
	addCmd.Flags().IntVarP(&position, "position", "p", 255, "Queue position (past the end appends)")

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a song from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := itemArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				ok, err := client.QueueRemove(c, item)
				if err != nil {
					return err
				}
				return reportAck(ctx, cmd, ok, fmt.Sprintf("Removed %s", item.ID), item.ID+" is not queued")
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List queued songs in play order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *ipc.Client) error {
				status, err := client.Status(c)
				if err != nil {
					return err
				}
				return reportItems(ctx, cmd, status.Queue, "Queue is empty")
			})
		},
	}

	queueCmd.AddCommand(addCmd, removeCmd, listCmd)
	return queueCmd
}
