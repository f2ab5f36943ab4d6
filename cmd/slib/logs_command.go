package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slib/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				lines = 0
			}
			out := cmd.OutOrStdout()
			printed := false
			err = logs.Tail(cmd.Context(), cfg.DaemonLogPath(), logs.Options{
				Lines:  lines,
				Follow: follow,
			}, func(line string) error {
				printed = true
				_, err := fmt.Fprintln(out, line)
				return err
			})
			if err != nil {
				return err
			}
			if !follow && !printed {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show")
	return cmd
}
